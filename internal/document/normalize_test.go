package document

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/starford/mdnotion/internal/blocks"
)

func TestFoldNewlines_OnlyParagraphs(t *testing.T) {
	tree := blocks.Tree{
		blocks.Paragraph(blocks.Text("a\nb\r\nc")),
		{Kind: blocks.KindCode, Text: []blocks.TextRun{blocks.Text("x\ny")}},
		{
			Kind:     blocks.KindQuote,
			Text:     []blocks.TextRun{blocks.Text("q")},
			Children: []blocks.Block{blocks.Paragraph(blocks.Text("n1\nn2"))},
		},
	}
	FoldNewlines(tree)

	if got := tree[0].Text[0].Content; got != "a b c" {
		t.Errorf("paragraph = %q", got)
	}
	if got := tree[1].Text[0].Content; got != "x\ny" {
		t.Errorf("code block must keep newlines, got %q", got)
	}
	if got := tree[2].Children[0].Text[0].Content; got != "n1 n2" {
		t.Errorf("nested paragraph = %q", got)
	}
}

func TestLiteralizeLinks_EveryReachableRun(t *testing.T) {
	link := func(content, url string, ann blocks.Annotations) blocks.TextRun {
		return blocks.TextRun{Content: content, Link: url, Annotations: ann}
	}
	tree := blocks.Tree{
		blocks.Paragraph(link("docs", "https://e.com/d", blocks.Annotations{Bold: true})),
		{
			Kind: blocks.KindBulletedListItem,
			Children: []blocks.Block{
				{Kind: blocks.KindToDo, Text: []blocks.TextRun{link("deep", "https://e.com/deep", blocks.Annotations{})}},
			},
		},
		{
			Kind: blocks.KindTable,
			Children: []blocks.Block{
				{Kind: blocks.KindTableRow, Cells: [][]blocks.TextRun{{link("cell", "https://e.com/c", blocks.Annotations{Italic: true})}}},
			},
		},
	}

	type original struct{ content, url string }
	var before []original
	blocks.WalkRuns(tree, func(r *blocks.TextRun) {
		if r.Link != "" {
			before = append(before, original{r.Content, r.Link})
		}
	})

	LiteralizeLinks(tree)

	var after []blocks.TextRun
	blocks.WalkRuns(tree, func(r *blocks.TextRun) { after = append(after, *r) })
	if len(after) != len(before) {
		t.Fatalf("run count changed: %d vs %d", len(after), len(before))
	}
	for i, r := range after {
		if r.Link != "" {
			t.Errorf("run %d still has link %q", i, r.Link)
		}
		if !r.Annotations.Code {
			t.Errorf("run %d missing code annotation", i)
		}
		if !strings.Contains(r.Content, before[i].url) {
			t.Errorf("run %d content %q lost target %q", i, r.Content, before[i].url)
		}
		if r.Content != "["+before[i].content+"]("+before[i].url+")" {
			t.Errorf("run %d content = %q", i, r.Content)
		}
	}
	if !after[0].Annotations.Bold {
		t.Error("existing bold annotation was dropped")
	}
	if !after[2].Annotations.Italic {
		t.Error("existing italic annotation was dropped")
	}
}

func TestLiteralizeLinks_LeavesPlainRuns(t *testing.T) {
	tree := blocks.Tree{blocks.Paragraph(blocks.Text("plain"))}
	LiteralizeLinks(tree)
	r := tree[0].Text[0]
	if r.Content != "plain" || r.Annotations.Code {
		t.Errorf("plain run changed: %+v", r)
	}
}

func TestSplitLongRuns_TextAndCells(t *testing.T) {
	long := strings.Repeat("a", 2*MaxRunLength+500)
	bold := blocks.Annotations{Bold: true}
	tree := blocks.Tree{
		blocks.Paragraph(blocks.TextRun{Content: long, Annotations: bold}, blocks.Text("tail")),
		{Kind: blocks.KindTable, Width: 1, Children: []blocks.Block{
			{Kind: blocks.KindTableRow, Cells: [][]blocks.TextRun{{blocks.Text(long)}}},
		}},
	}
	SplitLongRuns(tree)

	runs := tree[0].Text
	if len(runs) != 4 {
		t.Fatalf("runs = %d, want 4", len(runs))
	}
	if len(runs[0].Content) != MaxRunLength || len(runs[2].Content) != 500 || runs[3].Content != "tail" {
		t.Errorf("split lengths = %d, %d, %d", len(runs[0].Content), len(runs[1].Content), len(runs[2].Content))
	}
	for _, r := range runs[:3] {
		if r.Annotations != bold {
			t.Errorf("split run lost its style: %+v", r.Annotations)
		}
	}
	if cell := tree[1].Children[0].Cells[0]; len(cell) != 3 {
		t.Errorf("cell runs = %d, want 3", len(cell))
	}
}

func TestSplitLongRuns_CountsCharactersNotBytes(t *testing.T) {
	tree := blocks.Tree{blocks.Paragraph(blocks.Text(strings.Repeat("\u00e9", MaxRunLength)))}
	SplitLongRuns(tree)
	if len(tree[0].Text) != 1 {
		t.Errorf("runs = %d, want 1", len(tree[0].Text))
	}
}

func TestNormalize_SplitsAfterLiteralizingLinks(t *testing.T) {
	label := strings.Repeat("x", MaxRunLength-10)
	tree := blocks.Tree{blocks.Paragraph(blocks.TextRun{Content: label, Link: "https://example.com/page"})}
	Normalize(tree)

	runs := tree[0].Text
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	for _, r := range runs {
		if n := utf8.RuneCountInString(r.Content); n > MaxRunLength {
			t.Errorf("run of %d characters", n)
		}
		if !r.Annotations.Code {
			t.Errorf("literal link run must be code-styled: %+v", r)
		}
	}
	if got := blocks.PlainText(runs); got != "["+label+"](https://example.com/page)" {
		t.Errorf("joined content has %d characters", len(got))
	}
}
