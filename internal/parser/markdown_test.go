package parser

import (
	"strings"
	"testing"

	"github.com/starford/mdnotion/internal/blocks"
)

func TestConvertMarkdown_ParagraphKeepsSoftBreaks(t *testing.T) {
	tree := ConvertMarkdown("Line one\nLine two\n")
	if len(tree) != 1 || tree[0].Kind != blocks.KindParagraph {
		t.Fatalf("tree = %+v, want one paragraph", tree)
	}
	if len(tree[0].Text) != 1 {
		t.Fatalf("runs = %+v, want one merged run", tree[0].Text)
	}
	if tree[0].Text[0].Content != "Line one\nLine two" {
		t.Errorf("content = %q", tree[0].Text[0].Content)
	}
}

func TestConvertMarkdown_Headings(t *testing.T) {
	tree := ConvertMarkdown("# One\n\n## Two\n\n### Three\n\n#### Four\n")
	want := []blocks.Kind{blocks.KindHeading1, blocks.KindHeading2, blocks.KindHeading3, blocks.KindHeading3}
	if len(tree) != len(want) {
		t.Fatalf("len = %d, want %d", len(tree), len(want))
	}
	for i, k := range want {
		if tree[i].Kind != k {
			t.Errorf("block %d kind = %s, want %s", i, tree[i].Kind, k)
		}
	}
	if blocks.PlainText(tree[3].Text) != "Four" {
		t.Errorf("heading text = %q", blocks.PlainText(tree[3].Text))
	}
}

func TestConvertMarkdown_InlineStyles(t *testing.T) {
	tree := ConvertMarkdown("See **bold** and `code` and [docs](https://example.com/docs).\n")
	if len(tree) != 1 {
		t.Fatalf("tree = %+v", tree)
	}
	runs := tree[0].Text
	var bold, code, link bool
	for _, r := range runs {
		if r.Content == "bold" && r.Annotations.Bold {
			bold = true
		}
		if r.Content == "code" && r.Annotations.Code {
			code = true
		}
		if r.Content == "docs" && r.Link == "https://example.com/docs" {
			link = true
		}
	}
	if !bold || !code || !link {
		t.Errorf("runs = %+v (bold=%v code=%v link=%v)", runs, bold, code, link)
	}
}

func TestConvertMarkdown_NestedLists(t *testing.T) {
	tree := ConvertMarkdown("- a\n  - b\n- c\n\n1. first\n")
	if len(tree) != 3 {
		t.Fatalf("len = %d, want 3: %+v", len(tree), tree)
	}
	if tree[0].Kind != blocks.KindBulletedListItem || blocks.PlainText(tree[0].Text) != "a" {
		t.Errorf("item 0 = %+v", tree[0])
	}
	if len(tree[0].Children) != 1 || blocks.PlainText(tree[0].Children[0].Text) != "b" {
		t.Errorf("nested = %+v", tree[0].Children)
	}
	if tree[2].Kind != blocks.KindNumberedListItem {
		t.Errorf("item 2 kind = %s", tree[2].Kind)
	}
}

func TestConvertMarkdown_TaskList(t *testing.T) {
	tree := ConvertMarkdown("- [x] done\n- [ ] todo\n")
	if len(tree) != 2 {
		t.Fatalf("len = %d", len(tree))
	}
	if tree[0].Kind != blocks.KindToDo || !tree[0].Checked {
		t.Errorf("item 0 = %+v", tree[0])
	}
	if tree[1].Kind != blocks.KindToDo || tree[1].Checked {
		t.Errorf("item 1 = %+v", tree[1])
	}
	if got := blocks.PlainText(tree[0].Text); got != "done" {
		t.Errorf("text = %q", got)
	}
}

func TestConvertMarkdown_CodeFence(t *testing.T) {
	tree := ConvertMarkdown("```go\nfmt.Println(\"hi\")\n```\n\n```brainfuck\n+++\n```\n")
	if len(tree) != 2 {
		t.Fatalf("len = %d", len(tree))
	}
	if tree[0].Kind != blocks.KindCode || tree[0].Language != "go" {
		t.Errorf("code = %+v", tree[0])
	}
	if got := blocks.PlainText(tree[0].Text); got != `fmt.Println("hi")` {
		t.Errorf("code content = %q", got)
	}
	if tree[1].Language != "plain text" {
		t.Errorf("unknown language = %q, want plain text", tree[1].Language)
	}
}

func TestConvertMarkdown_QuoteAndDivider(t *testing.T) {
	tree := ConvertMarkdown("> quoted\n\n***\n")
	if len(tree) != 2 {
		t.Fatalf("len = %d: %+v", len(tree), tree)
	}
	if tree[0].Kind != blocks.KindQuote || blocks.PlainText(tree[0].Text) != "quoted" {
		t.Errorf("quote = %+v", tree[0])
	}
	if tree[1].Kind != blocks.KindDivider {
		t.Errorf("divider = %+v", tree[1])
	}
}

func TestConvertMarkdown_Table(t *testing.T) {
	tree := ConvertMarkdown("| a | b |\n| - | - |\n| 1 | 2 |\n")
	if len(tree) != 1 || tree[0].Kind != blocks.KindTable {
		t.Fatalf("tree = %+v", tree)
	}
	tbl := tree[0]
	if tbl.Width != 2 || !tbl.ColumnHeader || len(tbl.Children) != 2 {
		t.Fatalf("table = %+v", tbl)
	}
	if got := strings.TrimSpace(blocks.PlainText(tbl.Children[1].Cells[1])); got != "2" {
		t.Errorf("cell = %q", got)
	}
}

func TestConvertMarkdown_KeepsLongRunsWhole(t *testing.T) {
	tree := ConvertMarkdown(strings.Repeat("a", 4500))
	if len(tree) != 1 || len(tree[0].Text) != 1 || len(tree[0].Text[0].Content) != 4500 {
		t.Fatalf("tree = %d blocks, runs = %+v", len(tree), len(tree[0].Text))
	}
}

func TestConvertMarkdown_BackslashEscapes(t *testing.T) {
	tree := ConvertMarkdown("a \\*b\\* c \\_d\\_ \\# e\n")
	if len(tree) != 1 {
		t.Fatalf("tree = %+v", tree)
	}
	if got := blocks.PlainText(tree[0].Text); got != "a *b* c _d_ # e" {
		t.Errorf("text = %q", got)
	}
	for _, r := range tree[0].Text {
		if r.Annotations != (blocks.Annotations{}) {
			t.Errorf("escaped markers must not style text: %+v", r)
		}
	}
}

func TestConvertMarkdown_EntityReferences(t *testing.T) {
	tree := ConvertMarkdown("Tom &amp; Jerry &copy; &#35;1 &#x41; \\&amp;\n")
	if got := blocks.PlainText(tree[0].Text); got != "Tom & Jerry \u00a9 #1 A &amp;" {
		t.Errorf("text = %q", got)
	}
}

func TestConvertMarkdown_CodeSpansStayLiteral(t *testing.T) {
	tree := ConvertMarkdown("`\\*x\\* &amp;`\n")
	runs := tree[0].Text
	if len(runs) != 1 || !runs[0].Annotations.Code || runs[0].Content != "\\*x\\* &amp;" {
		t.Errorf("runs = %+v", runs)
	}
}

func TestConvertMarkdown_LinkDestinationUnescaped(t *testing.T) {
	tree := ConvertMarkdown("[x](https://e.com/a\\_b?q=1&amp;r=2)\n")
	if got := tree[0].Text[0].Link; got != "https://e.com/a_b?q=1&r=2" {
		t.Errorf("link = %q", got)
	}
}

func TestCodeLanguage(t *testing.T) {
	cases := map[string]string{
		"":        "plain text",
		"JS":      "javascript",
		"python":  "python",
		"golang":  "go",
		"unknown": "plain text",
	}
	for in, want := range cases {
		if got := codeLanguage(in); got != want {
			t.Errorf("codeLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}
