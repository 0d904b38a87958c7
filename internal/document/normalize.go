package document

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/starford/mdnotion/internal/blocks"
)

// MaxRunLength is the longest content a single text run may carry.
const MaxRunLength = 2000

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ")

// Normalize folds newlines, literalizes links and then splits long runs,
// rewriting the tree in place.
func Normalize(t blocks.Tree) {
	FoldNewlines(t)
	LiteralizeLinks(t)
	SplitLongRuns(t)
}

// FoldNewlines replaces line breaks inside paragraph runs with a single space,
// so wrapped source lines flow as one paragraph.
func FoldNewlines(t blocks.Tree) {
	blocks.Walk(t, blocks.Visitor{Block: func(b *blocks.Block) {
		if b.Kind != blocks.KindParagraph {
			return
		}
		for i := range b.Text {
			b.Text[i].Content = newlines.Replace(b.Text[i].Content)
		}
	}})
}

// LiteralizeLinks rewrites every linked run into a code-styled literal
// markdown link and clears the link.
func LiteralizeLinks(t blocks.Tree) {
	blocks.WalkRuns(t, func(r *blocks.TextRun) {
		if r.Link == "" {
			return
		}
		r.Content = fmt.Sprintf("[%s](%s)", r.Content, r.Link)
		r.Annotations.Code = true
		r.Link = ""
	})
}

// SplitLongRuns breaks every run, table cells included, whose content exceeds
// MaxRunLength characters into consecutive runs with the same style.
func SplitLongRuns(t blocks.Tree) {
	blocks.Walk(t, blocks.Visitor{Block: func(b *blocks.Block) {
		b.Text = splitLong(b.Text)
		for i := range b.Cells {
			b.Cells[i] = splitLong(b.Cells[i])
		}
	}})
}

func splitLong(runs []blocks.TextRun) []blocks.TextRun {
	if !slices.ContainsFunc(runs, tooLong) {
		return runs
	}
	out := make([]blocks.TextRun, 0, len(runs)+1)
	for _, r := range runs {
		for tooLong(r) {
			cut := byteOffset(r.Content, MaxRunLength)
			head := r
			head.Content = r.Content[:cut]
			out = append(out, head)
			r.Content = r.Content[cut:]
		}
		out = append(out, r)
	}
	return out
}

func tooLong(r blocks.TextRun) bool {
	return utf8.RuneCountInString(r.Content) > MaxRunLength
}

func byteOffset(s string, runes int) int {
	i := 0
	for pos := range s {
		if i == runes {
			return pos
		}
		i++
	}
	return len(s)
}
