// Package blocks defines the structured block tree a markdown body is converted into.
package blocks

// Kind tags a Block variant. Values match the remote store's block type names.
type Kind string

// Block kinds.
const (
	KindParagraph        Kind = "paragraph"
	KindHeading1         Kind = "heading_1"
	KindHeading2         Kind = "heading_2"
	KindHeading3         Kind = "heading_3"
	KindBulletedListItem Kind = "bulleted_list_item"
	KindNumberedListItem Kind = "numbered_list_item"
	KindToDo             Kind = "to_do"
	KindQuote            Kind = "quote"
	KindCode             Kind = "code"
	KindDivider          Kind = "divider"
	KindTable            Kind = "table"
	KindTableRow         Kind = "table_row"
)

// Annotations are the style flags of a TextRun.
type Annotations struct {
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Code          bool   `json:"code,omitempty"`
	Color         string `json:"color,omitempty"`
}

// TextRun is the smallest styled unit of text.
type TextRun struct {
	Content     string      `json:"content"`
	Link        string      `json:"link,omitempty"`
	Annotations Annotations `json:"annotations"`
}

// Block is one node of a Tree. Which fields are meaningful depends on Kind:
// Text carries the block's rich text, Children its nested blocks, Cells the
// row cells of a table_row. All text-bearing fields are reached by Walk.
type Block struct {
	Kind     Kind        `json:"type"`
	Text     []TextRun   `json:"text,omitempty"`
	Children []Block     `json:"children,omitempty"`
	Cells    [][]TextRun `json:"cells,omitempty"`

	// Language is set on code blocks.
	Language string `json:"language,omitempty"`
	// Checked is set on to_do blocks.
	Checked bool `json:"checked,omitempty"`
	// Width and ColumnHeader describe table blocks.
	Width        int  `json:"width,omitempty"`
	ColumnHeader bool `json:"column_header,omitempty"`
}

// Tree is an ordered sequence of top-level blocks.
type Tree []Block

// Paragraph builds a paragraph block.
func Paragraph(runs ...TextRun) Block {
	return Block{Kind: KindParagraph, Text: runs}
}

// Text builds an unstyled run.
func Text(content string) TextRun {
	return TextRun{Content: content}
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i := range t {
		out[i] = t[i].clone()
	}
	return out
}

func (b Block) clone() Block {
	c := b
	if b.Text != nil {
		c.Text = append([]TextRun(nil), b.Text...)
	}
	if b.Children != nil {
		c.Children = make([]Block, len(b.Children))
		for i := range b.Children {
			c.Children[i] = b.Children[i].clone()
		}
	}
	if b.Cells != nil {
		c.Cells = make([][]TextRun, len(b.Cells))
		for i, cell := range b.Cells {
			c.Cells[i] = append([]TextRun(nil), cell...)
		}
	}
	return c
}

// PlainText concatenates the content of runs.
func PlainText(runs []TextRun) string {
	n := 0
	for _, r := range runs {
		n += len(r.Content)
	}
	buf := make([]byte, 0, n)
	for _, r := range runs {
		buf = append(buf, r.Content...)
	}
	return string(buf)
}
