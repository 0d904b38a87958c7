package notion

import (
	"github.com/jomei/notionapi"

	"github.com/starford/mdnotion/internal/blocks"
	"github.com/starford/mdnotion/internal/models"
)

// toBlocks converts a block tree into API blocks.
func toBlocks(t blocks.Tree) []notionapi.Block {
	out := make([]notionapi.Block, 0, len(t))
	for _, b := range t {
		if nb := toBlock(b); nb != nil {
			out = append(out, nb)
		}
	}
	return out
}

func toBlock(b blocks.Block) notionapi.Block {
	basic := notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockType(b.Kind)}
	text := toRichText(b.Text)
	var children []notionapi.Block
	if len(b.Children) > 0 {
		children = toBlocks(b.Children)
	}

	switch b.Kind {
	case blocks.KindParagraph:
		return &notionapi.ParagraphBlock{BasicBlock: basic, Paragraph: notionapi.Paragraph{RichText: text, Children: children}}
	case blocks.KindHeading1:
		return &notionapi.Heading1Block{BasicBlock: basic, Heading1: notionapi.Heading{RichText: text}}
	case blocks.KindHeading2:
		return &notionapi.Heading2Block{BasicBlock: basic, Heading2: notionapi.Heading{RichText: text}}
	case blocks.KindHeading3:
		return &notionapi.Heading3Block{BasicBlock: basic, Heading3: notionapi.Heading{RichText: text}}
	case blocks.KindBulletedListItem:
		return &notionapi.BulletedListItemBlock{BasicBlock: basic, BulletedListItem: notionapi.ListItem{RichText: text, Children: children}}
	case blocks.KindNumberedListItem:
		return &notionapi.NumberedListItemBlock{BasicBlock: basic, NumberedListItem: notionapi.ListItem{RichText: text, Children: children}}
	case blocks.KindToDo:
		return &notionapi.ToDoBlock{BasicBlock: basic, ToDo: notionapi.ToDo{RichText: text, Checked: b.Checked, Children: children}}
	case blocks.KindQuote:
		return &notionapi.QuoteBlock{BasicBlock: basic, Quote: notionapi.Quote{RichText: text, Children: children}}
	case blocks.KindCode:
		return &notionapi.CodeBlock{BasicBlock: basic, Code: notionapi.Code{RichText: text, Language: b.Language}}
	case blocks.KindDivider:
		return &notionapi.DividerBlock{BasicBlock: basic}
	case blocks.KindTable:
		return &notionapi.TableBlock{BasicBlock: basic, Table: notionapi.Table{
			TableWidth:      b.Width,
			HasColumnHeader: b.ColumnHeader,
			Children:        children,
		}}
	case blocks.KindTableRow:
		cells := make([][]notionapi.RichText, 0, len(b.Cells))
		for _, c := range b.Cells {
			cells = append(cells, toRichText(c))
		}
		return &notionapi.TableRowBlock{BasicBlock: basic, TableRow: notionapi.TableRow{Cells: cells}}
	}
	return nil
}

// toRichText never returns nil; the API rejects a null rich_text array.
func toRichText(runs []blocks.TextRun) []notionapi.RichText {
	out := make([]notionapi.RichText, 0, len(runs))
	for _, r := range runs {
		rt := notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: r.Content},
		}
		if r.Link != "" {
			rt.Text.Link = &notionapi.Link{Url: r.Link}
		}
		if r.Annotations != (blocks.Annotations{}) {
			rt.Annotations = &notionapi.Annotations{
				Bold:          r.Annotations.Bold,
				Italic:        r.Annotations.Italic,
				Strikethrough: r.Annotations.Strikethrough,
				Underline:     r.Annotations.Underline,
				Code:          r.Annotations.Code,
				Color:         notionapi.Color(r.Annotations.Color),
			}
		}
		out = append(out, rt)
	}
	return out
}

func singleRun(s string) []notionapi.RichText {
	if s == "" {
		return []notionapi.RichText{}
	}
	return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}}
}

// toProperties converts a property map into API properties.
func toProperties(m models.PropertyMap) notionapi.Properties {
	out := make(notionapi.Properties, len(m))
	for label, p := range m {
		switch p.Kind {
		case models.PropertyTitle:
			out[label] = &notionapi.TitleProperty{Type: notionapi.PropertyTypeTitle, Title: singleRun(p.Text)}
		case models.PropertyURL:
			out[label] = &notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: p.URL}
		case models.PropertyRichText:
			out[label] = &notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: singleRun(p.Text)}
		}
	}
	return out
}

// fromProperties reads the title, url and rich_text properties of a page.
// Other property types are not written by the sync and are skipped.
func fromProperties(props notionapi.Properties) models.PropertyMap {
	out := make(models.PropertyMap, len(props))
	for label, p := range props {
		switch v := p.(type) {
		case *notionapi.TitleProperty:
			out[label] = models.Property{Kind: models.PropertyTitle, Text: plainText(v.Title)}
		case *notionapi.URLProperty:
			out[label] = models.Property{Kind: models.PropertyURL, URL: v.URL}
		case *notionapi.RichTextProperty:
			out[label] = models.Property{Kind: models.PropertyRichText, Text: plainText(v.RichText)}
		}
	}
	return out
}

func plainText(rt []notionapi.RichText) string {
	var s string
	for _, r := range rt {
		switch {
		case r.PlainText != "":
			s += r.PlainText
		case r.Text != nil:
			s += r.Text.Content
		}
	}
	return s
}

func parentID(p notionapi.Parent) string {
	switch {
	case p.DatabaseID != "":
		return string(p.DatabaseID)
	case p.PageID != "":
		return string(p.PageID)
	}
	return ""
}
