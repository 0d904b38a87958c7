package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/mdnotion/internal/blocks"
)

const plainTextLanguage = "plain text"

var engine = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ConvertMarkdown parses a markdown body into a block tree.
func ConvertMarkdown(body string) blocks.Tree {
	src := []byte(body)
	doc := engine.Parser().Parse(text.NewReader(src))
	c := &converter{src: src}
	return c.children(doc)
}

type converter struct {
	src []byte
}

func (c *converter) children(parent ast.Node) []blocks.Block {
	var out []blocks.Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, c.block(n)...)
	}
	return out
}

func (c *converter) block(n ast.Node) []blocks.Block {
	switch node := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		runs := c.inline(node)
		if len(runs) == 0 {
			return nil
		}
		return []blocks.Block{{Kind: blocks.KindParagraph, Text: runs}}

	case *ast.Heading:
		kind := blocks.KindHeading3
		switch node.Level {
		case 1:
			kind = blocks.KindHeading1
		case 2:
			kind = blocks.KindHeading2
		}
		return []blocks.Block{{Kind: kind, Text: c.inline(node)}}

	case *ast.List:
		return c.list(node)

	case *ast.FencedCodeBlock:
		return []blocks.Block{c.code(node, string(node.Language(c.src)))}

	case *ast.CodeBlock:
		return []blocks.Block{c.code(node, "")}

	case *ast.Blockquote:
		quote := blocks.Block{Kind: blocks.KindQuote}
		inner := c.children(node)
		if len(inner) > 0 && inner[0].Kind == blocks.KindParagraph {
			quote.Text = inner[0].Text
			inner = inner[1:]
		}
		if len(inner) > 0 {
			quote.Children = inner
		}
		return []blocks.Block{quote}

	case *ast.ThematicBreak:
		return []blocks.Block{{Kind: blocks.KindDivider}}

	case *extast.Table:
		return []blocks.Block{c.table(node)}

	case *ast.HTMLBlock:
		return nil
	}

	if n.HasChildren() {
		return c.children(n)
	}
	return nil
}

func (c *converter) list(list *ast.List) []blocks.Block {
	kind := blocks.KindBulletedListItem
	if list.IsOrdered() {
		kind = blocks.KindNumberedListItem
	}

	var out []blocks.Block
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		b := blocks.Block{Kind: kind}
		child := item.FirstChild()
		if child != nil && isTextual(child) {
			if box, ok := child.FirstChild().(*extast.TaskCheckBox); ok {
				b.Kind = blocks.KindToDo
				b.Checked = box.IsChecked
			}
			b.Text = c.inline(child)
			if b.Kind == blocks.KindToDo && len(b.Text) > 0 {
				b.Text[0].Content = strings.TrimLeft(b.Text[0].Content, " ")
			}
			child = child.NextSibling()
		}
		for ; child != nil; child = child.NextSibling() {
			b.Children = append(b.Children, c.block(child)...)
		}
		out = append(out, b)
	}
	return out
}

func isTextual(n ast.Node) bool {
	switch n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return true
	}
	return false
}

func (c *converter) code(n ast.Node, lang string) blocks.Block {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(c.src))
	}
	content := strings.TrimRight(sb.String(), "\n")
	return blocks.Block{
		Kind:     blocks.KindCode,
		Text:     []blocks.TextRun{{Content: content}},
		Language: codeLanguage(lang),
	}
}

func (c *converter) table(tbl *extast.Table) blocks.Block {
	out := blocks.Block{Kind: blocks.KindTable}
	for row := tbl.FirstChild(); row != nil; row = row.NextSibling() {
		if _, ok := row.(*extast.TableHeader); ok {
			out.ColumnHeader = true
		}
		r := blocks.Block{Kind: blocks.KindTableRow}
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			r.Cells = append(r.Cells, c.inline(cell))
		}
		if len(r.Cells) > out.Width {
			out.Width = len(r.Cells)
		}
		out.Children = append(out.Children, r)
	}
	for i := range out.Children {
		for len(out.Children[i].Cells) < out.Width {
			out.Children[i].Cells = append(out.Children[i].Cells, nil)
		}
	}
	return out
}

// inline flattens the inline children of n into merged text runs.
func (c *converter) inline(n ast.Node) []blocks.TextRun {
	var runs []blocks.TextRun
	c.collect(n, blocks.Annotations{}, "", &runs)
	runs = mergeRuns(runs)
	if last := len(runs) - 1; last >= 0 {
		runs[last].Content = strings.TrimRight(runs[last].Content, "\n")
		if runs[last].Content == "" {
			runs = runs[:last]
		}
	}
	return runs
}

func (c *converter) collect(parent ast.Node, ann blocks.Annotations, link string, runs *[]blocks.TextRun) {
	add := func(content string, a blocks.Annotations, l string) {
		if content == "" {
			return
		}
		*runs = append(*runs, blocks.TextRun{Content: content, Link: l, Annotations: a})
	}

	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Text:
			value := node.Segment.Value(c.src)
			s := string(value)
			if !node.IsRaw() && !ann.Code {
				s = unescape(value)
			}
			if node.SoftLineBreak() || node.HardLineBreak() {
				s += "\n"
			}
			add(s, ann, link)
		case *ast.String:
			add(string(node.Value), ann, link)
		case *ast.CodeSpan:
			a := ann
			a.Code = true
			c.collect(node, a, link, runs)
		case *ast.Emphasis:
			a := ann
			if node.Level >= 2 {
				a.Bold = true
			} else {
				a.Italic = true
			}
			c.collect(node, a, link, runs)
		case *extast.Strikethrough:
			a := ann
			a.Strikethrough = true
			c.collect(node, a, link, runs)
		case *ast.Link:
			c.collect(node, ann, unescape(node.Destination), runs)
		case *ast.AutoLink:
			add(string(node.Label(c.src)), ann, string(node.URL(c.src)))
		case *ast.Image:
			var alt []blocks.TextRun
			c.collect(node, blocks.Annotations{}, "", &alt)
			label := blocks.PlainText(alt)
			if label == "" {
				label = string(node.Destination)
			}
			add(label, ann, string(node.Destination))
		case *ast.RawHTML:
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				add(string(seg.Value(c.src)), ann, link)
			}
		case *extast.TaskCheckBox:
			// carried by the to_do block kind
		default:
			c.collect(node, ann, link, runs)
		}
	}
}

// unescape drops backslash escapes before ASCII punctuation and resolves
// entity and numeric character references. An escaped '&' stays literal.
func unescape(b []byte) string {
	var sb strings.Builder
	start := 0
	for i := 0; i < len(b); i++ {
		if b[i] == '\\' && i+1 < len(b) && util.IsPunct(b[i+1]) {
			sb.Write(resolveReferences(b[start:i]))
			sb.WriteByte(b[i+1])
			i++
			start = i + 1
		}
	}
	sb.Write(resolveReferences(b[start:]))
	return sb.String()
}

func resolveReferences(b []byte) []byte {
	return util.ResolveEntityNames(util.ResolveNumericReferences(b))
}

// mergeRuns joins adjacent runs that share annotations and link.
func mergeRuns(runs []blocks.TextRun) []blocks.TextRun {
	var out []blocks.TextRun
	for _, r := range runs {
		if n := len(out); n > 0 && out[n-1].Annotations == r.Annotations && out[n-1].Link == r.Link {
			out[n-1].Content += r.Content
			continue
		}
		out = append(out, r)
	}
	return out
}

var languageAliases = map[string]string{
	"":           plainTextLanguage,
	"text":       plainTextLanguage,
	"txt":        plainTextLanguage,
	"plaintext":  plainTextLanguage,
	"js":         "javascript",
	"jsx":        "javascript",
	"ts":         "typescript",
	"tsx":        "typescript",
	"py":         "python",
	"rb":         "ruby",
	"sh":         "shell",
	"zsh":        "shell",
	"console":    "shell",
	"yml":        "yaml",
	"golang":     "go",
	"rs":         "rust",
	"kt":         "kotlin",
	"cs":         "c#",
	"csharp":     "c#",
	"cpp":        "c++",
	"hs":         "haskell",
	"md":         "markdown",
	"dockerfile": "docker",
	"tf":         "hcl",
	"terraform":  "hcl",
	"proto":      "protobuf",
}

var knownLanguages = map[string]struct{}{
	"bash": {}, "c": {}, "c#": {}, "c++": {}, "clojure": {}, "css": {}, "dart": {}, "diff": {},
	"docker": {}, "elixir": {}, "elm": {}, "erlang": {}, "go": {}, "graphql": {}, "haskell": {},
	"hcl": {}, "html": {}, "java": {}, "javascript": {}, "json": {}, "kotlin": {}, "lua": {},
	"makefile": {}, "markdown": {}, "nix": {}, "objective-c": {}, "ocaml": {}, "perl": {},
	"php": {}, "plain text": {}, "powershell": {}, "protobuf": {}, "python": {}, "r": {},
	"ruby": {}, "rust": {}, "scala": {}, "scss": {}, "shell": {}, "sql": {}, "swift": {},
	"toml": {}, "typescript": {}, "xml": {}, "yaml": {},
}

// codeLanguage maps a fence info string to a language the remote store accepts.
func codeLanguage(info string) string {
	lang := strings.ToLower(strings.TrimSpace(info))
	if alias, ok := languageAliases[lang]; ok {
		lang = alias
	}
	if _, ok := knownLanguages[lang]; ok {
		return lang
	}
	return plainTextLanguage
}
