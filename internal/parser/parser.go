// Package parser splits front matter from markdown bodies and converts the
// body into a block tree.
package parser

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/mdnotion/internal/apperr"
)

const delim = "---"

// Result holds the output of parsing a markdown file.
type Result struct {
	FrontMatter map[string]string
	Body        string
}

// Parse separates the front matter of data from its body. Front matter is
// present only when the very first line is the delimiter; an opening
// delimiter without a matching closing one is an error.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontMatter(string(data))
	if err != nil {
		return nil, err
	}
	return &Result{FrontMatter: fm, Body: body}, nil
}

// splitFrontMatter returns the flattened front matter and the remaining body.
func splitFrontMatter(text string) (map[string]string, string, error) {
	lines := strings.Split(text, "\n")
	if !isDelim(lines[0]) {
		return map[string]string{}, text, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if isDelim(lines[i]) {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, "", &apperr.FrontMatterError{}
	}

	fm, err := parseFlat(strings.Join(lines[1:end], "\n"))
	if err != nil {
		return nil, "", err
	}
	return fm, strings.Join(lines[end+1:], "\n"), nil
}

func isDelim(line string) bool {
	return strings.TrimRight(line, "\r") == delim
}

// parseFlat decodes a YAML mapping into string values. Scalars keep their
// source text, sequences of scalars are joined with ", " and nested mappings
// are kept as inline YAML.
func parseFlat(src string) (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(src) == "" {
		return out, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, &apperr.FrontMatterError{Reason: "invalid front matter", Err: err}
	}
	if len(doc.Content) == 0 {
		return out, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &apperr.FrontMatterError{Reason: "front matter is not a key/value mapping"}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		val, err := flatten(root.Content[i+1])
		if err != nil {
			return nil, &apperr.FrontMatterError{Reason: fmt.Sprintf("key %q", key), Err: err}
		}
		out[key] = val
	}
	return out, nil
}

func flatten(n *yaml.Node) (string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return "", nil
		}
		return n.Value, nil
	case yaml.AliasNode:
		return flatten(n.Alias)
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			s, err := flatten(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), nil
	default:
		n.Style = yaml.FlowStyle
		raw, err := yaml.Marshal(n)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
}

// SortedKeys returns the keys of a front-matter map in lexical order.
func SortedKeys(fm map[string]string) []string {
	keys := make([]string, 0, len(fm))
	for k := range fm {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
