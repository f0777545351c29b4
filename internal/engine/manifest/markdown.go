package manifest

import (
	"bytes"
	"strings"

	"github.com/garagon/skillaudit/internal/scanner"
	"github.com/garagon/skillaudit/internal/types"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// maxDescriptionRunes bounds the description carried into the report.
const maxDescriptionRunes = 300

// frontmatter is the YAML header some skills declare above the markdown body.
type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Metadata returns the skill's declared name and description. Frontmatter
// fields win; otherwise the first heading and first paragraph are used.
func (s *Scanner) Metadata(tree *scanner.Tree) (name, description string) {
	f, ok := tree.Lookup(EntryDocument)
	if !ok {
		return "", ""
	}
	content, ok := tree.ReadText(f)
	if !ok {
		return "", ""
	}
	return ParseMetadata(content)
}

// ParseMetadata extracts name and description from entry document content.
func ParseMetadata(content string) (name, description string) {
	header, body := splitFrontmatter(content)
	if header != "" {
		var fm frontmatter
		if err := yaml.Unmarshal([]byte(header), &fm); err == nil {
			name = strings.TrimSpace(fm.Name)
			description = strings.TrimSpace(fm.Description)
		}
	}

	if name == "" || description == "" {
		heading, paragraph := outline([]byte(body))
		if name == "" {
			name = heading
		}
		if description == "" {
			description = paragraph
		}
	}
	return name, types.TruncateRunes(description, maxDescriptionRunes)
}

// splitFrontmatter separates a leading "---" delimited YAML block from the
// markdown body. Without a closed block the whole content is body.
func splitFrontmatter(content string) (header, body string) {
	content = strings.TrimPrefix(content, "\uFEFF")
	if !strings.HasPrefix(content, "---\n") {
		return "", content
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", content
	}
	header = rest[:end]
	body = rest[end+len("\n---"):]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return header, body
}

// outline returns the text of the first heading and the first paragraph.
func outline(source []byte) (heading, paragraph string) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if heading == "" {
				heading = strings.TrimSpace(inlineText(node, source))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if paragraph == "" {
				paragraph = strings.TrimSpace(inlineText(node, source))
			}
			return ast.WalkSkipChildren, nil
		}
		if heading != "" && paragraph != "" {
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return heading, paragraph
}

func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(inlineText(child, source))
	}
	return buf.String()
}
