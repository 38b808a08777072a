package tiptap

import (
	"fmt"
	"strings"
)

// PlainText детерминированно разворачивает документ в плоский текст для
// выдержек и поискового индекса. Неструктурированные значения возвращаются
// без изменений.
func PlainText(d *Document) string {
	if d == nil {
		return ""
	}
	if d.root == nil {
		return d.raw
	}

	var blocks []string
	for _, n := range d.root.Content {
		if block := renderBlockPlain(n); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n")
}

// Excerpt возвращает начало плоского текста документа, ограниченное maxRunes
// рунами. При усечении добавляется многоточие.
func Excerpt(d *Document, maxRunes int) string {
	text := strings.Join(strings.Fields(PlainText(d)), " ")
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}

func renderBlockPlain(n *Node) string {
	if n == nil {
		return ""
	}

	switch n.Type {
	case TypeParagraph, TypeHeading:
		return renderInlinePlain(n)
	case TypeBlockquote:
		var parts []string
		for _, child := range n.Content {
			if block := renderBlockPlain(child); block != "" {
				parts = append(parts, block)
			}
		}
		return strings.Join(parts, "\n")
	case TypeBulletList:
		var parts []string
		for _, item := range n.Content {
			if block := renderBlockPlain(item); block != "" {
				parts = append(parts, "- "+block)
			}
		}
		return strings.Join(parts, "\n")
	case TypeOrderedList:
		var parts []string
		for i, item := range n.Content {
			if block := renderBlockPlain(item); block != "" {
				parts = append(parts, fmt.Sprintf("%d. %s", i+1, block))
			}
		}
		return strings.Join(parts, "\n")
	case TypeListItem, TypeTableHeader, TypeTableCell:
		var parts []string
		for _, child := range n.Content {
			if block := renderBlockPlain(child); block != "" {
				parts = append(parts, block)
			}
		}
		return strings.Join(parts, " ")
	case TypeTable:
		var rows []string
		for _, row := range n.Content {
			var cells []string
			for _, cell := range row.Content {
				cells = append(cells, renderBlockPlain(cell))
			}
			rows = append(rows, strings.Join(cells, "\t"))
		}
		return strings.Join(rows, "\n")
	case TypeFigure:
		return n.AttrString("caption")
	case TypeFile:
		return n.AttrString("name")
	case TypeVideo:
		return n.AttrString("title")
	case TypeImage:
		return n.AttrString("alt")
	default:
		return renderInlinePlain(n)
	}
}

func renderInlinePlain(n *Node) string {
	var sb strings.Builder
	for _, child := range n.Content {
		switch child.Type {
		case TypeText:
			sb.WriteString(child.Text)
		case TypeHardBreak:
			sb.WriteString("\n")
		case TypeMention:
			sb.WriteString(child.AttrString("label"))
		case TypeImage:
			sb.WriteString(child.AttrString("alt"))
		default:
			sb.WriteString(renderInlinePlain(child))
		}
	}
	return sb.String()
}
