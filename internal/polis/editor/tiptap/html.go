package tiptap

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	policy "github.com/aisa-it/polis/internal/polis/redactor-policy"
)

// HTML рендерит документ в HTML для экспорта. Результат прогоняется через
// политику безопасности экспорта. Неструктурированные значения экранируются
// и оборачиваются в параграф.
func HTML(d *Document) string {
	if d == nil {
		return ""
	}
	if d.root == nil {
		if d.raw == "" {
			return ""
		}
		return policy.Sanitize("<p>" + html.EscapeString(d.raw) + "</p>")
	}

	var sb strings.Builder
	for _, n := range d.root.Content {
		renderNodeHTML(&sb, n)
	}
	return policy.Sanitize(sb.String())
}

func renderNodeHTML(sb *strings.Builder, n *Node) {
	if n == nil {
		return
	}

	switch n.Type {
	case TypeParagraph:
		sb.WriteString("<p>")
		renderChildrenHTML(sb, n)
		sb.WriteString("</p>")
	case TypeHeading:
		level := n.AttrInt("level")
		if level < 2 || level > 5 {
			level = 2
		}
		fmt.Fprintf(sb, "<h%d>", level)
		renderChildrenHTML(sb, n)
		fmt.Fprintf(sb, "</h%d>", level)
	case TypeText:
		renderTextHTML(sb, n)
	case TypeHardBreak:
		sb.WriteString("<br>")
	case TypeMention:
		fmt.Fprintf(sb, `<span class="mention" data-id="%s">%s</span>`,
			html.EscapeString(n.AttrString("id")),
			html.EscapeString(n.AttrString("label")))
	case TypeImage:
		fmt.Fprintf(sb, `<img src="%s" alt="%s" title="%s">`,
			html.EscapeString(n.AttrString("src")),
			html.EscapeString(n.AttrString("alt")),
			html.EscapeString(n.AttrString("title")))
	case TypeFigure:
		sb.WriteString("<figure>")
		fmt.Fprintf(sb, `<img src="%s" alt="%s" title="%s">`,
			html.EscapeString(n.AttrString("src")),
			html.EscapeString(n.AttrString("alt")),
			html.EscapeString(n.AttrString("title")))
		if caption := n.AttrString("caption"); caption != "" {
			fmt.Fprintf(sb, "<figcaption>%s</figcaption>", html.EscapeString(caption))
		}
		sb.WriteString("</figure>")
	case TypeFile:
		name := n.AttrString("name")
		if name == "" {
			name = n.AttrString("url")
		}
		fmt.Fprintf(sb, `<p><a href="%s">%s</a></p>`,
			html.EscapeString(n.AttrString("url")),
			html.EscapeString(name))
	case TypeVideo:
		title := n.AttrString("title")
		if title == "" {
			title = n.AttrString("guid")
		}
		fmt.Fprintf(sb, `<p><a href="%s">%s</a></p>`,
			html.EscapeString(n.AttrString("platform")),
			html.EscapeString(title))
	case TypeBulletList:
		sb.WriteString("<ul>")
		renderChildrenHTML(sb, n)
		sb.WriteString("</ul>")
	case TypeOrderedList:
		sb.WriteString("<ol>")
		renderChildrenHTML(sb, n)
		sb.WriteString("</ol>")
	case TypeListItem:
		sb.WriteString("<li>")
		renderChildrenHTML(sb, n)
		sb.WriteString("</li>")
	case TypeBlockquote:
		sb.WriteString("<blockquote>")
		renderChildrenHTML(sb, n)
		sb.WriteString("</blockquote>")
	case TypeTable:
		sb.WriteString("<table><tbody>")
		renderChildrenHTML(sb, n)
		sb.WriteString("</tbody></table>")
	case TypeTableRow:
		sb.WriteString("<tr>")
		renderChildrenHTML(sb, n)
		sb.WriteString("</tr>")
	case TypeTableHeader:
		sb.WriteString("<th>")
		renderChildrenHTML(sb, n)
		sb.WriteString("</th>")
	case TypeTableCell:
		sb.WriteString("<td>")
		renderChildrenHTML(sb, n)
		sb.WriteString("</td>")
	default:
		slog.Debug("Unknown node type in HTML render", "type", n.Type)
		renderChildrenHTML(sb, n)
	}
}

func renderChildrenHTML(sb *strings.Builder, n *Node) {
	for _, child := range n.Content {
		renderNodeHTML(sb, child)
	}
}

// renderTextHTML оборачивает текст в теги marks. Ссылка всегда самый внешний тег.
func renderTextHTML(sb *strings.Builder, n *Node) {
	var closers []string

	if link := n.FindMark(MarkLink); link != nil {
		href, _ := link.Attrs["href"].(string)
		title, _ := link.Attrs["title"].(string)
		target, _ := link.Attrs["target"].(string)
		sb.WriteString(`<a href="` + html.EscapeString(href) + `"`)
		if title != "" {
			sb.WriteString(` title="` + html.EscapeString(title) + `"`)
		}
		if target != "" {
			sb.WriteString(` target="` + html.EscapeString(target) + `"`)
		}
		sb.WriteString(">")
		closers = append(closers, "</a>")
	}
	if n.HasMark(MarkBold) {
		sb.WriteString("<strong>")
		closers = append(closers, "</strong>")
	}
	if n.HasMark(MarkItalic) {
		sb.WriteString("<em>")
		closers = append(closers, "</em>")
	}
	if n.HasMark(MarkUnderline) {
		sb.WriteString("<u>")
		closers = append(closers, "</u>")
	}

	sb.WriteString(html.EscapeString(n.Text))

	// Закрывающие теги в обратном порядке
	for i := len(closers) - 1; i >= 0; i-- {
		sb.WriteString(closers[i])
	}
}
