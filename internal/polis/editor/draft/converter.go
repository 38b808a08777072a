package draft

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/aisa-it/polis/internal/polis/editor/tiptap"
)

// Convert переводит значение устаревшего формата в каноническую JSON-форму
// структурированного документа. Значение, не распознанное как документ
// устаревшего формата, возвращается без изменений. Конвертация best-effort:
// нераспознанные блоки логируются и выбрасываются.
func Convert(raw string) string {
	if !IsDraft(raw) {
		return raw
	}

	var legacy LegacyDocument
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		return raw
	}

	return ConvertDocument(&legacy).String()
}

// ConvertDocument конвертирует разобранный устаревший документ в структурированный.
func ConvertDocument(legacy *LegacyDocument) *tiptap.Document {
	c := &converter{doc: legacy}
	for _, block := range legacy.Blocks {
		c.convertBlock(block)
	}
	return tiptap.FromNode(&tiptap.Node{
		Type:    tiptap.TypeDoc,
		Content: c.content,
	})
}

type converter struct {
	doc     *LegacyDocument
	content []*tiptap.Node

	// Последний unstyled-параграф: следующий unstyled-блок продолжает его
	// через hardBreak, сохраняя семантику мягкого переноса строки.
	lastUnstyled *tiptap.Node
}

func (c *converter) append(nodes ...*tiptap.Node) {
	c.content = append(c.content, nodes...)
}

func (c *converter) convertBlock(block Block) {
	if block.Type != "unstyled" {
		c.lastUnstyled = nil
	}

	switch block.Type {
	case "header-one", "header-two":
		c.appendHeading(block, 2)
	case "header-three":
		c.appendHeading(block, 3)
	case "header-four":
		c.appendHeading(block, 4)
	case "header-five", "header-six":
		c.appendHeading(block, 5)
	case "paragraph", "section", "article", "code-block":
		c.appendParagraph(block, nil)
	case "intro":
		c.appendParagraph(block, map[string]interface{}{"intro": true})
	case "blockquote":
		c.appendBlockquote(block)
	case "unordered-list-item":
		c.appendListItem(block, tiptap.TypeBulletList)
	case "ordered-list-item":
		c.appendListItem(block, tiptap.TypeOrderedList)
	case "atomic":
		c.appendAtomic(block)
	case "unstyled":
		c.appendUnstyled(block)
	default:
		slog.Warn("Unknown draft block type, dropped", "type", block.Type)
	}
}

func (c *converter) appendHeading(block Block, level int) {
	content, extracted := c.inlineContent(block)
	c.append(&tiptap.Node{
		Type:    tiptap.TypeHeading,
		Attrs:   map[string]interface{}{"level": level},
		Content: content,
	})
	c.append(extracted...)
}

func (c *converter) appendParagraph(block Block, attrs map[string]interface{}) {
	content, extracted := c.inlineContent(block)
	c.append(&tiptap.Node{
		Type:    tiptap.TypeParagraph,
		Attrs:   attrs,
		Content: content,
	})
	c.append(extracted...)
}

func (c *converter) appendBlockquote(block Block) {
	content, extracted := c.inlineContent(block)
	c.append(&tiptap.Node{
		Type: tiptap.TypeBlockquote,
		Content: []*tiptap.Node{{
			Type:    tiptap.TypeParagraph,
			Content: content,
		}},
	})
	c.append(extracted...)
}

// appendUnstyled продолжает предыдущий unstyled-параграф через hardBreak или
// открывает новый параграф с attrs.unstyled. Пустой блок завершает цепочку.
func (c *converter) appendUnstyled(block Block) {
	if strings.TrimSpace(block.Text) == "" && len(block.EntityRanges) == 0 {
		c.lastUnstyled = nil
		return
	}

	content, extracted := c.inlineContent(block)

	if c.lastUnstyled != nil {
		c.lastUnstyled.Content = append(c.lastUnstyled.Content, &tiptap.Node{Type: tiptap.TypeHardBreak})
		c.lastUnstyled.Content = append(c.lastUnstyled.Content, content...)
	} else {
		p := &tiptap.Node{
			Type:    tiptap.TypeParagraph,
			Attrs:   map[string]interface{}{"unstyled": true},
			Content: content,
		}
		c.append(p)
		c.lastUnstyled = p
	}
	c.append(extracted...)
}

// appendListItem накапливает элементы в текущий список того же типа.
// Поддерживается один уровень вложенности по block.Depth.
func (c *converter) appendListItem(block Block, listType string) {
	content, extracted := c.inlineContent(block)

	item := &tiptap.Node{
		Type: tiptap.TypeListItem,
		Content: []*tiptap.Node{{
			Type:    tiptap.TypeParagraph,
			Content: content,
		}},
	}
	item.Content = append(item.Content, extracted...)

	var list *tiptap.Node
	if len(c.content) > 0 && c.content[len(c.content)-1].Type == listType {
		list = c.content[len(c.content)-1]
	}

	if list == nil {
		list = &tiptap.Node{Type: listType}
		c.append(list)
	}

	if block.Depth > 0 && len(list.Content) > 0 {
		// Вложение в последний дочерний список последнего элемента.
		parent := list.Content[len(list.Content)-1]
		var nested *tiptap.Node
		if len(parent.Content) > 0 && parent.Content[len(parent.Content)-1].Type == listType {
			nested = parent.Content[len(parent.Content)-1]
		} else {
			nested = &tiptap.Node{Type: listType}
			parent.Content = append(parent.Content, nested)
		}
		nested.Content = append(nested.Content, item)
		return
	}

	list.Content = append(list.Content, item)
}

// appendAtomic обрабатывает atomic-блок, несущий не более одной сущности.
func (c *converter) appendAtomic(block Block) {
	if len(block.EntityRanges) == 0 {
		return
	}
	ent := c.doc.entity(block.EntityRanges[0].Key)
	if ent == nil {
		return
	}

	switch ent.Type {
	case entityImage:
		c.append(&tiptap.Node{
			Type: tiptap.TypeImage,
			Attrs: map[string]interface{}{
				"src":     dataString(ent.Data, "src", "url"),
				"alt":     dataString(ent.Data, "alt"),
				"title":   dataString(ent.Data, "title"),
				"size":    dataString(ent.Data, "size"),
				"caption": c.captionHTML(dataString(ent.Data, "caption")),
			},
		})
	case entityVideo:
		c.append(&tiptap.Node{
			Type: tiptap.TypeVideo,
			Attrs: map[string]interface{}{
				"guid":     dataString(ent.Data, "guid"),
				"platform": dataString(ent.Data, "platform", "url", "src"),
				"title":    dataString(ent.Data, "title"),
			},
		})
	default:
		slog.Warn("Unknown atomic entity type, dropped", "type", ent.Type)
	}
}

// captionHTML прогоняет подпись изображения через тот же путь конвертации:
// подписи исторически хранились в том же устаревшем формате.
func (c *converter) captionHTML(caption string) string {
	if caption == "" || !IsDraft(caption) {
		return caption
	}
	return tiptap.HTML(tiptap.ParseString(Convert(caption)))
}

// charFormat - набор форматирования одного символа. Граница текстовой ноды
// проходит ровно там, где меняется набор.
type charFormat struct {
	Bold      bool
	Italic    bool
	Underline bool

	HasLink    bool
	Href       string
	LinkTitle  string
	LinkTarget string
}

func (f charFormat) marks() []tiptap.Mark {
	var marks []tiptap.Mark
	if f.Bold {
		marks = append(marks, tiptap.Mark{Type: tiptap.MarkBold})
	}
	if f.Italic {
		marks = append(marks, tiptap.Mark{Type: tiptap.MarkItalic})
	}
	if f.Underline {
		marks = append(marks, tiptap.Mark{Type: tiptap.MarkUnderline})
	}
	if f.HasLink {
		attrs := map[string]interface{}{"href": f.Href}
		if f.LinkTitle != "" {
			attrs["title"] = f.LinkTitle
		}
		if f.LinkTarget != "" {
			attrs["target"] = f.LinkTarget
		}
		marks = append(marks, tiptap.Mark{Type: tiptap.MarkLink, Attrs: attrs})
	}
	return marks
}

// inlineContent вычисляет посимвольное форматирование блока и склеивает
// соседние символы с одинаковым набором marks в минимальные текстовые ноды.
// DOCUMENT-сущности извлекаются из текстового потока в отдельные file-ноды.
func (c *converter) inlineContent(block Block) (content []*tiptap.Node, extracted []*tiptap.Node) {
	runes := []rune(block.Text)
	formats := make([]charFormat, len(runes))
	excluded := make([]bool, len(runes))

	mark := func(r InlineStyleRange, apply func(f *charFormat)) {
		for i := r.Offset; i < r.Offset+r.Length && i < len(runes); i++ {
			if i < 0 {
				continue
			}
			apply(&formats[i])
		}
	}

	for _, r := range block.InlineStyleRanges {
		switch r.Style {
		case styleBold:
			mark(r, func(f *charFormat) { f.Bold = true })
		case styleItalic:
			mark(r, func(f *charFormat) { f.Italic = true })
		case styleUnderline:
			mark(r, func(f *charFormat) { f.Underline = true })
		default:
			slog.Debug("Unknown inline style, ignored", "style", r.Style)
		}
	}

	for _, er := range block.EntityRanges {
		ent := c.doc.entity(er.Key)
		if ent == nil {
			continue
		}
		switch ent.Type {
		case entityLink:
			href := dataString(ent.Data, "url", "href")
			title := dataString(ent.Data, "title")
			target := dataString(ent.Data, "target")
			for i := er.Offset; i < er.Offset+er.Length && i < len(runes); i++ {
				if i < 0 {
					continue
				}
				formats[i].HasLink = true
				formats[i].Href = href
				formats[i].LinkTitle = title
				formats[i].LinkTarget = target
			}
		case entityDocument:
			extracted = append(extracted, &tiptap.Node{
				Type: tiptap.TypeFile,
				Attrs: map[string]interface{}{
					"url":      dataString(ent.Data, "url", "href"),
					"name":     dataString(ent.Data, "name", "title"),
					"mimeType": dataString(ent.Data, "mimeType", "mimetype"),
					"size":     dataString(ent.Data, "size"),
				},
			})
			for i := er.Offset; i < er.Offset+er.Length && i < len(runes); i++ {
				if i >= 0 {
					excluded[i] = true
				}
			}
		}
	}

	var current *tiptap.Node
	var currentFormat charFormat
	for i, r := range runes {
		if excluded[i] {
			current = nil
			continue
		}
		if current == nil || formats[i] != currentFormat {
			current = &tiptap.Node{
				Type:  tiptap.TypeText,
				Marks: formats[i].marks(),
			}
			currentFormat = formats[i]
			content = append(content, current)
		}
		current.Text += string(r)
	}

	return content, extracted
}

// dataString возвращает первое непустое строковое значение по списку ключей.
func dataString(data map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := data[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
