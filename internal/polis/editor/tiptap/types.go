// Пакет tiptap реализует структурированную модель rich-text документов.
// Документ хранится как дерево нод; значение, не являющееся структурированным
// документом, сохраняется как непрозрачный текст и проходит через все операции
// без изменений.
package tiptap

// Типы нод структурированного документа.
const (
	TypeDoc         = "doc"
	TypeParagraph   = "paragraph"
	TypeHeading     = "heading"
	TypeText        = "text"
	TypeMention     = "mention"
	TypeImage       = "image"
	TypeFigure      = "figure"
	TypeFile        = "file"
	TypeVideo       = "video"
	TypeHardBreak   = "hardBreak"
	TypeBulletList  = "bulletList"
	TypeOrderedList = "orderedList"
	TypeListItem    = "listItem"
	TypeTable       = "table"
	TypeTableHeader = "tableHeader"
	TypeTableRow    = "tableRow"
	TypeTableCell   = "tableCell"
	TypeBlockquote  = "blockquote"
)

// Типы marks (inline-форматирование).
const (
	MarkBold      = "bold"
	MarkItalic    = "italic"
	MarkUnderline = "underline"
	MarkLink      = "link"
)

// Mark представляет форматирование текста (bold, italic, link и т.д.).
type Mark struct {
	Type  string                 `json:"type"`
	Attrs map[string]interface{} `json:"attrs,omitempty"`
}

// Node представляет узел в дереве документа.
// Используется универсальная структура с map для атрибутов для поддержки различных типов нод.
type Node struct {
	Type    string                 `json:"type"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
	Content []*Node                `json:"content,omitempty"`
	Marks   []Mark                 `json:"marks,omitempty"`
	Text    string                 `json:"text,omitempty"`
}

// AttrString безопасно извлекает строковый атрибут ноды.
func (n *Node) AttrString(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	val, ok := n.Attrs[key]
	if !ok {
		return ""
	}
	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// AttrInt безопасно извлекает целочисленный атрибут ноды.
func (n *Node) AttrInt(key string) int {
	if n == nil || n.Attrs == nil {
		return 0
	}
	val, ok := n.Attrs[key]
	if !ok {
		return 0
	}

	// Может быть float64 из JSON
	if f, ok := val.(float64); ok {
		return int(f)
	}

	if i, ok := val.(int); ok {
		return i
	}

	return 0
}

// AttrBool безопасно извлекает булевый атрибут ноды.
func (n *Node) AttrBool(key string) bool {
	if n == nil || n.Attrs == nil {
		return false
	}
	val, ok := n.Attrs[key]
	if !ok {
		return false
	}
	b, ok := val.(bool)
	if !ok {
		return false
	}
	return b
}

// SetAttr устанавливает атрибут ноды, создавая map при необходимости.
func (n *Node) SetAttr(key string, value interface{}) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]interface{})
	}
	n.Attrs[key] = value
}

// HasMark возвращает true, если нода несет mark указанного типа.
func (n *Node) HasMark(markType string) bool {
	for _, m := range n.Marks {
		if m.Type == markType {
			return true
		}
	}
	return false
}

// FindMark возвращает первый mark указанного типа или nil.
func (n *Node) FindMark(markType string) *Mark {
	for i := range n.Marks {
		if n.Marks[i].Type == markType {
			return &n.Marks[i]
		}
	}
	return nil
}
