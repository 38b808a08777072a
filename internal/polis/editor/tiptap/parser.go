package tiptap

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Document - носитель одного rich-text значения. Структурированные документы
// хранятся как дерево нод с корнем типа "doc"; все прочие значения (пустые,
// некорректный JSON, JSON другой формы) сохраняются как есть и возвращаются
// без изменений при сериализации.
type Document struct {
	root *Node
	raw  string
}

// Parse разбирает сериализованное значение в Document.
// Никогда не возвращает ошибку: значение, не являющееся структурированным
// документом, сохраняется как непрозрачный текст.
func Parse(data []byte) *Document {
	doc := &Document{raw: string(data)}

	if len(data) == 0 || strings.TrimSpace(doc.raw) == "" {
		doc.raw = ""
		return doc
	}

	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return doc
	}

	if root.Type != TypeDoc {
		return doc
	}

	doc.root = &root
	return doc
}

// ParseString разбирает строковое значение в Document.
func ParseString(raw string) *Document {
	return Parse([]byte(raw))
}

// FromNode оборачивает готовое дерево в Document. Корень обязан иметь тип "doc",
// иначе значение считается неструктурированным.
func FromNode(root *Node) *Document {
	if root == nil || root.Type != TypeDoc {
		return &Document{}
	}
	return &Document{root: root}
}

// IsStructured возвращает true, если значение является структурированным документом.
func (d *Document) IsStructured() bool {
	return d != nil && d.root != nil
}

// Root возвращает корневую ноду документа или nil для неструктурированных значений.
func (d *Document) Root() *Node {
	if d == nil {
		return nil
	}
	return d.root
}

// String сериализует документ в каноническую JSON-форму.
// Неструктурированные значения возвращаются без изменений.
func (d *Document) String() string {
	if d == nil {
		return ""
	}
	if d.root == nil {
		return d.raw
	}
	b, err := json.Marshal(d.root)
	if err != nil {
		return d.raw
	}
	return string(b)
}

func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil || (d.root == nil && d.raw == "") {
		return []byte("null"), nil
	}
	if d.root == nil {
		// Непрозрачный текст сериализуется как JSON-строка,
		// если сам не является корректным JSON.
		if json.Valid([]byte(d.raw)) {
			return []byte(d.raw), nil
		}
		return json.Marshal(d.raw)
	}
	return json.Marshal(d.root)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	*d = *Parse(data)

	// JSON-строка с вложенным значением: разворачиваем один уровень.
	if d.root == nil {
		var inner string
		if err := json.Unmarshal(data, &inner); err == nil {
			*d = *ParseString(inner)
		}
	}
	return nil
}

// Value реализует интерфейс driver.Valuer для сохранения Document в JSONB-колонку.
func (d Document) Value() (driver.Value, error) {
	if d.root == nil && d.raw == "" {
		return nil, nil
	}
	return d.String(), nil
}

// Scan реализует интерфейс sql.Scanner для чтения Document из JSONB-колонки.
func (d *Document) Scan(value interface{}) error {
	if value == nil {
		*d = Document{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*d = *Parse(v)
	case string:
		*d = *ParseString(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}
	return nil
}

// GormDataType указывает GORM использовать тип JSONB для колонок документов.
func (Document) GormDataType() string {
	return "jsonb"
}
