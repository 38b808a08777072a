// Пакет draft реализует одноразовый конвертер устаревшего блочного rich-text
// формата в структурированные документы. Формат существует только как
// историческое наследие: он читается, конвертируется и никогда не создается
// заново.
package draft

import (
	"encoding/json"
)

// Стили inline-диапазонов устаревшего формата.
const (
	styleBold      = "BOLD"
	styleItalic    = "ITALIC"
	styleUnderline = "UNDERLINE"
)

// Типы сущностей entityMap.
const (
	entityLink     = "LINK"
	entityDocument = "DOCUMENT"
	entityImage    = "IMAGE"
	entityVideo    = "VIDEO"
)

type InlineStyleRange struct {
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Style  string `json:"style"`
}

type EntityRange struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
	Key    int `json:"key"`
}

type Block struct {
	Key               string                 `json:"key"`
	Type              string                 `json:"type"`
	Text              string                 `json:"text"`
	Depth             int                    `json:"depth"`
	InlineStyleRanges []InlineStyleRange     `json:"inlineStyleRanges"`
	EntityRanges      []EntityRange          `json:"entityRanges"`
	Data              map[string]interface{} `json:"data,omitempty"`
}

type Entity struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

type LegacyDocument struct {
	Blocks    []Block           `json:"blocks"`
	EntityMap map[string]Entity `json:"entityMap"`
}

// entity возвращает сущность по ключу диапазона или nil.
func (d *LegacyDocument) entity(key int) *Entity {
	e, ok := d.EntityMap[jsonKey(key)]
	if !ok {
		return nil
	}
	return &e
}

func jsonKey(key int) string {
	b, _ := json.Marshal(key)
	return string(b)
}

// IsDraft возвращает true, если значение распознается как документ
// устаревшего формата: корректный JSON-объект со списковым ключом blocks.
func IsDraft(raw string) bool {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return false
	}
	_, ok := m["blocks"].([]interface{})
	return ok
}
