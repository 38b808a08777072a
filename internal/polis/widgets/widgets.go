// Дерево виджетов материала: строки, колонки, виджеты и их настройки.
//
// Основные возможности:
//   - Разбор и каноническая сериализация дерева виджетов
//   - Обход богатых текстовых полей настроек
//   - Явная двухфазная материализация встроенных загрузок файлов
package widgets

import (
	"encoding/json"
	"iter"

	"github.com/aisa-it/polis/internal/polis/apierrors"
	"github.com/gofrs/uuid"
)

// Ключ настройки, значение которой считается богатым текстом
// даже без отдельного поля richDescription.
const KeyRichDescription = "richDescription"

// InlineUpload - встроенная в полезную нагрузку загрузка файла.
// Присутствует только во входящих данных, в каноническую
// сериализацию не попадает.
type InlineUpload struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

type Setting struct {
	Key             string `json:"key"`
	Value           string `json:"value"`
	RichDescription string `json:"richDescription"`
	AttachmentID    string `json:"attachmentId"`

	Attachment *InlineUpload `json:"attachment,omitempty"`
}

// EffectiveRichField возвращает действующее богатое поле настройки:
// richDescription, если заполнено, иначе value для настроек с ключом
// richDescription. Второй результат ложен, если богатого поля нет.
func (s *Setting) EffectiveRichField() (string, bool) {
	if s.RichDescription != "" {
		return s.RichDescription, true
	}
	if s.Key == KeyRichDescription {
		return s.Value, true
	}
	return "", false
}

func (s *Setting) setEffectiveRichField(text string) {
	if s.RichDescription != "" {
		s.RichDescription = text
		return
	}
	if s.Key == KeyRichDescription {
		s.Value = text
	}
}

type Widget struct {
	Type     string     `json:"type"`
	Settings []*Setting `json:"settings"`
}

type Column struct {
	Widgets []*Widget `json:"widgets"`
}

type Row struct {
	Columns []*Column `json:"columns"`
}

// ParseRows разбирает сериализованное дерево виджетов. Пустая строка
// дает пустое дерево.
func ParseRows(raw string) ([]*Row, error) {
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var rows []*Row
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, apierrors.ErrBadWidgetPayload
	}
	return rows, nil
}

// SerializeRows выдает каноническую сериализацию дерева. Встроенные
// загрузки к этому моменту должны быть материализованы.
func SerializeRows(rows []*Row) (string, error) {
	if rows == nil {
		return "[]", nil
	}
	for s := range Settings(rows) {
		s.Attachment = nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Settings обходит все настройки дерева в глубину:
// строки, внутри них колонки, виджеты и настройки по порядку.
func Settings(rows []*Row) iter.Seq[*Setting] {
	return func(yield func(*Setting) bool) {
		for _, row := range rows {
			for _, col := range row.Columns {
				for _, widget := range col.Widgets {
					for _, setting := range widget.Settings {
						if !yield(setting) {
							return
						}
					}
				}
			}
		}
	}
}

// RichFields возвращает ленивую последовательность действующих богатых
// полей всех настроек дерева в порядке обхода в глубину.
func RichFields(rows []*Row) iter.Seq[string] {
	return func(yield func(string) bool) {
		for s := range Settings(rows) {
			if text, ok := s.EffectiveRichField(); ok {
				if !yield(text) {
					return
				}
			}
		}
	}
}

// MapRichFields применяет преобразование к каждому богатому полю
// дерева на месте. Возвращает число измененных полей.
func MapRichFields(rows []*Row, transform func(string) string) int {
	changed := 0
	for s := range Settings(rows) {
		text, ok := s.EffectiveRichField()
		if !ok {
			continue
		}
		if next := transform(text); next != text {
			s.setEffectiveRichField(next)
			changed++
		}
	}
	return changed
}

// AttachmentIDs возвращает набор идентификаторов файлов, на которые
// ссылаются настройки дерева напрямую через attachmentId.
func AttachmentIDs(rows []*Row) map[uuid.UUID]struct{} {
	ids := map[uuid.UUID]struct{}{}
	for s := range Settings(rows) {
		if s.AttachmentID == "" {
			continue
		}
		if id, err := uuid.FromString(s.AttachmentID); err == nil {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// AttachmentCreator сохраняет встроенную загрузку как файл платформы.
// Реализация обязана проверить файл антивирусом до создания записи.
type AttachmentCreator interface {
	Create(upload *InlineUpload, ownerID string) (uuid.UUID, error)
}

// ResolveAttachments материализует все встроенные загрузки дерева.
// Выполняется один раз до сериализации, после чего SerializeRows
// остается чистой функцией. Первая же ошибка прерывает запись целиком.
func ResolveAttachments(rows []*Row, creator AttachmentCreator, ownerID string) error {
	for s := range Settings(rows) {
		if s.AttachmentID != "" || s.Attachment == nil {
			continue
		}
		id, err := creator.Create(s.Attachment, ownerID)
		if err != nil {
			return err
		}
		s.AttachmentID = id.String()
		s.Attachment = nil
	}
	return nil
}
