// Выверка привязок файлов к материалам.
//
// Основные возможности:
//   - Сбор идентификаторов файлов из богатых полей, виджетов и обложки
//   - Идемпотентная сверка привязок с хранимыми строками
//   - Массовая замена ссылок при копировании материала
package attachments

import (
	"strings"

	"github.com/aisa-it/polis/internal/polis/dao"
	"github.com/aisa-it/polis/internal/polis/editor/tiptap"
	"github.com/aisa-it/polis/internal/polis/widgets"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// SourceToAttachmentID сводит адрес источника к идентификатору файла:
// берется последний сегмент пути, являющийся корректным UUID.
// Сегменты, не являющиеся UUID, пропускаются.
func SourceToAttachmentID(source string) (uuid.UUID, bool) {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	segments := strings.Split(source, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if id, err := uuid.FromString(segments[i]); err == nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

// Lookup собирает набор файлов, которые материал использует сейчас:
// ссылки из всех богатых полей, прямые привязки настроек виджетов
// и изображение обложки.
func Lookup(entity *dao.Entity) (map[uuid.UUID]struct{}, error) {
	ids := map[uuid.UUID]struct{}{}

	for _, doc := range entity.RichFields() {
		for source := range doc.AttachedSources() {
			if id, ok := SourceToAttachmentID(source); ok {
				ids[id] = struct{}{}
			}
		}
	}

	rows, err := widgets.ParseRows(entity.WidgetRows)
	if err != nil {
		return nil, err
	}
	for id := range widgets.AttachmentIDs(rows) {
		ids[id] = struct{}{}
	}
	for text := range widgets.RichFields(rows) {
		doc := tiptap.ParseString(text)
		for source := range doc.AttachedSources() {
			if id, ok := SourceToAttachmentID(source); ok {
				ids[id] = struct{}{}
			}
		}
	}

	if entity.FeaturedImageId != nil {
		ids[*entity.FeaturedImageId] = struct{}{}
	}
	return ids, nil
}

// Reconcile сверяет найденные в содержимом файлы со строками привязок.
// Новые ссылки получают строки, исчезнувшие строки удаляются. Ссылка
// на уже удаленный файл молча пропускается. Повторный вызов без
// изменения содержимого не производит побочных эффектов.
// Вызывающий оборачивает вызов в транзакцию.
func Reconcile(tx *gorm.DB, entity *dao.Entity) error {
	wanted, err := Lookup(entity)
	if err != nil {
		return err
	}

	var stored []dao.Attachment
	if err := tx.Where("entity_id = ?", entity.ID).Find(&stored).Error; err != nil {
		return err
	}

	storedSet := make(map[uuid.UUID]struct{}, len(stored))
	for _, att := range stored {
		storedSet[att.AssetId] = struct{}{}
	}

	for id := range wanted {
		if _, ok := storedSet[id]; ok {
			continue
		}
		var count int64
		if err := tx.Model(&dao.FileAsset{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			continue
		}
		att := dao.Attachment{Id: dao.GenID(), AssetId: id, EntityId: entity.ID}
		if err := tx.Create(&att).Error; err != nil {
			return err
		}
	}

	for _, att := range stored {
		if _, ok := wanted[att.AssetId]; ok {
			continue
		}
		if err := tx.Delete(&dao.Attachment{}, "id = ?", att.Id).Error; err != nil {
			return err
		}
	}
	return nil
}

// ReplaceAll заменяет ссылки на файлы во всех богатых полях материала
// и в дереве виджетов по карте старый→новый. Каждое поле разбирается
// один раз, все замены применяются к разобранному дереву, после чего
// поле сериализуется обратно.
func ReplaceAll(entity *dao.Entity, idMap map[uuid.UUID]uuid.UUID) error {
	if len(idMap) == 0 {
		return nil
	}

	for _, doc := range entity.RichFields() {
		for oldID, newID := range idMap {
			doc.ReplaceAttachmentReference(oldID.String(), newID.String())
		}
	}

	rows, err := widgets.ParseRows(entity.WidgetRows)
	if err != nil {
		return err
	}
	if rows == nil {
		return nil
	}
	widgets.MapRichFields(rows, func(text string) string {
		doc := tiptap.ParseString(text)
		if !doc.IsStructured() {
			return text
		}
		for oldID, newID := range idMap {
			doc.ReplaceAttachmentReference(oldID.String(), newID.String())
		}
		return doc.String()
	})
	for s := range widgets.Settings(rows) {
		if s.AttachmentID == "" {
			continue
		}
		if oldID, err := uuid.FromString(s.AttachmentID); err == nil {
			if newID, ok := idMap[oldID]; ok {
				s.AttachmentID = newID.String()
			}
		}
	}
	raw, err := widgets.SerializeRows(rows)
	if err != nil {
		return err
	}
	entity.WidgetRows = raw

	if entity.FeaturedImageId != nil {
		if newID, ok := idMap[*entity.FeaturedImageId]; ok {
			id := newID
			entity.FeaturedImageId = &id
		}
	}
	return nil
}
