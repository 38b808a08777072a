package dao

import (
	"log/slog"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// FileAsset - загруженный файл. Строка отвечает за физический объект
// в хранилище: удаление строки удаляет и объект.
type FileAsset struct {
	Id        uuid.UUID `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CreatedById *string `json:"created_by_id" gorm:"index" extensions:"x-nullable"`
	CreatedBy   *User   `json:"-" gorm:"foreignKey:CreatedById" extensions:"x-nullable"`

	Name        string `json:"name"`
	FileSize    int    `json:"size"`
	ContentType string `json:"content_type"`
}

// Возвращает имя таблицы для данного типа структуры.
func (FileAsset) TableName() string { return "file_assets" }

// BeforeDelete удаляет объект из файлового хранилища перед удалением строки.
// Отсутствие объекта не считается ошибкой.
func (fa *FileAsset) BeforeDelete(tx *gorm.DB) error {
	if FileStorage == nil {
		return nil
	}
	if err := FileStorage.Delete(fa.Id); err != nil {
		slog.Error("Delete file asset from storage", "assetId", fa.Id, "err", err)
	}
	return nil
}

// CanBeDeleted сообщает, можно ли удалить файл: на него не должна
// ссылаться ни одна привязка вложения и ни одно избранное изображение.
func (fa *FileAsset) CanBeDeleted(tx *gorm.DB) (bool, error) {
	var referenced bool
	err := tx.Raw(`SELECT EXISTS(SELECT 1 FROM attachments WHERE asset_id = @id)
    OR EXISTS(SELECT 1 FROM entities WHERE featured_image_id = @id)`,
		map[string]interface{}{"id": fa.Id}).Scan(&referenced).Error
	return !referenced, err
}

// Attachment - привязка файла к материалу. Появляется и исчезает
// только через выверку ссылок из богатых полей и виджетов.
type Attachment struct {
	Id        string    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	AssetId uuid.UUID  `json:"asset_id" gorm:"index:attachments_unique,unique"`
	Asset   *FileAsset `json:"asset" gorm:"foreignKey:AssetId" extensions:"x-nullable"`

	EntityId string  `json:"entity_id" gorm:"index:attachments_unique,unique"`
	Entity   *Entity `json:"-" gorm:"foreignKey:EntityId" extensions:"x-nullable"`
}

// Возвращает имя таблицы для данного типа структуры.
func (Attachment) TableName() string { return "attachments" }

// GetFileAsset получает файл по идентификатору.
func GetFileAsset(tx *gorm.DB, id uuid.UUID) (*FileAsset, error) {
	var asset FileAsset
	if err := tx.Where("id = ?", id).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}
