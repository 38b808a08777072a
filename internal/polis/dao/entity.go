package dao

import (
	"time"

	"github.com/aisa-it/polis/internal/polis/editor/tiptap"
	"github.com/gofrs/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Entity - материал платформы: статья, страница сообщества или профиля.
// Богатые поля хранятся в формате структурированного документа (jsonb),
// список виджетов - сериализованным JSON в WidgetRows.
type Entity struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Type  string `json:"type" gorm:"index"`
	Title string `json:"title"`

	RichDescription tiptap.Document `json:"rich_description" gorm:"type:jsonb"`
	Introduction    tiptap.Document `json:"introduction" gorm:"type:jsonb"`
	WelcomeMessage  tiptap.Document `json:"welcome_message" gorm:"type:jsonb"`

	WidgetRows string `json:"-" gorm:"type:jsonb;default:'[]'"`

	FeaturedImageId *uuid.UUID `json:"featured_image_id" gorm:"index" extensions:"x-nullable"`

	OwnerId string  `json:"owner_id" gorm:"index"`
	Owner   *User   `json:"-" gorm:"foreignKey:OwnerId" extensions:"x-nullable"`
	GroupId *string `json:"group_id" gorm:"index" extensions:"x-nullable"`
	Group   *Group  `json:"-" gorm:"foreignKey:GroupId" extensions:"x-nullable"`

	ReadAccess  pq.StringArray `json:"read_access" gorm:"type:text[]"`
	WriteAccess pq.StringArray `json:"write_access" gorm:"type:text[]"`
}

// Возвращает имя таблицы для данного типа структуры.
func (Entity) TableName() string { return "entities" }

// RichFields возвращает все богатые поля материала для обхода
// упоминаний и вложений. Порядок стабилен.
func (e *Entity) RichFields() []*tiptap.Document {
	return []*tiptap.Document{&e.RichDescription, &e.Introduction, &e.WelcomeMessage}
}

// GetEntity получает материал по идентификатору вместе с группой.
func GetEntity(tx *gorm.DB, id string) (*Entity, error) {
	var entity Entity
	if err := tx.Preload("Group").Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}
