package dao

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	Email     string    `json:"email" gorm:"uniqueIndex"`
	Name      string    `json:"name"`

	// Администратор тенанта: любые проверки доступа проходят.
	IsAdmin bool `json:"is_admin" gorm:"default:false"`
}

// Возвращает имя таблицы для данного типа структуры.
func (User) TableName() string { return "users" }

// GetUser возвращает пользователя по идентификатору.
func GetUser(tx *gorm.DB, id string) (*User, error) {
	var user User
	if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
