// DAO (Data Access Object) - предоставляет интерфейс для взаимодействия с базой данных.  Содержит модели тенантного контента: материалы, группы с участниками, файлы и строки связей материалов с вложениями.  Обеспечивает абстракцию от конкретной реализации базы данных и упрощает доступ к данным приложения.
//
// Основные возможности:
//   - Модели материалов с rich-text полями и правами доступа.
//   - Группы, подгруппы и членство пользователей.
//   - Файлы и связи материалов с вложениями.
//   - Генерация уникальных идентификаторов.
package dao

import (
	"github.com/gofrs/uuid"

	"github.com/aisa-it/polis/internal/polis/config"
	filestorage "github.com/aisa-it/polis/internal/polis/file-storage"
)

// GenID генерирует уникальный идентификатор в формате UUID.
// Не принимает параметров и возвращает строку, представляющую собой UUID.
func GenID() string {
	u2, _ := uuid.NewV4()
	return u2.String()
}

// GenUUID генерирует уникальный идентификатор в формате UUID. Не принимает параметров и возвращает UUID.
func GenUUID() uuid.UUID {
	u2, _ := uuid.NewV4()
	return u2
}

var Config *config.Config
var FileStorage filestorage.FileStorage
