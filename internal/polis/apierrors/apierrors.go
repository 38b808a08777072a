// Пакет содержит определения ошибок, используемых в приложении polis для обработки различных ситуаций, возникающих при работе с контентом, вложениями и правами доступа. Каждая ошибка имеет код, статус HTTP и описание, что позволяет удобно обрабатывать исключения и предоставлять информативные сообщения пользователю.
//
// Основные возможности:
//   - Определение типов ошибок, связанных с контентом, виджетами, вложениями и доступом.
//   - Предоставление кодов ошибок, соответствующих кодам HTTP статусов.
//   - Включение сообщений об ошибках на двух языках для удобного отображения пользователю.
//   - Функция для форматирования сообщений об ошибках с использованием аргументов.
package apierrors

import (
	"fmt"
	"net/http"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

// WithFormattedMessage возвращает копию ошибки с отформатированными сообщениями.
// Используется для ошибок, текст которых содержит плейсхолдеры.
func (e DefinedError) WithFormattedMessage(a ...interface{}) DefinedError {
	e.Err = fmt.Sprintf(e.Err, a...)
	e.RuErr = fmt.Sprintf(e.RuErr, a...)
	return e
}

var (
	// 1*** - content errors
	ErrEntityNotFound         = DefinedError{Code: 1001, StatusCode: http.StatusNotFound, Err: "entity not found", RuErr: "Материал не найден"}
	ErrEntityForbidden        = DefinedError{Code: 1002, StatusCode: http.StatusForbidden, Err: "not enough rights", RuErr: "У вас недостаточно прав для выполнения этого действия"}
	ErrExternalAttachmentURL  = DefinedError{Code: 1003, StatusCode: http.StatusBadRequest, Err: "document references an externally hosted attachment", RuErr: "Документ ссылается на вложение, размещенное на стороннем ресурсе"}
	ErrEntityGroupRequired    = DefinedError{Code: 1004, StatusCode: http.StatusInternalServerError, Err: "group access requested for an entity without group", RuErr: "Запрошен групповой доступ для материала без группы"}
	ErrBadAccessLevel         = DefinedError{Code: 1005, StatusCode: http.StatusBadRequest, Err: "unknown access level %d", RuErr: "Неизвестный уровень доступа %d"}
	ErrBadWidgetPayload       = DefinedError{Code: 1006, StatusCode: http.StatusBadRequest, Err: "malformed widget payload", RuErr: "Некорректное описание виджетов"}
	ErrGroupNotFound          = DefinedError{Code: 1007, StatusCode: http.StatusNotFound, Err: "group not found", RuErr: "Группа не найдена"}
	ErrGroupForbidden         = DefinedError{Code: 1008, StatusCode: http.StatusForbidden, Err: "group management is not allowed", RuErr: "У вас недостаточно прав для управления группой"}

	// 2*** - file errors
	ErrFileNotClean      = DefinedError{Code: 2001, StatusCode: http.StatusBadRequest, Err: "file is not clean", RuErr: "Файл не прошел антивирусную проверку"}
	ErrAttachmentTooBig  = DefinedError{Code: 2002, StatusCode: http.StatusRequestEntityTooLarge, Err: "attachment exceeds %d bytes limit", RuErr: "Размер вложения превышает %d байт"}
	ErrAssetNotFound     = DefinedError{Code: 2003, StatusCode: http.StatusNotFound, Err: "file asset not found", RuErr: "Файл не найден"}

	// 5*** - generic
	ErrGeneric = DefinedError{Code: 5000, StatusCode: http.StatusInternalServerError, Err: "internal error", RuErr: "Внутренняя ошибка"}
)
