package polis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInlineDisposition(t *testing.T) {
	assert.Equal(t, "inline", inlineDisposition(""))
	assert.Equal(t, "inline; filename=report.pdf", inlineDisposition("report.pdf"))
	assert.Equal(t, `inline; filename="annual report.pdf"`, inlineDisposition("annual report.pdf"))

	// Не-ASCII имя уходит в расширенный синтаксис параметра.
	assert.Contains(t, inlineDisposition("отчет.pdf"), "filename*=utf-8''")

	// Кавычки и переводы строк в имени не должны попадать в заголовок
	// в сыром виде.
	quoted := inlineDisposition(`re"port.pdf`)
	assert.NotContains(t, quoted, `re"port`)

	crlf := inlineDisposition("evil\r\nSet-Cookie: x=1")
	assert.NotContains(t, crlf, "\r")
	assert.NotContains(t, crlf, "\n")
}
