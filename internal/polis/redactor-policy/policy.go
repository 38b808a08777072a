// Определяет политики безопасности для HTML, порождаемого из структурированных документов. Политики применяются к результату экспорта и к пользовательскому HTML, чтобы предотвратить XSS и другие уязвимости.
//
// Основные возможности:
//   - Разрешение атрибутов только для тех элементов, которые порождает экспорт документов.
//   - Ограничение допустимых значений атрибутов с помощью регулярных выражений.
//   - Использование pre-определенных политик (StrictPolicy, UGCPolicy) для остального контента.
package policy

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()
var UgcPolicy *bluemonday.Policy = bluemonday.UGCPolicy()

// ExportPolicy применяется к HTML, порождаемому рендерером документов.
var ExportPolicy *bluemonday.Policy

func init() {
	ExportPolicy = bluemonday.NewPolicy()

	ExportPolicy.AllowElements("p", "br", "blockquote", "ul", "ol", "li",
		"strong", "em", "u", "figure", "figcaption",
		"h2", "h3", "h4", "h5",
		"table", "thead", "tbody", "tr", "th", "td")

	ExportPolicy.AllowAttrs("href", "title").OnElements("a")
	ExportPolicy.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	ExportPolicy.RequireNoFollowOnLinks(false)
	ExportPolicy.AllowRelativeURLs(true)
	ExportPolicy.AllowURLSchemes("http", "https", "mailto")

	ExportPolicy.AllowAttrs("src", "alt", "title").OnElements("img")

	ExportPolicy.AllowAttrs("class").Matching(regexp.MustCompile(`^mention$`)).OnElements("span")
	ExportPolicy.AllowAttrs("data-id", "data-label").OnElements("span")

	ExportPolicy.AllowAttrs("colspan", "rowspan").Matching(regexp.MustCompile(`^\d+$`)).OnElements("th", "td")
}

// Sanitize прогоняет HTML экспорта через политику ExportPolicy.
func Sanitize(html string) string {
	return ExportPolicy.Sanitize(html)
}
