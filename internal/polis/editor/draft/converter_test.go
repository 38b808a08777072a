package draft

import (
	"testing"

	"github.com/aisa-it/polis/internal/polis/editor/tiptap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDraft(t *testing.T) {
	assert.True(t, IsDraft(`{"blocks":[],"entityMap":{}}`))
	assert.False(t, IsDraft(`{"type":"doc","content":[]}`))
	assert.False(t, IsDraft("просто текст"))
	assert.False(t, IsDraft(""))
	assert.False(t, IsDraft(`{"blocks":"не массив"}`))
}

func TestConvertPassThrough(t *testing.T) {
	for _, raw := range []string{
		`{"type":"doc","content":[]}`,
		"просто текст",
		"",
	} {
		assert.Equal(t, raw, Convert(raw))
	}
}

func convert(t *testing.T, legacy *LegacyDocument) *tiptap.Node {
	t.Helper()
	doc := ConvertDocument(legacy)
	require.True(t, doc.IsStructured())
	return doc.Root()
}

func TestConvertMarkRuns(t *testing.T) {
	// "Привет мир": "Привет" жирным, "вет ми" курсивом. Границы текстовых
	// нод проходят ровно там, где меняется набор форматирования.
	root := convert(t, &LegacyDocument{
		Blocks: []Block{{
			Type: "paragraph",
			Text: "Привет мир",
			InlineStyleRanges: []InlineStyleRange{
				{Style: "BOLD", Offset: 0, Length: 6},
				{Style: "ITALIC", Offset: 3, Length: 6},
			},
		}},
	})

	require.Len(t, root.Content, 1)
	p := root.Content[0]
	require.Equal(t, tiptap.TypeParagraph, p.Type)
	require.Len(t, p.Content, 4)

	assert.Equal(t, "При", p.Content[0].Text)
	assert.True(t, p.Content[0].HasMark(tiptap.MarkBold))
	assert.False(t, p.Content[0].HasMark(tiptap.MarkItalic))

	assert.Equal(t, "вет", p.Content[1].Text)
	assert.True(t, p.Content[1].HasMark(tiptap.MarkBold))
	assert.True(t, p.Content[1].HasMark(tiptap.MarkItalic))

	assert.Equal(t, " ми", p.Content[2].Text)
	assert.False(t, p.Content[2].HasMark(tiptap.MarkBold))
	assert.True(t, p.Content[2].HasMark(tiptap.MarkItalic))

	assert.Equal(t, "р", p.Content[3].Text)
	assert.Empty(t, p.Content[3].Marks)
}

func TestConvertLinkEntity(t *testing.T) {
	root := convert(t, &LegacyDocument{
		Blocks: []Block{{
			Type:         "paragraph",
			Text:         "см. документацию",
			EntityRanges: []EntityRange{{Offset: 4, Length: 12, Key: 0}},
		}},
		EntityMap: map[string]Entity{
			"0": {Type: "LINK", Data: map[string]interface{}{
				"url": "https://example.org/docs", "target": "_blank",
			}},
		},
	})

	p := root.Content[0]
	require.Len(t, p.Content, 2)
	link := p.Content[1].FindMark(tiptap.MarkLink)
	require.NotNil(t, link)
	assert.Equal(t, "https://example.org/docs", link.Attrs["href"])
	assert.Equal(t, "_blank", link.Attrs["target"])
}

func TestConvertDocumentEntityExtracted(t *testing.T) {
	// DOCUMENT-сущность вырезается из текстового потока в file-ноду,
	// разрыв прерывает склейку текстовых нод.
	root := convert(t, &LegacyDocument{
		Blocks: []Block{{
			Type:         "paragraph",
			Text:         "до ФАЙЛ после",
			EntityRanges: []EntityRange{{Offset: 3, Length: 4, Key: 0}},
		}},
		EntityMap: map[string]Entity{
			"0": {Type: "DOCUMENT", Data: map[string]interface{}{
				"url": "/attachment/8f14e45f-ceea-467f-a07b-64f58cbcaa11",
				"name": "отчет.pdf", "mimeType": "application/pdf",
			}},
		},
	})

	require.Len(t, root.Content, 2)
	p := root.Content[0]
	require.Len(t, p.Content, 2)
	assert.Equal(t, "до ", p.Content[0].Text)
	assert.Equal(t, " после", p.Content[1].Text)

	file := root.Content[1]
	assert.Equal(t, tiptap.TypeFile, file.Type)
	assert.Equal(t, "отчет.pdf", file.AttrString("name"))
	assert.Equal(t, "/attachment/8f14e45f-ceea-467f-a07b-64f58cbcaa11", file.AttrString("url"))
}

func TestConvertHeadings(t *testing.T) {
	root := convert(t, &LegacyDocument{
		Blocks: []Block{
			{Type: "header-one", Text: "1"},
			{Type: "header-two", Text: "2"},
			{Type: "header-three", Text: "3"},
			{Type: "header-four", Text: "4"},
			{Type: "header-five", Text: "5"},
			{Type: "header-six", Text: "6"},
		},
	})

	levels := make([]int, len(root.Content))
	for i, n := range root.Content {
		require.Equal(t, tiptap.TypeHeading, n.Type)
		levels[i] = n.AttrInt("level")
	}
	// Диапазон уровней сжимается в поддерживаемые 2..5.
	assert.Equal(t, []int{2, 2, 3, 4, 5, 5}, levels)
}

func TestConvertLists(t *testing.T) {
	root := convert(t, &LegacyDocument{
		Blocks: []Block{
			{Type: "unordered-list-item", Text: "первый"},
			{Type: "unordered-list-item", Text: "вложенный", Depth: 1},
			{Type: "unordered-list-item", Text: "второй"},
			{Type: "ordered-list-item", Text: "раз"},
		},
	})

	require.Len(t, root.Content, 2)
	bullet := root.Content[0]
	require.Equal(t, tiptap.TypeBulletList, bullet.Type)
	require.Len(t, bullet.Content, 2)

	// Вложенный элемент уходит в дочерний список первого элемента.
	first := bullet.Content[0]
	nested := first.Content[len(first.Content)-1]
	require.Equal(t, tiptap.TypeBulletList, nested.Type)
	require.Len(t, nested.Content, 1)

	ordered := root.Content[1]
	require.Equal(t, tiptap.TypeOrderedList, ordered.Type)
}

func TestConvertUnstyledJoin(t *testing.T) {
	root := convert(t, &LegacyDocument{
		Blocks: []Block{
			{Type: "unstyled", Text: "первая строка"},
			{Type: "unstyled", Text: "вторая строка"},
			{Type: "unstyled", Text: ""},
			{Type: "unstyled", Text: "новый параграф"},
		},
	})

	// Соседние unstyled-блоки склеиваются через hardBreak,
	// пустой блок начинает новый параграф.
	require.Len(t, root.Content, 2)

	first := root.Content[0]
	require.Equal(t, tiptap.TypeParagraph, first.Type)
	require.True(t, first.AttrBool("unstyled"))
	require.Len(t, first.Content, 3)
	assert.Equal(t, tiptap.TypeHardBreak, first.Content[1].Type)

	second := root.Content[1]
	require.Len(t, second.Content, 1)
	assert.Equal(t, "новый параграф", second.Content[0].Text)
}

func TestConvertUnstyledChainBrokenByOtherBlock(t *testing.T) {
	root := convert(t, &LegacyDocument{
		Blocks: []Block{
			{Type: "unstyled", Text: "строка"},
			{Type: "header-two", Text: "Раздел"},
			{Type: "unstyled", Text: "другая строка"},
		},
	})
	require.Len(t, root.Content, 3)
}

func TestConvertAtomicEntities(t *testing.T) {
	root := convert(t, &LegacyDocument{
		Blocks: []Block{
			{Type: "atomic", Text: " ", EntityRanges: []EntityRange{{Offset: 0, Length: 1, Key: 0}}},
			{Type: "atomic", Text: " ", EntityRanges: []EntityRange{{Offset: 0, Length: 1, Key: 1}}},
			{Type: "atomic", Text: " ", EntityRanges: []EntityRange{{Offset: 0, Length: 1, Key: 2}}},
		},
		EntityMap: map[string]Entity{
			"0": {Type: "IMAGE", Data: map[string]interface{}{
				"src": "/attachment/x", "alt": "схема", "size": "large",
			}},
			"1": {Type: "VIDEO", Data: map[string]interface{}{
				"guid": "abc", "platform": "rutube", "title": "Запись",
			}},
			"2": {Type: "UNKNOWN_WIDGET", Data: map[string]interface{}{}},
		},
	})

	// Неизвестная сущность выбрасывается без ошибки.
	require.Len(t, root.Content, 2)

	img := root.Content[0]
	assert.Equal(t, tiptap.TypeImage, img.Type)
	assert.Equal(t, "/attachment/x", img.AttrString("src"))
	assert.Equal(t, "large", img.AttrString("size"))

	video := root.Content[1]
	assert.Equal(t, tiptap.TypeVideo, video.Type)
	assert.Equal(t, "abc", video.AttrString("guid"))
}

func TestConvertImageCaption(t *testing.T) {
	caption := `{"blocks":[{"key":"c1","type":"unstyled","text":"подпись","depth":0,"inlineStyleRanges":[],"entityRanges":[]}],"entityMap":{}}`
	root := convert(t, &LegacyDocument{
		Blocks: []Block{
			{Type: "atomic", Text: " ", EntityRanges: []EntityRange{{Offset: 0, Length: 1, Key: 0}}},
		},
		EntityMap: map[string]Entity{
			"0": {Type: "IMAGE", Data: map[string]interface{}{
				"src": "/attachment/x", "caption": caption,
			}},
		},
	})

	// Подпись в устаревшем формате конвертируется в HTML.
	got := root.Content[0].AttrString("caption")
	assert.Contains(t, got, "подпись")
	assert.NotContains(t, got, "blocks")
}

func TestConvertUnknownBlockDropped(t *testing.T) {
	root := convert(t, &LegacyDocument{
		Blocks: []Block{
			{Type: "jumbotron", Text: "что-то"},
			{Type: "paragraph", Text: "осталось"},
		},
	})
	require.Len(t, root.Content, 1)
	assert.Equal(t, "осталось", root.Content[0].Content[0].Text)
}

func TestConvertBlockquote(t *testing.T) {
	root := convert(t, &LegacyDocument{
		Blocks: []Block{{Type: "blockquote", Text: "цитата"}},
	})
	bq := root.Content[0]
	require.Equal(t, tiptap.TypeBlockquote, bq.Type)
	require.Equal(t, tiptap.TypeParagraph, bq.Content[0].Type)
	assert.Equal(t, "цитата", bq.Content[0].Content[0].Text)
}

func TestConvertEndToEnd(t *testing.T) {
	raw := `{"blocks":[
        {"key":"a1","type":"header-two","text":"Отчет","depth":0,"inlineStyleRanges":[],"entityRanges":[]},
        {"key":"a2","type":"unstyled","text":"Текст с жирным","depth":0,
         "inlineStyleRanges":[{"style":"BOLD","offset":8,"length":6}],"entityRanges":[]}
    ],"entityMap":{}}`

	out := Convert(raw)
	doc := tiptap.ParseString(out)
	require.True(t, doc.IsStructured())
	assert.Equal(t, "Отчет\nТекст с жирным", tiptap.PlainText(doc))
}
