package widgets

import (
	"errors"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
)

func sampleRows() []*Row {
	return []*Row{
		{Columns: []*Column{
			{Widgets: []*Widget{
				{Type: "text", Settings: []*Setting{
					{Key: "richDescription", Value: `{"type":"doc","content":[]}`},
					{Key: "title", Value: "Заголовок"},
				}},
			}},
			{Widgets: []*Widget{
				{Type: "gallery", Settings: []*Setting{
					{Key: "image", AttachmentID: "8f14e45f-ceea-467f-a07b-64f58cbcaa11"},
					{Key: "caption", RichDescription: `{"type":"doc"}`},
				}},
			}},
		}},
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	raw, err := SerializeRows(sampleRows())
	require.NoError(t, err)

	rows, err := ParseRows(raw)
	require.NoError(t, err)

	again, err := SerializeRows(rows)
	require.NoError(t, err)
	require.Equal(t, raw, again)
}

func TestParseRowsEmptyAndInvalid(t *testing.T) {
	rows, err := ParseRows("")
	require.NoError(t, err)
	require.Nil(t, rows)

	_, err = ParseRows("{not json")
	require.Error(t, err)
}

func TestRichFieldsOrder(t *testing.T) {
	var fields []string
	for text := range RichFields(sampleRows()) {
		fields = append(fields, text)
	}
	require.Equal(t, []string{`{"type":"doc","content":[]}`, `{"type":"doc"}`}, fields)
}

func TestMapRichFields(t *testing.T) {
	rows := sampleRows()
	changed := MapRichFields(rows, func(text string) string {
		return strings.ReplaceAll(text, "doc", "doc2")
	})
	require.Equal(t, 2, changed)

	// Поле value настроек richDescription меняется на месте.
	require.Equal(t, `{"type":"doc2","content":[]}`, rows[0].Columns[0].Widgets[0].Settings[0].Value)
	require.Equal(t, `{"type":"doc2"}`, rows[0].Columns[1].Widgets[0].Settings[1].RichDescription)
	// Обычные настройки не затрагиваются.
	require.Equal(t, "Заголовок", rows[0].Columns[0].Widgets[0].Settings[1].Value)
}

func TestAttachmentIDs(t *testing.T) {
	ids := AttachmentIDs(sampleRows())
	require.Len(t, ids, 1)
	want := uuid.FromStringOrNil("8f14e45f-ceea-467f-a07b-64f58cbcaa11")
	require.Contains(t, ids, want)
}

type fakeCreator struct {
	created []string
	fail    error
}

func (f *fakeCreator) Create(upload *InlineUpload, ownerID string) (uuid.UUID, error) {
	if f.fail != nil {
		return uuid.Nil, f.fail
	}
	f.created = append(f.created, upload.Name)
	return uuid.FromStringOrNil("11111111-1111-1111-1111-111111111111"), nil
}

func TestResolveAttachments(t *testing.T) {
	rows := []*Row{{Columns: []*Column{{Widgets: []*Widget{{
		Type: "file",
		Settings: []*Setting{
			{Key: "doc", Attachment: &InlineUpload{Name: "report.pdf", ContentType: "application/pdf", Data: []byte("x")}},
			{Key: "old", AttachmentID: "22222222-2222-2222-2222-222222222222",
				Attachment: &InlineUpload{Name: "ignored.bin"}},
		},
	}}}}}}

	creator := &fakeCreator{}
	require.NoError(t, ResolveAttachments(rows, creator, "owner-1"))

	// Загрузка материализована, уже привязанные настройки не трогаются.
	require.Equal(t, []string{"report.pdf"}, creator.created)
	require.Equal(t, "11111111-1111-1111-1111-111111111111", rows[0].Columns[0].Widgets[0].Settings[0].AttachmentID)
	require.Equal(t, "22222222-2222-2222-2222-222222222222", rows[0].Columns[0].Widgets[0].Settings[1].AttachmentID)
	require.Nil(t, rows[0].Columns[0].Widgets[0].Settings[0].Attachment)

	// Сериализация после материализации не содержит встроенных данных.
	raw, err := SerializeRows(rows)
	require.NoError(t, err)
	require.NotContains(t, raw, "ignored.bin")
}

func TestResolveAttachmentsFailure(t *testing.T) {
	rows := []*Row{{Columns: []*Column{{Widgets: []*Widget{{
		Type:     "file",
		Settings: []*Setting{{Key: "doc", Attachment: &InlineUpload{Name: "virus.exe"}}},
	}}}}}}

	wantErr := errors.New("file is not clean")
	err := ResolveAttachments(rows, &fakeCreator{fail: wantErr}, "owner-1")
	require.ErrorIs(t, err, wantErr)
	require.Empty(t, rows[0].Columns[0].Widgets[0].Settings[0].AttachmentID)
}
