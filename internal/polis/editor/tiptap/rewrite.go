package tiptap

import (
	"strings"
)

// ReplaceAttachmentReference переписывает ссылки на вложение oldID в
// каноническую форму "/attachment/<newID>". Проверка выполняется по вхождению
// подстроки: исторические URL могут нести идентификатор внутри более длинного
// пути. Для UUID фиксированной длины частичное перекрытие с другим UUID
// невозможно.
func (d *Document) ReplaceAttachmentReference(oldID, newID string) {
	if d == nil || d.root == nil || oldID == "" {
		return
	}

	canonical := "/attachment/" + newID

	for n := range d.FindNodes(TypeFile) {
		if strings.Contains(n.AttrString("url"), oldID) {
			n.SetAttr("url", canonical)
		}
	}
	for n := range d.FindNodes(TypeImage) {
		if strings.Contains(n.AttrString("src"), oldID) {
			n.SetAttr("src", canonical)
		}
	}
}
