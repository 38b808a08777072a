package tiptap

import (
	"net/url"
	"strings"

	"github.com/aisa-it/polis/internal/polis/apierrors"
)

// RejectExternalURLs возвращает ошибку, если file- или image-нода верхнего
// уровня ссылается на ресурс, размещенный не на домене тенанта. Относительные
// URL допускаются. Проверяется только прямой content корня, не все дерево.
func (d *Document) RejectExternalURLs(tenantDomain string) error {
	if d == nil || d.root == nil {
		return nil
	}

	for _, n := range d.root.Content {
		var src string
		switch n.Type {
		case TypeFile:
			src = n.AttrString("url")
		case TypeImage:
			src = n.AttrString("src")
		default:
			continue
		}
		if src == "" {
			continue
		}

		u, err := url.Parse(src)
		if err != nil {
			return apierrors.ErrExternalAttachmentURL
		}
		if u.Host == "" {
			continue
		}
		if !strings.EqualFold(u.Hostname(), tenantDomain) {
			return apierrors.ErrExternalAttachmentURL
		}
	}
	return nil
}
