package tiptap

import (
	"iter"
)

// walk обходит дерево в глубину (pre-order), включая саму ноду.
func walk(n *Node, yield func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !yield(n) {
		return false
	}
	for _, child := range n.Content {
		if !walk(child, yield) {
			return false
		}
	}
	return true
}

// FindNodes возвращает ленивую последовательность всех нод указанного типа
// в порядке документа (pre-order), включая корень. Последовательность
// вычисляется заново при каждом вызове.
func (d *Document) FindNodes(nodeType string) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if d == nil || d.root == nil {
			return
		}
		walk(d.root, func(n *Node) bool {
			if n.Type != nodeType {
				return true
			}
			return yield(n)
		})
	}
}

// MentionedUserIDs возвращает множество идентификаторов пользователей,
// упомянутых в документе. Дубликаты схлопываются.
func (d *Document) MentionedUserIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for n := range d.FindNodes(TypeMention) {
		if id := n.AttrString("id"); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// AttachedSources возвращает множество источников вложений: атрибуты src
// всех image-нод и url всех file-нод. Пустые значения исключаются.
func (d *Document) AttachedSources() map[string]struct{} {
	sources := make(map[string]struct{})
	for n := range d.FindNodes(TypeImage) {
		if src := n.AttrString("src"); src != "" {
			sources[src] = struct{}{}
		}
	}
	for n := range d.FindNodes(TypeFile) {
		if u := n.AttrString("url"); u != "" {
			sources[u] = struct{}{}
		}
	}
	return sources
}
