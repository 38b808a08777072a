// Вспомогательные функции для работы с данными, часто используемые в различных частях приложения.
//
// Основные возможности:
//   - Преобразование слайсов в множества (map[T]struct{}).
//   - Проверка наличия элементов множества в другом множестве или слайсе.
//   - Проверка пересечения множеств.
//   - Валидация UUID-строк.
package utils

import (
	"github.com/gofrs/uuid"
)

func SliceToSet[T comparable](ids []T) map[T]struct{} {
	res := make(map[T]struct{})
	for _, id := range ids {
		res[id] = struct{}{}
	}
	return res
}

func SetToSlice[T comparable](set map[T]struct{}) []T {
	res := make([]T, 0, len(set))
	for el := range set {
		res = append(res, el)
	}
	return res
}

func CheckInSet[T comparable](set map[T]struct{}, all ...T) bool {
	for _, el := range all {
		if _, ok := set[el]; ok {
			return true
		}
	}
	return false
}

func CheckInSlice[T comparable](in []T, all ...T) bool {
	set := SliceToSet(in)
	return CheckInSet(set, all...)
}

// Intersects возвращает true, если множества имеют хотя бы один общий элемент.
func Intersects[T comparable](a, b map[T]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for el := range a {
		if _, ok := b[el]; ok {
			return true
		}
	}
	return false
}

// IsValidUUID проверяет, что строка является корректным UUID.
func IsValidUUID(s string) bool {
	_, err := uuid.FromString(s)
	return err == nil
}
