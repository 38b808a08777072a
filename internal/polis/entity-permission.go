// Middleware проверки прав доступа к материалам.
//
//	Загружает материал по идентификатору из URL и проверяет, имеет ли
//	пользователь право чтения или записи. Правила вычисляет пакет access:
//	пересечение наборов токенов, жесткий приоритет закрытых групп,
//	привилегии владельца и администраторов группы.
package polis

import (
	"errors"
	"net/http"

	"github.com/aisa-it/polis/internal/polis/access"
	"github.com/aisa-it/polis/internal/polis/apierrors"
	"github.com/aisa-it/polis/internal/polis/dao"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// EntityContext несет материал, загруженный middleware, вместе с
// аутентификацией запроса.
type EntityContext struct {
	AuthContext
	Entity dao.Entity
}

func (s *Services) EntityMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authContext, ok := c.(AuthContext)
		if !ok {
			return errors.New("wrong context")
		}

		entity, err := dao.GetEntity(s.db, c.Param("entityId"))
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return EErrorDefined(c, apierrors.ErrEntityNotFound)
			}
			return EError(c, err)
		}

		return next(EntityContext{authContext, *entity})
	}
}

func (s *Services) EntityPermissionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		has, err := s.hasEntityPermissions(c)
		if err != nil {
			return EError(c, err)
		}
		if !has {
			return EErrorDefined(c, apierrors.ErrEntityForbidden)
		}
		return next(c)
	}
}

func (s *Services) hasEntityPermissions(c echo.Context) (bool, error) {
	entityContext, ok := c.(EntityContext)
	if !ok {
		return false, errors.New("wrong context")
	}

	if onlyReadMethod(c) {
		return access.CanRead(s.membership, &entityContext.Entity, entityContext.User)
	}
	return access.CanWrite(s.membership, &entityContext.Entity, entityContext.User)
}

func onlyReadMethod(c echo.Context) bool {
	switch c.Request().Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
