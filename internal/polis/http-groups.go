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

func (s *Services) AddGroupServices(g *echo.Group) {
	groupGroup := g.Group("/groups/:groupId", s.GroupMiddleware)
	groupGroup.GET("/", s.getGroup)
	groupGroup.POST("/close/", s.closeGroup)
}

// GroupContext несет группу, загруженную middleware.
type GroupContext struct {
	AuthContext
	Group dao.Group
}

func (s *Services) GroupMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authContext, ok := c.(AuthContext)
		if !ok {
			return errors.New("wrong context")
		}

		var group dao.Group
		if err := s.db.Preload("Subgroups").
			Where("id = ?", c.Param("groupId")).First(&group).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return EErrorDefined(c, apierrors.ErrGroupNotFound)
			}
			return EError(c, err)
		}

		return next(GroupContext{authContext, group})
	}
}

// canManageGroup: группой управляют её владелец, участники с ролью
// admin/owner и администратор платформы.
func (s *Services) canManageGroup(group *dao.Group, user *dao.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin || group.OwnerId == user.ID {
		return true, nil
	}
	role, err := s.membership.GroupRole(user.ID, group.ID)
	if err != nil {
		return false, err
	}
	return role == dao.GroupRoleAdmin || role == dao.GroupRoleOwner, nil
}

// getGroup godoc
// @Summary Группы: получение группы
// @Tags Groups
// @Security ApiKeyAuth
// @Produce json
// @Param groupId path string true "ID группы"
// @Success 200 {object} dao.Group
// @Router /api/groups/{groupId}/ [get]
func (s *Services) getGroup(c echo.Context) error {
	groupContext := c.(GroupContext)
	return c.JSON(http.StatusOK, groupContext.Group)
}

// closeGroup godoc
// @Summary Группы: закрытие группы
// @Description Переводит группу в закрытый режим и разово ужесточает read_access всех её материалов: public и logged_in заменяются токеном группы.
// @Tags Groups
// @Security ApiKeyAuth
// @Produce json
// @Param groupId path string true "ID группы"
// @Success 200 {object} dao.Group
// @Router /api/groups/{groupId}/close/ [post]
func (s *Services) closeGroup(c echo.Context) error {
	groupContext := c.(GroupContext)
	group := groupContext.Group

	ok, err := s.canManageGroup(&group, groupContext.User)
	if err != nil {
		return EError(c, err)
	}
	if !ok {
		return EErrorDefined(c, apierrors.ErrGroupForbidden)
	}

	if group.IsClosed {
		return c.JSON(http.StatusOK, group)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&group).Update("is_closed", true).Error; err != nil {
			return err
		}
		return access.ApplyGroupClosure(c.Request().Context(), tx, group.ID)
	}); err != nil {
		return EError(c, err)
	}

	group.IsClosed = true
	return c.JSON(http.StatusOK, group)
}
