package polis

import (
	"encoding/json"
	"net/http"

	"github.com/aisa-it/polis/internal/polis/apierrors"
	"github.com/aisa-it/polis/internal/polis/attachments"
	"github.com/aisa-it/polis/internal/polis/editor/draft"
	"github.com/aisa-it/polis/internal/polis/editor/tiptap"
	"github.com/aisa-it/polis/internal/polis/widgets"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func (s *Services) AddWidgetServices(g *echo.Group) {
	entityGroup := g.Group("/entities/:entityId", s.EntityMiddleware, s.EntityPermissionMiddleware)
	entityGroup.GET("/widgets/", s.getEntityWidgets)
	entityGroup.PUT("/widgets/", s.updateEntityWidgets)
}

// getEntityWidgets godoc
// @Summary Виджеты: дерево виджетов материала
// @Tags Widgets
// @Security ApiKeyAuth
// @Produce json
// @Param entityId path string true "ID материала"
// @Success 200 {array} widgets.Row
// @Router /api/entities/{entityId}/widgets/ [get]
func (s *Services) getEntityWidgets(c echo.Context) error {
	entityContext := c.(EntityContext)

	rows, err := widgets.ParseRows(entityContext.Entity.WidgetRows)
	if err != nil {
		return EError(c, err)
	}
	if rows == nil {
		rows = []*widgets.Row{}
	}
	return c.JSON(http.StatusOK, rows)
}

type widgetsUpdateRequest struct {
	Rows []*widgets.Row `json:"rows"`
}

func (r widgetsUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Rows, validation.By(func(value interface{}) error {
			rows, _ := value.([]*widgets.Row)
			for s := range widgets.Settings(rows) {
				if s.Key == "" {
					return validation.NewError("validation_widget_key", "setting key is required")
				}
			}
			return nil
		})),
	)
}

// updateEntityWidgets godoc
// @Summary Виджеты: замена дерева виджетов материала
// @Description Встроенные загрузки материализуются до сериализации: файл сохраняется, проверяется антивирусом и получает attachmentId. Богатые поля устаревшего формата конвертируются. Привязки вложений выверяются в той же транзакции.
// @Tags Widgets
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param entityId path string true "ID материала"
// @Param data body widgetsUpdateRequest true "Дерево виджетов"
// @Success 200 {array} widgets.Row
// @Router /api/entities/{entityId}/widgets/ [put]
func (s *Services) updateEntityWidgets(c echo.Context) error {
	entityContext := c.(EntityContext)
	entity := entityContext.Entity
	user := entityContext.User

	var req widgetsUpdateRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrBadWidgetPayload)
	}
	if err := req.Validate(); err != nil {
		return EErrorMsgStatus(c, err, http.StatusBadRequest)
	}
	rows := req.Rows

	// Богатые поля настроек: конвертация устаревшего формата и запрет
	// внешних вложений, как у богатых полей самого материала.
	var external error
	if converted := widgets.MapRichFields(rows, func(text string) string {
		next := draft.Convert(text)
		if err := tiptap.ParseString(next).RejectExternalURLs(cfg.TenantDomain()); err != nil && external == nil {
			external = err
		}
		return next
	}); converted > 0 {
		legacyConversionsCounter.Add(float64(converted))
	}
	if external != nil {
		return EError(c, external)
	}

	ownerID := entity.OwnerId
	if user != nil {
		ownerID = user.ID
	}
	var pending int
	for setting := range widgets.Settings(rows) {
		if setting.AttachmentID == "" && setting.Attachment != nil {
			pending++
		}
	}
	if err := widgets.ResolveAttachments(rows, s.assets, ownerID); err != nil {
		return EError(c, err)
	}
	if pending > 0 {
		materializedUploadsCounter.Add(float64(pending))
	}

	raw, err := widgets.SerializeRows(rows)
	if err != nil {
		return EError(c, err)
	}
	entity.WidgetRows = raw

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity).Update("widget_rows", raw).Error; err != nil {
			return err
		}
		return attachments.Reconcile(tx, &entity)
	}); err != nil {
		return EError(c, err)
	}

	var out []*widgets.Row
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
