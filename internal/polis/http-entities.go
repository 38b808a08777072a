package polis

import (
	"net/http"

	"github.com/aisa-it/polis/internal/polis/access"
	"github.com/aisa-it/polis/internal/polis/apierrors"
	"github.com/aisa-it/polis/internal/polis/attachments"
	"github.com/aisa-it/polis/internal/polis/dao"
	"github.com/aisa-it/polis/internal/polis/editor/draft"
	"github.com/aisa-it/polis/internal/polis/editor/tiptap"
	"github.com/aisa-it/polis/internal/polis/utils"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func (s *Services) AddEntityServices(g *echo.Group) {
	entityGroup := g.Group("/entities/:entityId", s.EntityMiddleware, s.EntityPermissionMiddleware)
	entityGroup.GET("/", s.getEntity)
	entityGroup.PATCH("/", s.updateEntity)
	entityGroup.GET("/export/html/", s.exportEntityHTML)
	entityGroup.GET("/excerpt/", s.getEntityExcerpt)
	entityGroup.GET("/attachments/", s.getEntityAttachments)
	entityGroup.POST("/access/", s.setEntityAccess)
	entityGroup.GET("/access/choices/", s.getEntityAccessChoices)
}

type entityResponse struct {
	dao.Entity
	ReadLevel    int      `json:"read_level"`
	WriteLevel   int      `json:"write_level"`
	MentionedIDs []string `json:"mentioned_user_ids"`
}

func (s *Services) entityResponse(entity *dao.Entity) entityResponse {
	mentioned := map[string]struct{}{}
	for _, doc := range entity.RichFields() {
		for id := range doc.MentionedUserIDs() {
			mentioned[id] = struct{}{}
		}
	}

	return entityResponse{
		Entity:       *entity,
		ReadLevel:    access.LevelForTokens(tokensOf(entity.ReadAccess), entity),
		WriteLevel:   access.LevelForTokens(tokensOf(entity.WriteAccess), entity),
		MentionedIDs: utils.SetToSlice(mentioned),
	}
}

func tokensOf(stored []string) []access.Token {
	tokens := make([]access.Token, len(stored))
	for i, s := range stored {
		tokens[i] = access.Token(s)
	}
	return tokens
}

// getEntity godoc
// @Summary Материалы: получение материала
// @Tags Entities
// @Security ApiKeyAuth
// @Produce json
// @Param entityId path string true "ID материала"
// @Success 200 {object} entityResponse
// @Router /api/entities/{entityId}/ [get]
func (s *Services) getEntity(c echo.Context) error {
	entityContext := c.(EntityContext)
	return c.JSON(http.StatusOK, s.entityResponse(&entityContext.Entity))
}

type entityUpdateRequest struct {
	Title           *string `json:"title"`
	RichDescription *string `json:"rich_description"`
	Introduction    *string `json:"introduction"`
	WelcomeMessage  *string `json:"welcome_message"`
	FeaturedImageId *string `json:"featured_image_id"`
}

func (r entityUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(1, 255)),
		validation.Field(&r.FeaturedImageId, validation.By(func(value interface{}) error {
			v, _ := value.(*string)
			if v == nil || *v == "" {
				return nil
			}
			if !utils.IsValidUUID(*v) {
				return validation.NewError("validation_uuid", "must be a valid UUID")
			}
			return nil
		})),
	)
}

// updateEntity godoc
// @Summary Материалы: обновление материала
// @Description Богатые поля принимают как структурированные документы, так и значения устаревшего формата; последние конвертируются. Привязки вложений выверяются в той же транзакции.
// @Tags Entities
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param entityId path string true "ID материала"
// @Param data body entityUpdateRequest true "Изменяемые поля"
// @Success 200 {object} entityResponse
// @Router /api/entities/{entityId}/ [patch]
func (s *Services) updateEntity(c echo.Context) error {
	entityContext := c.(EntityContext)
	entity := entityContext.Entity

	var req entityUpdateRequest
	if err := c.Bind(&req); err != nil {
		return EErrorMsgStatus(c, err, http.StatusBadRequest)
	}
	if err := req.Validate(); err != nil {
		return EErrorMsgStatus(c, err, http.StatusBadRequest)
	}

	if req.Title != nil {
		entity.Title = *req.Title
	}

	richUpdates := []struct {
		raw   *string
		field *tiptap.Document
	}{
		{req.RichDescription, &entity.RichDescription},
		{req.Introduction, &entity.Introduction},
		{req.WelcomeMessage, &entity.WelcomeMessage},
	}
	for _, u := range richUpdates {
		if u.raw == nil {
			continue
		}
		converted := draft.Convert(*u.raw)
		if converted != *u.raw {
			legacyConversionsCounter.Inc()
		}
		doc := tiptap.ParseString(converted)
		if err := doc.RejectExternalURLs(cfg.TenantDomain()); err != nil {
			return EError(c, err)
		}
		*u.field = *doc
	}

	if req.FeaturedImageId != nil {
		if *req.FeaturedImageId == "" {
			entity.FeaturedImageId = nil
		} else {
			id := uuid.FromStringOrNil(*req.FeaturedImageId)
			asset, err := dao.GetFileAsset(s.db, id)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return EErrorDefined(c, apierrors.ErrAssetNotFound)
				}
				return EError(c, err)
			}
			entity.FeaturedImageId = &asset.Id
		}
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&entity).Error; err != nil {
			return err
		}
		return attachments.Reconcile(tx, &entity)
	}); err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, s.entityResponse(&entity))
}

// exportEntityHTML godoc
// @Summary Материалы: экспорт основного содержимого в HTML
// @Tags Entities
// @Security ApiKeyAuth
// @Produce html
// @Param entityId path string true "ID материала"
// @Success 200 {string} string
// @Router /api/entities/{entityId}/export/html/ [get]
func (s *Services) exportEntityHTML(c echo.Context) error {
	entityContext := c.(EntityContext)
	return c.HTML(http.StatusOK, tiptap.HTML(&entityContext.Entity.RichDescription))
}

// getEntityExcerpt godoc
// @Summary Материалы: выдержка плоского текста
// @Tags Entities
// @Security ApiKeyAuth
// @Produce json
// @Param entityId path string true "ID материала"
// @Param len query int false "Предел длины в рунах" default(200)
// @Success 200 {object} map[string]string
// @Router /api/entities/{entityId}/excerpt/ [get]
func (s *Services) getEntityExcerpt(c echo.Context) error {
	entityContext := c.(EntityContext)

	maxRunes := 200
	if err := echo.QueryParamsBinder(c).Int("len", &maxRunes).BindError(); err != nil || maxRunes < 1 {
		maxRunes = 200
	}

	return c.JSON(http.StatusOK, map[string]string{
		"excerpt": tiptap.Excerpt(&entityContext.Entity.RichDescription, maxRunes),
	})
}

// getEntityAttachments godoc
// @Summary Материалы: список привязанных файлов
// @Tags Entities
// @Security ApiKeyAuth
// @Produce json
// @Param entityId path string true "ID материала"
// @Success 200 {array} dao.Attachment
// @Router /api/entities/{entityId}/attachments/ [get]
func (s *Services) getEntityAttachments(c echo.Context) error {
	entityContext := c.(EntityContext)

	var rows []dao.Attachment
	if err := s.db.Preload("Asset").
		Where("entity_id = ?", entityContext.Entity.ID).
		Find(&rows).Error; err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

type entityAccessRequest struct {
	ReadLevel  *int `json:"read_level"`
	WriteLevel *int `json:"write_level"`
}

// setEntityAccess godoc
// @Summary Материалы: установка уровней доступа
// @Description Уровень отображения проецируется в набор токенов. Произвольные наборы токенов через этот метод не выражаются.
// @Tags Entities
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param entityId path string true "ID материала"
// @Param data body entityAccessRequest true "Уровни доступа"
// @Success 200 {object} entityResponse
// @Router /api/entities/{entityId}/access/ [post]
func (s *Services) setEntityAccess(c echo.Context) error {
	entityContext := c.(EntityContext)
	entity := entityContext.Entity

	var req entityAccessRequest
	if err := c.Bind(&req); err != nil {
		return EErrorMsgStatus(c, err, http.StatusBadRequest)
	}

	if req.ReadLevel != nil {
		tokens, err := access.TokensForLevel(*req.ReadLevel, &entity)
		if err != nil {
			return EError(c, err)
		}
		entity.ReadAccess = access.TokenStrings(tokens)
	}
	if req.WriteLevel != nil {
		tokens, err := access.TokensForLevel(*req.WriteLevel, &entity)
		if err != nil {
			return EError(c, err)
		}
		entity.WriteAccess = access.TokenStrings(tokens)
	}

	if err := s.db.Save(&entity).Error; err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, s.entityResponse(&entity))
}

// getEntityAccessChoices godoc
// @Summary Материалы: допустимые уровни доступа
// @Tags Entities
// @Security ApiKeyAuth
// @Produce json
// @Param entityId path string true "ID материала"
// @Success 200 {array} access.LevelChoice
// @Router /api/entities/{entityId}/access/choices/ [get]
func (s *Services) getEntityAccessChoices(c echo.Context) error {
	entityContext := c.(EntityContext)
	entity := entityContext.Entity

	var subgroups []dao.Subgroup
	if entity.GroupId != nil {
		if err := s.db.Where("group_id = ?", *entity.GroupId).
			Order("id").Find(&subgroups).Error; err != nil {
			return EError(c, err)
		}
	}

	choices, err := access.ChoicesForEntity(s.membership, &entity, subgroups, cfg.SiteClosed)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, choices)
}
