package polis

import (
	"mime"
	"net/http"

	"github.com/aisa-it/polis/internal/polis/apierrors"
	"github.com/aisa-it/polis/internal/polis/dao"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// downloadAsset godoc
// @Summary Файлы: выдача содержимого файла
// @Description Обслуживает каноническую форму /attachment/{uuid} и историческую /file/download/{uuid}/{filename}.
// @Tags Assets
// @Produce octet-stream
// @Param assetId path string true "ID файла"
// @Success 200 {file} file
// @Router /attachment/{assetId} [get]
func (s *Services) downloadAsset(c echo.Context) error {
	id, err := uuid.FromString(c.Param("assetId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrAssetNotFound)
	}

	asset, err := dao.GetFileAsset(s.db, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return EErrorDefined(c, apierrors.ErrAssetNotFound)
		}
		return EError(c, err)
	}

	data, err := s.storage.Load(asset.Id)
	if err != nil {
		return EError(c, err)
	}

	contentType := asset.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, inlineDisposition(asset.Name))
	return c.Blob(http.StatusOK, contentType, data)
}

// inlineDisposition собирает заголовок Content-Disposition, экранируя
// имя файла: кавычки и переводы строк в имени не должны ломать заголовок.
func inlineDisposition(name string) string {
	if name == "" {
		return "inline"
	}
	return mime.FormatMediaType("inline", map[string]string{"filename": name})
}
