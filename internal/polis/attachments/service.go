package attachments

import (
	"errors"
	"log/slog"

	"github.com/aisa-it/polis/internal/polis/apierrors"
	"github.com/aisa-it/polis/internal/polis/dao"
	filestorage "github.com/aisa-it/polis/internal/polis/file-storage"
	"github.com/aisa-it/polis/internal/polis/widgets"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// AssetService сохраняет загружаемые файлы: объект в хранилище,
// антивирусная проверка, строка FileAsset в базе.
type AssetService struct {
	db      *gorm.DB
	storage filestorage.FileStorage
	scanner filestorage.VirusScanner

	// Предел размера загрузки в байтах, 0 - без ограничения.
	MaxSize int
}

func NewAssetService(db *gorm.DB, storage filestorage.FileStorage, scanner filestorage.VirusScanner) *AssetService {
	return &AssetService{db: db, storage: storage, scanner: scanner}
}

// Create реализует widgets.AttachmentCreator. Файл сначала попадает в
// хранилище, затем проверяется антивирусом; зараженный файл удаляется
// из хранилища, и вся запись завершается ошибкой.
func (s *AssetService) Create(upload *widgets.InlineUpload, ownerID string) (uuid.UUID, error) {
	if s.MaxSize > 0 && len(upload.Data) > s.MaxSize {
		return uuid.Nil, apierrors.ErrAttachmentTooBig.WithFormattedMessage(s.MaxSize)
	}

	id := dao.GenUUID()
	meta := filestorage.Metadata{OwnerId: ownerID}
	if err := s.storage.Save(upload.Data, id, upload.ContentType, &meta); err != nil {
		return uuid.Nil, err
	}

	if err := s.scanner.Scan(upload.Data); err != nil {
		if delErr := s.storage.Delete(id); delErr != nil {
			slog.Error("Delete infected upload", "assetId", id, "err", delErr)
		}
		if errors.Is(err, filestorage.ErrFileInfected) {
			return uuid.Nil, apierrors.ErrFileNotClean
		}
		return uuid.Nil, err
	}

	asset := dao.FileAsset{
		Id:          id,
		CreatedById: &ownerID,
		Name:        upload.Name,
		FileSize:    len(upload.Data),
		ContentType: upload.ContentType,
	}
	if err := s.db.Create(&asset).Error; err != nil {
		if delErr := s.storage.Delete(id); delErr != nil {
			slog.Error("Delete orphan upload", "assetId", id, "err", delErr)
		}
		return uuid.Nil, err
	}
	return id, nil
}

// Exist сообщает, существует ли файл и в базе, и в хранилище.
func (s *AssetService) Exist(id uuid.UUID) (bool, error) {
	var count int64
	if err := s.db.Model(&dao.FileAsset{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	return s.storage.Exist(id)
}
