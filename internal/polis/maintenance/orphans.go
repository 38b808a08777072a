// Пакет фоновой очистки файлового хранилища. Удаляет файлы, на которые
// больше не ссылается ни один материал, и объекты хранилища без записи
// в базе.
//
// Основные возможности:
//   - Удаление осиротевших FileAsset вместе с объектами хранилища
//   - Обнаружение объектов хранилища без учетной записи
package maintenance

import (
	"log/slog"
	"time"

	"github.com/aisa-it/polis/internal/polis/dao"
	filestorage "github.com/aisa-it/polis/internal/polis/file-storage"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Минимальный возраст файла перед удалением: свежие загрузки могут еще
// не попасть в содержимое материала.
const orphanMinAge = 24 * time.Hour

type OrphanSweeper struct {
	db      *gorm.DB
	storage filestorage.FileStorage
}

func NewOrphanSweeper(db *gorm.DB, storage filestorage.FileStorage) *OrphanSweeper {
	return &OrphanSweeper{db: db, storage: storage}
}

// Sweep удаляет осиротевшие файлы. Выполняется по расписанию.
func (os *OrphanSweeper) Sweep() {
	slog.Info("Start orphan assets sweep")
	deleted := os.sweepAssets()
	unknown := os.sweepStorage()
	slog.Info("Finish orphan assets sweep", "deleted", deleted, "unknownObjects", unknown)
}

func (os *OrphanSweeper) sweepAssets() int {
	var assets []dao.FileAsset
	if err := os.db.
		Where("created_at < ?", time.Now().Add(-orphanMinAge)).
		Find(&assets).Error; err != nil {
		slog.Error("Fetch assets for sweep", "err", err)
		return 0
	}

	deleted := 0
	for i := range assets {
		ok, err := assets[i].CanBeDeleted(os.db)
		if err != nil {
			slog.Error("Check asset references", "assetId", assets[i].Id, "err", err)
			continue
		}
		if !ok {
			continue
		}
		if err := os.db.Delete(&assets[i]).Error; err != nil {
			slog.Error("Delete orphan asset", "assetId", assets[i].Id, "err", err)
			continue
		}
		deleted++
	}
	return deleted
}

// sweepStorage считает объекты хранилища, не имеющие записи в базе.
// Такие объекты не удаляются автоматически: расхождение сигнализирует
// о сбое и разбирается вручную.
func (os *OrphanSweeper) sweepStorage() int {
	unknown := 0
	if err := os.storage.ListRoot(func(fi filestorage.FileInfo) error {
		id, err := uuid.FromString(fi.Name)
		if err != nil {
			unknown++
			return nil
		}

		var exist bool
		if err := os.db.
			Where("id = ?", id).
			Select("count(*) > 0").
			Model(&dao.FileAsset{}).
			Find(&exist).Error; err != nil {
			return err
		}
		if !exist {
			unknown++
			slog.Warn("Storage object without asset record", "object", fi.Name)
		}
		return nil
	}); err != nil {
		slog.Error("List storage objects", "err", err)
	}
	return unknown
}
