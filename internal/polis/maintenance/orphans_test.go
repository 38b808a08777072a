package maintenance

import (
	"testing"
	"time"

	"github.com/aisa-it/polis/internal/polis/dao"
	filestorage "github.com/aisa-it/polis/internal/polis/file-storage"
	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&dao.User{}, &dao.Group{}, &dao.Entity{},
		&dao.FileAsset{}, &dao.Attachment{},
	))
	return db
}

func createAsset(t *testing.T, db *gorm.DB, storage filestorage.FileStorage, age time.Duration) dao.FileAsset {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	asset := dao.FileAsset{
		Id:          id,
		CreatedAt:   time.Now().Add(-age),
		Name:        "файл.bin",
		FileSize:    4,
		ContentType: "application/octet-stream",
	}
	require.NoError(t, db.Create(&asset).Error)
	require.NoError(t, storage.Save([]byte("data"), asset.Id, asset.ContentType, nil))
	return asset
}

func TestSweepKeepsReferencedAndFreshAssets(t *testing.T) {
	db := testDB(t)
	storage, err := filestorage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	dao.FileStorage = storage
	t.Cleanup(func() { dao.FileStorage = nil })

	attached := createAsset(t, db, storage, 48*time.Hour)
	featured := createAsset(t, db, storage, 48*time.Hour)
	fresh := createAsset(t, db, storage, time.Hour)
	orphan := createAsset(t, db, storage, 48*time.Hour)

	entity := dao.Entity{
		ID: dao.GenID(), OwnerId: "owner-1", FeaturedImageId: &featured.Id,
	}
	require.NoError(t, db.Create(&entity).Error)
	require.NoError(t, db.Create(&dao.Attachment{
		Id: dao.GenID(), AssetId: attached.Id, EntityId: entity.ID,
	}).Error)

	NewOrphanSweeper(db, storage).Sweep()

	// Удаляется только старый файл без ссылок, и строка, и объект.
	var gone dao.FileAsset
	require.ErrorIs(t, db.First(&gone, "id = ?", orphan.Id).Error, gorm.ErrRecordNotFound)
	exist, err := storage.Exist(orphan.Id)
	require.NoError(t, err)
	require.False(t, exist)

	for _, kept := range []dao.FileAsset{attached, featured, fresh} {
		var row dao.FileAsset
		require.NoError(t, db.First(&row, "id = ?", kept.Id).Error)
		exist, err := storage.Exist(kept.Id)
		require.NoError(t, err)
		require.True(t, exist)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	db := testDB(t)
	storage, err := filestorage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	dao.FileStorage = storage
	t.Cleanup(func() { dao.FileStorage = nil })

	attached := createAsset(t, db, storage, 48*time.Hour)
	entity := dao.Entity{ID: dao.GenID(), OwnerId: "owner-1"}
	require.NoError(t, db.Create(&entity).Error)
	require.NoError(t, db.Create(&dao.Attachment{
		Id: dao.GenID(), AssetId: attached.Id, EntityId: entity.ID,
	}).Error)

	sweeper := NewOrphanSweeper(db, storage)
	sweeper.Sweep()
	sweeper.Sweep()

	var count int64
	require.NoError(t, db.Model(&dao.FileAsset{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
