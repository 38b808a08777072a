package access

import (
	"context"
	"log/slog"

	"github.com/aisa-it/polis/internal/polis/dao"
	"github.com/aisa-it/polis/internal/polis/utils"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const closureBatchSize = 200

// ApplyGroupClosure ужесточает доступ материалов группы при её закрытии:
// из read_access каждого материала убираются public и logged_in, взамен
// добавляется токен группы. Разовая перезапись по событию закрытия,
// а не постоянно поддерживаемый инвариант.
func ApplyGroupClosure(ctx context.Context, db *gorm.DB, groupID string) error {
	group := GroupToken(groupID)

	eg, ctx := errgroup.WithContext(ctx)
	// Внутри транзакции database/sql сериализует запросы, параллельные
	// горутины ничего не дают.
	if _, inTx := db.Statement.ConnPool.(gorm.TxCommitter); inTx {
		eg.SetLimit(1)
	} else {
		eg.SetLimit(4)
	}

	var batch []dao.Entity
	err := db.WithContext(ctx).
		Where("group_id = ?", groupID).
		FindInBatches(&batch, closureBatchSize, func(tx *gorm.DB, _ int) error {
			entities := make([]dao.Entity, 0, len(batch))
			for i := range batch {
				if hasOpenToken(batch[i].ReadAccess) {
					entities = append(entities, batch[i])
				}
			}
			if len(entities) == 0 {
				return nil
			}
			eg.Go(func() error {
				for i := range entities {
					rewritten := rewriteForClosure(entities[i].ReadAccess, group)
					if err := db.WithContext(ctx).Model(&dao.Entity{}).
						Where("id = ?", entities[i].ID).
						Update("read_access", rewritten).Error; err != nil {
						return err
					}
				}
				slog.Debug("Tighten entity access on group closure",
					"groupId", groupID, "count", len(entities))
				return nil
			})
			return nil
		}).Error
	if err != nil {
		return err
	}
	return eg.Wait()
}

func hasOpenToken(stored pq.StringArray) bool {
	return utils.CheckInSlice(stored, string(Public), string(LoggedIn))
}

func rewriteForClosure(stored pq.StringArray, group Token) pq.StringArray {
	res := make(pq.StringArray, 0, len(stored))
	for _, token := range stored {
		if token == string(Public) || token == string(LoggedIn) {
			continue
		}
		res = append(res, token)
	}
	if utils.CheckInSlice(res, string(group)) {
		return res
	}
	return append(res, string(group))
}
