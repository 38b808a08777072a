package access

import (
	"context"
	"testing"

	"github.com/aisa-it/polis/internal/polis/apierrors"
	"github.com/aisa-it/polis/internal/polis/dao"
	"github.com/glebarez/sqlite"
	"github.com/lib/pq"
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
		&dao.User{}, &dao.Group{}, &dao.GroupMember{}, &dao.Subgroup{},
		&dao.Entity{}, &dao.FileAsset{}, &dao.Attachment{},
	))
	return db
}

func TestTokensForLevel(t *testing.T) {
	groupID := "group-1"
	entity := &dao.Entity{OwnerId: "owner-1", GroupId: &groupID}

	tests := []struct {
		name   string
		level  int
		entity *dao.Entity
		want   []Token
		err    error
	}{
		{"owner only", LevelOwnerOnly, entity, []Token{UserToken("owner-1")}, nil},
		{"logged in", LevelLoggedIn, entity, []Token{LoggedIn}, nil},
		{"public", LevelPublic, entity, []Token{Public}, nil},
		{"group", LevelGroup, entity, []Token{GroupToken(groupID)}, nil},
		{"group without group", LevelGroup, &dao.Entity{OwnerId: "owner-1"}, nil, apierrors.ErrEntityGroupRequired},
		{"subgroup", dao.SubgroupAccessOffset + 42, entity, []Token{SubgroupToken(42)}, nil},
		{"unknown level", 3, entity, nil, apierrors.ErrBadAccessLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TokensForLevel(tt.level, tt.entity)
			if tt.err != nil {
				require.Error(t, err)
				defined, ok := err.(apierrors.DefinedError)
				require.True(t, ok)
				require.Equal(t, tt.err.(apierrors.DefinedError).Code, defined.Code)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLevelForTokensRoundTrip(t *testing.T) {
	groupID := "group-1"
	entity := &dao.Entity{OwnerId: "owner-1", GroupId: &groupID}

	for _, level := range []int{LevelOwnerOnly, LevelLoggedIn, LevelPublic, LevelGroup, dao.SubgroupAccessOffset + 7} {
		tokens, err := TokensForLevel(level, entity)
		require.NoError(t, err)
		require.Equal(t, level, LevelForTokens(tokens, entity))
	}

	// Обратная проекция с потерями: произвольный набор сводится к
	// ближайшему уровню.
	mixed := []Token{Public, UserToken("owner-1"), GroupToken(groupID)}
	require.Equal(t, LevelPublic, LevelForTokens(mixed, entity))
}

func TestChoicesForEntity(t *testing.T) {
	db := testDB(t)
	membership := dao.NewMembership(db)

	open := dao.Group{ID: "group-open", Name: "Открытый клуб", OwnerId: "owner-1"}
	closed := dao.Group{ID: "group-closed", Name: "Закрытый клуб", IsClosed: true, OwnerId: "owner-1"}
	require.NoError(t, db.Create(&[]dao.Group{open, closed}).Error)

	sgA := dao.Subgroup{Name: "Первая", GroupId: open.ID}
	sgB := dao.Subgroup{Name: "Вторая", GroupId: open.ID}
	sgC := dao.Subgroup{Name: "Третья", GroupId: closed.ID}
	require.NoError(t, db.Create(&sgA).Error)
	require.NoError(t, db.Create(&sgB).Error)
	require.NoError(t, db.Create(&sgC).Error)

	tests := []struct {
		name       string
		groupID    *string
		subgroups  []dao.Subgroup
		siteClosed bool
		want       []int
	}{
		{"no group", nil, nil, false,
			[]int{LevelOwnerOnly, LevelLoggedIn, LevelPublic}},
		{"no group on closed site", nil, nil, true,
			[]int{LevelOwnerOnly, LevelLoggedIn}},
		{"open group", &open.ID, []dao.Subgroup{sgA, sgB}, false,
			[]int{LevelOwnerOnly, LevelLoggedIn, LevelPublic, LevelGroup, sgA.AccessID(), sgB.AccessID()}},
		{"open group on closed site", &open.ID, []dao.Subgroup{sgA, sgB}, true,
			[]int{LevelOwnerOnly, LevelLoggedIn, LevelGroup, sgA.AccessID(), sgB.AccessID()}},
		{"closed group", &closed.ID, []dao.Subgroup{sgC}, false,
			[]int{LevelOwnerOnly, LevelGroup, sgC.AccessID()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity := &dao.Entity{OwnerId: "owner-1", GroupId: tt.groupID}
			choices, err := ChoicesForEntity(membership, entity, tt.subgroups, tt.siteClosed)
			require.NoError(t, err)

			levels := make([]int, len(choices))
			for i, choice := range choices {
				levels[i] = choice.Level
			}
			require.Equal(t, tt.want, levels)
		})
	}
}

func TestCanReadIntersection(t *testing.T) {
	db := testDB(t)
	membership := dao.NewMembership(db)

	group := dao.Group{ID: "group-1", Name: "Клуб", OwnerId: "owner-1"}
	require.NoError(t, db.Create(&group).Error)

	viewer := dao.User{ID: "viewer-1", Email: "viewer@example.org"}
	require.NoError(t, db.Create(&viewer).Error)

	publicEntity := &dao.Entity{
		ID: dao.GenID(), OwnerId: "owner-1",
		ReadAccess: pq.StringArray{string(Public)},
	}

	// Аноним читает публичный материал.
	ok, err := CanRead(membership, publicEntity, nil)
	require.NoError(t, err)
	require.True(t, ok)

	groupEntity := &dao.Entity{
		ID: dao.GenID(), OwnerId: "owner-1", GroupId: &group.ID,
		ReadAccess: pq.StringArray{string(GroupToken(group.ID))},
	}

	// Не участник группы не читает, даже без public/logged_in в наборе.
	ok, err = CanRead(membership, groupEntity, &viewer)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.Create(&dao.GroupMember{
		Id: dao.GenID(), GroupId: group.ID, UserId: viewer.ID, Role: dao.GroupRoleMember,
	}).Error)

	ok, err = CanRead(membership, groupEntity, &viewer)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCanReadClosedGroupOverride(t *testing.T) {
	db := testDB(t)
	membership := dao.NewMembership(db)

	group := dao.Group{ID: "group-1", Name: "Закрытый клуб", IsClosed: true, OwnerId: "owner-1"}
	require.NoError(t, db.Create(&group).Error)

	entity := &dao.Entity{
		ID: dao.GenID(), OwnerId: "owner-1", GroupId: &group.ID,
		ReadAccess: pq.StringArray{string(Public)},
	}

	outsider := dao.User{ID: "outsider-1", Email: "out@example.org"}
	require.NoError(t, db.Create(&outsider).Error)

	// Закрытость группы сильнее пересечения токенов.
	ok, err := CanRead(membership, entity, &outsider)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = CanRead(membership, entity, nil)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.Create(&dao.GroupMember{
		Id: dao.GenID(), GroupId: group.ID, UserId: outsider.ID, Role: dao.GroupRoleMember,
	}).Error)

	ok, err = CanRead(membership, entity, &outsider)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCanWrite(t *testing.T) {
	db := testDB(t)
	membership := dao.NewMembership(db)

	group := dao.Group{ID: "group-1", Name: "Клуб", OwnerId: "owner-1"}
	require.NoError(t, db.Create(&group).Error)

	owner := dao.User{ID: "owner-1", Email: "owner@example.org"}
	groupAdmin := dao.User{ID: "admin-1", Email: "ga@example.org"}
	member := dao.User{ID: "member-1", Email: "m@example.org"}
	root := dao.User{ID: "root-1", Email: "root@example.org", IsAdmin: true}
	require.NoError(t, db.Create(&[]dao.User{owner, groupAdmin, member, root}).Error)

	require.NoError(t, db.Create(&dao.GroupMember{
		Id: dao.GenID(), GroupId: group.ID, UserId: groupAdmin.ID, Role: dao.GroupRoleAdmin,
	}).Error)
	require.NoError(t, db.Create(&dao.GroupMember{
		Id: dao.GenID(), GroupId: group.ID, UserId: member.ID, Role: dao.GroupRoleMember,
	}).Error)

	entity := &dao.Entity{
		ID: dao.GenID(), OwnerId: owner.ID, GroupId: &group.ID,
		WriteAccess: pq.StringArray{string(UserToken(owner.ID))},
	}

	cases := []struct {
		name   string
		viewer *dao.User
		want   bool
	}{
		{"anonymous", nil, false},
		{"owner", &owner, true},
		{"group admin", &groupAdmin, true},
		{"plain member", &member, false},
		{"site admin", &root, true},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := CanWrite(membership, entity, tt.viewer)
			require.NoError(t, err)
			require.Equal(t, tt.want, ok)
		})
	}
}

func TestApplyGroupClosure(t *testing.T) {
	db := testDB(t)

	group := dao.Group{ID: "group-1", Name: "Клуб", OwnerId: "owner-1"}
	other := dao.Group{ID: "group-2", Name: "Другой", OwnerId: "owner-1"}
	require.NoError(t, db.Create(&[]dao.Group{group, other}).Error)

	open := dao.Entity{
		ID: dao.GenID(), OwnerId: "owner-1", GroupId: &group.ID,
		ReadAccess: pq.StringArray{string(Public), string(LoggedIn), string(UserToken("owner-1"))},
	}
	alreadyTight := dao.Entity{
		ID: dao.GenID(), OwnerId: "owner-1", GroupId: &group.ID,
		ReadAccess: pq.StringArray{string(GroupToken(group.ID))},
	}
	foreign := dao.Entity{
		ID: dao.GenID(), OwnerId: "owner-1", GroupId: &other.ID,
		ReadAccess: pq.StringArray{string(Public)},
	}
	require.NoError(t, db.Create(&[]dao.Entity{open, alreadyTight, foreign}).Error)

	require.NoError(t, ApplyGroupClosure(context.Background(), db, group.ID))

	var got dao.Entity
	require.NoError(t, db.First(&got, "id = ?", open.ID).Error)
	require.ElementsMatch(t, pq.StringArray{
		string(UserToken("owner-1")), string(GroupToken(group.ID)),
	}, got.ReadAccess)

	got = dao.Entity{}
	require.NoError(t, db.First(&got, "id = ?", alreadyTight.ID).Error)
	require.Equal(t, pq.StringArray{string(GroupToken(group.ID))}, got.ReadAccess)

	// Материалы других групп не затрагиваются.
	got = dao.Entity{}
	require.NoError(t, db.First(&got, "id = ?", foreign.ID).Error)
	require.Equal(t, pq.StringArray{string(Public)}, got.ReadAccess)
}

func TestApplyGroupClosureInTransaction(t *testing.T) {
	db := testDB(t)

	group := dao.Group{ID: "group-1", Name: "Клуб", OwnerId: "owner-1"}
	require.NoError(t, db.Create(&group).Error)

	entities := make([]dao.Entity, 0, closureBatchSize+10)
	for range closureBatchSize + 10 {
		entities = append(entities, dao.Entity{
			ID: dao.GenID(), OwnerId: "owner-1", GroupId: &group.ID,
			ReadAccess: pq.StringArray{string(Public)},
		})
	}
	require.NoError(t, db.CreateInBatches(&entities, closureBatchSize).Error)

	// Перезапись внутри одной транзакции, как при закрытии группы
	// через API.
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return ApplyGroupClosure(context.Background(), tx, group.ID)
	}))

	var open int64
	require.NoError(t, db.Model(&dao.Entity{}).
		Where("group_id = ?", group.ID).
		Where("read_access LIKE ?", "%public%").
		Count(&open).Error)
	require.Zero(t, open)
}
