package access

import (
	"github.com/aisa-it/polis/internal/polis/dao"
	"github.com/aisa-it/polis/internal/polis/utils"
)

// EffectiveACL строит действующий набор токенов пользователя.
// Набор никогда не пуст: анонимный посетитель несет как минимум public.
func EffectiveACL(membership dao.Membership, viewer *dao.User) (map[Token]struct{}, error) {
	acl := map[Token]struct{}{Public: {}}
	if viewer == nil {
		return acl, nil
	}
	acl[LoggedIn] = struct{}{}
	acl[UserToken(viewer.ID)] = struct{}{}
	groupIDs, err := membership.MemberGroupIDs(viewer.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range groupIDs {
		acl[GroupToken(id)] = struct{}{}
	}
	return acl, nil
}

// CanRead проверяет право чтения материала.
//
// Порядок проверок:
//  1. Администратор читает всё
//  2. Закрытая группа: не участник не читает независимо от токенов
//  3. Пересечение read_access материала с действующим набором токенов
func CanRead(membership dao.Membership, entity *dao.Entity, viewer *dao.User) (bool, error) {
	if viewer != nil && viewer.IsAdmin {
		return true, nil
	}
	if ok, err := closedGroupDenies(membership, entity, viewer); err != nil || ok {
		return false, err
	}
	acl, err := EffectiveACL(membership, viewer)
	if err != nil {
		return false, err
	}
	return intersectsTokens(entity.ReadAccess, acl), nil
}

// CanWrite проверяет право записи материала. Помимо пересечения токенов
// запись дают владение материалом и роль admin/owner в его группе.
func CanWrite(membership dao.Membership, entity *dao.Entity, viewer *dao.User) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	if viewer.IsAdmin {
		return true, nil
	}
	if entity.OwnerId == viewer.ID {
		return true, nil
	}
	if entity.GroupId != nil {
		role, err := membership.GroupRole(viewer.ID, *entity.GroupId)
		if err != nil {
			return false, err
		}
		if role == dao.GroupRoleAdmin || role == dao.GroupRoleOwner {
			return true, nil
		}
	}
	if ok, err := closedGroupDenies(membership, entity, viewer); err != nil || ok {
		return false, err
	}
	acl, err := EffectiveACL(membership, viewer)
	if err != nil {
		return false, err
	}
	return intersectsTokens(entity.WriteAccess, acl), nil
}

func closedGroupDenies(membership dao.Membership, entity *dao.Entity, viewer *dao.User) (bool, error) {
	if entity.GroupId == nil {
		return false, nil
	}
	closed, err := membership.IsClosed(*entity.GroupId)
	if err != nil || !closed {
		return false, err
	}
	if viewer == nil {
		return true, nil
	}
	member, err := membership.IsFullMember(viewer.ID, *entity.GroupId)
	if err != nil {
		return false, err
	}
	return !member, nil
}

func intersectsTokens(stored []string, acl map[Token]struct{}) bool {
	set := make(map[Token]struct{}, len(stored))
	for _, s := range stored {
		set[Token(s)] = struct{}{}
	}
	return utils.Intersects(set, acl)
}
