package dao

import (
	"time"

	"gorm.io/gorm"
)

// Роли участников группы.
const (
	GroupRoleMember = "member"
	GroupRoleAdmin  = "admin"
	GroupRoleOwner  = "owner"
)

type Group struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`

	// Закрытая группа: контент группы виден только участникам,
	// независимо от токенов доступа материала.
	IsClosed bool `json:"is_closed" gorm:"default:false"`

	OwnerId string `json:"owner_id"`
	Owner   *User  `json:"-" gorm:"foreignKey:OwnerId" extensions:"x-nullable"`

	Subgroups []Subgroup `json:"subgroups,omitempty" gorm:"foreignKey:GroupId"`
}

// Возвращает имя таблицы для данного типа структуры.
func (Group) TableName() string { return "groups" }

// Subgroup - подгруппа внутри группы. AccessID - её смещенный идентификатор
// уровня доступа, всегда >= SubgroupAccessOffset.
type Subgroup struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`

	GroupId string `json:"group_id" gorm:"index"`
	Group   *Group `json:"-" gorm:"foreignKey:GroupId" extensions:"x-nullable"`
}

// Возвращает имя таблицы для данного типа структуры.
func (Subgroup) TableName() string { return "subgroups" }

// AccessID возвращает смещенный идентификатор уровня доступа подгруппы.
func (s *Subgroup) AccessID() int { return SubgroupAccessOffset + s.ID }

// Смещение идентификаторов подгрупп относительно базовых уровней доступа.
const SubgroupAccessOffset = 10000

type GroupMember struct {
	Id        string    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	GroupId string `json:"group_id" gorm:"index:group_members_unique,unique"`
	UserId  string `json:"user_id" gorm:"index:group_members_unique,unique"`
	Role    string `json:"role" gorm:"default:member"`

	Group *Group `json:"-" gorm:"foreignKey:GroupId" extensions:"x-nullable"`
	User  *User  `json:"-" gorm:"foreignKey:UserId" extensions:"x-nullable"`
}

// Возвращает имя таблицы для данного типа структуры.
func (GroupMember) TableName() string { return "group_members" }

// Membership - коллаборатор проверок членства, используемый пакетом access.
type Membership interface {
	IsFullMember(userID, groupID string) (bool, error)
	GroupRole(userID, groupID string) (string, error)
	MemberGroupIDs(userID string) ([]string, error)
	IsClosed(groupID string) (bool, error)
}

type membership struct {
	db *gorm.DB
}

// NewMembership возвращает реализацию Membership поверх базы данных.
func NewMembership(db *gorm.DB) Membership {
	return &membership{db: db}
}

func (m *membership) IsFullMember(userID, groupID string) (bool, error) {
	if userID == "" || groupID == "" {
		return false, nil
	}
	var count int64
	err := m.db.Model(&GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (m *membership) GroupRole(userID, groupID string) (string, error) {
	var member GroupMember
	err := m.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

func (m *membership) MemberGroupIDs(userID string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}
	var ids []string
	err := m.db.Model(&GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	return ids, err
}

func (m *membership) IsClosed(groupID string) (bool, error) {
	var group Group
	if err := m.db.Select("is_closed").Where("id = ?", groupID).First(&group).Error; err != nil {
		return false, err
	}
	return group.IsClosed, nil
}
