// Вычисление прав доступа к материалам.
//
// Основные возможности:
//   - Отображение числового уровня доступа в набор токенов и обратно
//   - Проверки чтения и записи по пересечению наборов токенов
//   - Жесткий приоритет закрытых групп над токенами материала
//   - Массовое ужесточение доступа при закрытии группы
package access

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aisa-it/polis/internal/polis/apierrors"
	"github.com/aisa-it/polis/internal/polis/dao"
	"github.com/aisa-it/polis/internal/polis/utils"
)

// Token - атомарное право доступа в наборах read_access/write_access.
type Token string

const (
	Public   Token = "public"
	LoggedIn Token = "logged_in"
)

// UserToken возвращает персональный токен пользователя.
func UserToken(userID string) Token {
	return Token("user:" + userID)
}

// GroupToken возвращает токен участников группы.
func GroupToken(groupID string) Token {
	return Token("group:" + groupID)
}

// SubgroupToken возвращает токен подгруппы.
func SubgroupToken(subgroupID int) Token {
	return Token("subgroup:" + strconv.Itoa(subgroupID))
}

// Базовые уровни доступа, видимые пользователю. Значения начиная с
// dao.SubgroupAccessOffset кодируют идентификатор подгруппы.
const (
	LevelOwnerOnly = 0
	LevelLoggedIn  = 1
	LevelPublic    = 2
	LevelGroup     = 4
)

// TokensForLevel отображает уровень доступа в набор токенов.
// Уровень 4 требует, чтобы материал принадлежал группе.
//
// Возвращает:
//   - []Token: токены, соответствующие уровню
//   - error: ErrBadAccessLevel или ErrEntityGroupRequired
func TokensForLevel(level int, entity *dao.Entity) ([]Token, error) {
	if level >= dao.SubgroupAccessOffset {
		return []Token{SubgroupToken(level - dao.SubgroupAccessOffset)}, nil
	}
	switch level {
	case LevelOwnerOnly:
		return []Token{UserToken(entity.OwnerId)}, nil
	case LevelLoggedIn:
		return []Token{LoggedIn}, nil
	case LevelPublic:
		return []Token{Public}, nil
	case LevelGroup:
		if entity.GroupId == nil || *entity.GroupId == "" {
			return nil, apierrors.ErrEntityGroupRequired
		}
		return []Token{GroupToken(*entity.GroupId)}, nil
	default:
		return nil, apierrors.ErrBadAccessLevel.WithFormattedMessage(level)
	}
}

// LevelForTokens - обратная проекция набора токенов в уровень для
// отображения. Проекция с потерями: произвольный набор сводится к
// ближайшему представимому уровню. Гарантируется только
// TokensForLevel(LevelForTokens(TokensForLevel(l))) == TokensForLevel(l).
func LevelForTokens(tokens []Token, entity *dao.Entity) int {
	set := utils.SliceToSet(tokens)
	if _, ok := set[Public]; ok {
		return LevelPublic
	}
	if _, ok := set[LoggedIn]; ok {
		return LevelLoggedIn
	}
	if entity.GroupId != nil {
		if _, ok := set[GroupToken(*entity.GroupId)]; ok {
			return LevelGroup
		}
	}
	for token := range set {
		if id, ok := strings.CutPrefix(string(token), "subgroup:"); ok {
			if n, err := strconv.Atoi(id); err == nil {
				return dao.SubgroupAccessOffset + n
			}
		}
	}
	return LevelOwnerOnly
}

// TokenStrings переводит токены в строковый вид для хранения.
func TokenStrings(tokens []Token) []string {
	res := make([]string, len(tokens))
	for i, t := range tokens {
		res[i] = string(t)
	}
	return res
}

// LevelChoice - допустимый вариант уровня доступа для материала.
type LevelChoice struct {
	Level int    `json:"level"`
	Label string `json:"label"`
}

// ChoicesForEntity возвращает уровни доступа, доступные материалу:
// базовые уровни, уровень группы при её наличии и уровни всех её подгрупп.
// На закрытом сайте публичный уровень не предлагается.
func ChoicesForEntity(membership dao.Membership, entity *dao.Entity, subgroups []dao.Subgroup, siteClosed bool) ([]LevelChoice, error) {
	choices := []LevelChoice{
		{Level: LevelOwnerOnly, Label: "Только владелец"},
		{Level: LevelLoggedIn, Label: "Авторизованные"},
	}
	if !siteClosed {
		choices = append(choices, LevelChoice{Level: LevelPublic, Label: "Все"})
	}
	if entity.GroupId == nil {
		return choices, nil
	}
	closed, err := membership.IsClosed(*entity.GroupId)
	if err != nil {
		return nil, err
	}
	if closed {
		// В закрытой группе публичные уровни не предлагаются.
		choices = choices[:1]
	}
	choices = append(choices, LevelChoice{Level: LevelGroup, Label: "Участники группы"})
	for _, sg := range subgroups {
		choices = append(choices, LevelChoice{
			Level: sg.AccessID(),
			Label: fmt.Sprintf("Подгруппа «%s»", sg.Name),
		})
	}
	return choices, nil
}
