package polis

import (
	"strings"
	"time"

	"github.com/aisa-it/polis/internal/polis/dao"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const accessTokenLifetime = 24 * time.Hour

// AuthContext несет аутентифицированного пользователя запроса.
// User равен nil для анонимного посетителя.
type AuthContext struct {
	echo.Context
	User *dao.User
}

// IssueToken выдает подписанный токен доступа для пользователя.
func IssueToken(secret []byte, userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenLifetime)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// AuthMiddleware разбирает заголовок Authorization и кладет пользователя
// в контекст. Запрос без токена проходит как анонимный: решение о
// доступе принимает проверка прав, а не аутентификация.
func AuthMiddleware(secret []byte, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(AuthContext{c, nil})
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return c.NoContent(401)
			}

			token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				return c.NoContent(401)
			}

			claims := token.Claims.(*jwt.RegisteredClaims)
			user, err := dao.GetUser(db, claims.Subject)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return c.NoContent(401)
				}
				return EError(c, err)
			}
			return next(AuthContext{c, user})
		}
	}
}
