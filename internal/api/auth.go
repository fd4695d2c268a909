package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// Identity is the caller named by a verified token.
type Identity struct {
	ID       string
	Username string
}

const identityKey = "identity"

var (
	errTokenRequired = fiber.NewError(fiber.StatusForbidden, "token required")
	errTokenInvalid  = fiber.NewError(fiber.StatusUnauthorized, "invalid token")
)

// IssueToken signs an HS256 token carrying the id and username claims.
// Tokens are normally issued by the account service; this exists for local
// development and tests only.
func IssueToken(secret, id, username string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":       id,
		"username": username,
		"iat":      time.Now().Unix(),
	}
	if ttl > 0 {
		claims["exp"] = time.Now().Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies an HS256 token and returns its identity.
func ParseToken(secret, raw string) (Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, errors.New("invalid claims")
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return Identity{}, errors.New("token has no id claim")
	}
	name, _ := claims["username"].(string)
	return Identity{ID: id, Username: name}, nil
}

// requireAuth verifies the bearer token. With allowQuery the token may also
// come from ?token=, for links opened outside the app.
func (s *Server) requireAuth(allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := ""
		if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		} else if allowQuery {
			raw = c.Query("token")
		}
		if raw == "" {
			return errTokenRequired
		}
		id, err := ParseToken(s.cfg.JWTSecret, raw)
		if err != nil {
			return errTokenInvalid
		}
		if s.deps.Accounts != nil {
			if err := s.deps.Accounts.UpsertUser(c.UserContext(), id.ID, id.Username); err != nil {
				return fmt.Errorf("register user: %w", err)
			}
		}
		c.Locals(identityKey, id)
		return c.Next()
	}
}

func caller(c *fiber.Ctx) Identity {
	id, _ := c.Locals(identityKey).(Identity)
	return id
}
