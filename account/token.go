package account

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"cookiq/models"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Claims is the payload of a bearer token. The subject is the user id.
type Claims struct {
	Roles models.Role `json:"roles"`
	jwt.RegisteredClaims
}

// Guard issues and checks bearer tokens.
type Guard struct {
	secret []byte
	ttl    time.Duration
}

func NewGuard(secret string, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Guard{secret: []byte(secret), ttl: ttl}
}

func (g *Guard) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

func (g *Guard) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// RequireAuth rejects requests without a valid bearer token.
func (g *Guard) RequireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw := strings.TrimPrefix(header, "Bearer ")
	if header == "" || raw == header {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	claims, err := g.ParseToken(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	c.Set(ctxUserID, claims.Subject)
	c.Set(ctxRole, claims.Roles)
	c.Next()
}

// RequireAdmin must run after RequireAuth.
func (g *Guard) RequireAdmin(c *gin.Context) {
	if Role(c) != models.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}
	c.Next()
}

// UserID is the subject of the request's token, "" if none was checked.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func Role(c *gin.Context) models.Role {
	role, _ := c.Get(ctxRole)
	r, _ := role.(models.Role)
	return r
}
