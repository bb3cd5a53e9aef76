package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultExpiration = time.Hour * 24
	issuer            = "Agora"
)

var (
	jwtSecret         = []byte("agora-dev-secret")
	jwtExpirationTime = defaultExpiration
)

// UserClaims Token 中携带的身份信息
type UserClaims struct {
	UserID uint64   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}
