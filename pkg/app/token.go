package app

import (
	"strings"
	"time"

	"github.com/penflow/penflow-sync-service/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ShareClaims is the payload of a read-only share token. Share tokens grant
// snapshot access to a single changeset without a session.
type ShareClaims struct {
	ChangesetID string `json:"changesetId"`
	UID         int64  `json:"uid"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies share tokens. The signing key is the
// configured secret salted with the machine id, so tokens do not survive a
// host move with a copied config.
type TokenManager struct {
	key    []byte
	expiry time.Duration
	issuer string
}

func NewTokenManager(secret string, expiry time.Duration, issuer string) *TokenManager {
	return &TokenManager{
		key:    []byte(util.EncodeSHA256(secret + util.GetMachineID())),
		expiry: expiry,
		issuer: issuer,
	}
}

// GenerateShareToken signs a share token for one changeset.
func (m *TokenManager) GenerateShareToken(changesetID string, uid int64) (string, error) {
	now := time.Now()
	claims := ShareClaims{
		ChangesetID: changesetID,
		UID:         uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", errors.Wrap(err, "sign share token")
	}
	return signed, nil
}

// ParseShareToken verifies a share token and returns its claims.
func (m *TokenManager) ParseShareToken(tokenStr string) (*ShareClaims, error) {
	claims := &ShareClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.key, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse share token")
	}
	if !token.Valid {
		return nil, errors.New("invalid share token")
	}
	return claims, nil
}

// GetSessionToken extracts the opaque session token from a request, checking
// the token header, a Bearer authorization header and the query string in
// that order.
func GetSessionToken(c *gin.Context) string {
	if token := c.GetHeader("Authorization"); token != "" {
		if strings.HasPrefix(token, "Bearer ") {
			return strings.TrimPrefix(token, "Bearer ")
		}
		return token
	}
	if token := c.GetHeader("Token"); token != "" {
		return token
	}
	return c.Query("token")
}
