package middleware

import (
	"github.com/penflow/penflow-sync-service/pkg/app"
	"github.com/penflow/penflow-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// ShareClaimsKey gin context key for verified share token claims.
const ShareClaimsKey = "share_claims"

// ShareAuth verifies a read-only share token. The changeset a share token
// was minted for is the only one the request may read.
func ShareAuth(tokens *app.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := app.NewResponse(c)

		token := c.Query("shareToken")
		if token == "" {
			token = c.GetHeader("Share-Token")
		}
		if token == "" {
			response.ToResponse(code.ErrorInvalidShareToken)
			c.Abort()
			return
		}

		claims, err := tokens.ParseShareToken(token)
		if err != nil {
			response.ToResponse(code.ErrorInvalidShareToken)
			c.Abort()
			return
		}

		c.Set(ShareClaimsKey, claims)
		c.Next()
	}
}

// GetShareClaims reads the claims set by ShareAuth.
func GetShareClaims(c *gin.Context) *app.ShareClaims {
	v, exists := c.Get(ShareClaimsKey)
	if !exists {
		return nil
	}
	claims, _ := v.(*app.ShareClaims)
	return claims
}
