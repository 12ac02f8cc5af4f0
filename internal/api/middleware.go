package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

const ownerKey = "ownerUserID"

// OwnerMiddleware extracts the owner identity from a Bearer token. The owner
// is opaque to the rest of the system. A request without an Authorization
// header proceeds with an empty owner (legacy unauthenticated corpus); a
// present but invalid token is rejected.
func OwnerMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(ownerKey, "")
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header", "status": "error"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "status": "error"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims", "status": "error"})
			c.Abort()
			return
		}
		owner, err := subjectClaim(claims)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "status": "error"})
			c.Abort()
			return
		}

		c.Set(ownerKey, owner)
		c.Next()
	}
}

// subjectClaim reads the subject as an opaque string. Numeric subjects from
// older tokens are stringified.
func subjectClaim(claims jwt.MapClaims) (string, error) {
	switch sub := claims["sub"].(type) {
	case string:
		return sub, nil
	case float64:
		return fmt.Sprintf("%.0f", sub), nil
	}
	return "", errors.New("token has no usable subject claim")
}

// owner returns the owner identity set by OwnerMiddleware.
func owner(c *gin.Context) string {
	return c.GetString(ownerKey)
}
