package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"modelhub/internal/controller"
	"modelhub/internal/model"
	"modelhub/internal/store"
)

// CurrentUser resolves the acting identity from a bearer token: the token's
// subject is loaded through the store as a record of the login type. Missing
// or invalid credentials yield the guest identity, never an error; actions
// decide what guests may do.
func CurrentUser(st store.Store, userDesc *model.Descriptor, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		controller.SetCurrentUser(c, model.Guest())

		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.Next()
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.Next()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.Next()
			return
		}
		id, ok := claims["user_id"].(float64)
		if !ok {
			c.Next()
			return
		}

		rec, err := st.Find(c.Request.Context(), userDesc, int64(id))
		if err == nil && rec != nil {
			controller.SetCurrentUser(c, model.AuthenticatedUser(rec))
		}
		c.Next()
	}
}
