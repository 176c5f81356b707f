package middleware

import (
	"net/http"

	"blackcoral/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		userID := sess.Get("user_id")
		if userID == nil {
			// HTMX-запрос получает заголовок-редирект вместо 302
			if c.GetHeader("HX-Request") != "" {
				c.Header("HX-Redirect", "/auth/login")
				c.Status(http.StatusOK)
				c.Abort()
				return
			}
			c.Redirect(http.StatusFound, "/auth/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCapability пускает только роли с нужным флагом из статической
// таблицы; неизвестная роль — дефект данных, отвечаем 500, а не молчим.
func RequireCapability(selector func(models.Capabilities) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		roleStr, ok := sess.Get("role").(string)
		if !ok {
			c.Redirect(http.StatusFound, "/auth/login")
			c.Abort()
			return
		}

		caps, err := models.CapabilitiesFor(models.UserRole(roleStr))
		if err != nil {
			c.String(http.StatusInternalServerError, "invalid role on session")
			c.Abort()
			return
		}

		if !selector(caps) {
			c.String(http.StatusForbidden, "access denied")
			c.Abort()
			return
		}
		c.Next()
	}
}
