package middleware

import (
	"time"

	"blackcoral/internal/auth"
	"blackcoral/internal/database"
	"blackcoral/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

func InjectUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uidRaw := sess.Get("user_id"); uidRaw != nil {
			if uid, ok := uidRaw.(uint); ok && uid > 0 {
				var user models.User
				if err := database.DB.First(&user, uid).Error; err == nil {
					c.Set("CurrentUser", user)
					// обновляем last_activity на каждом аутентифицированном запросе
					_ = auth.TouchLastActivity(database.DB, user.ID, time.Now())
				}
			}
		}

		c.Next()
	}
}

// CurrentUser достаёт пользователя, положенного InjectUser.
func CurrentUser(c *gin.Context) (models.User, bool) {
	uVal, ok := c.Get("CurrentUser")
	if !ok {
		return models.User{}, false
	}
	user, ok := uVal.(models.User)
	return user, ok
}
