package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"blackcoral/internal/auth"
	"blackcoral/internal/database"
	"blackcoral/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func ShowLogin(c *gin.Context) {
	sess := sessions.Default(c)
	if sess.Get("user_id") != nil {
		// уже вошли — HTMX получает заголовок, браузер — редирект
		if c.GetHeader("HX-Request") != "" {
			c.Header("HX-Redirect", "/dashboard")
			c.Status(http.StatusOK)
			return
		}
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	render(c, http.StatusOK, "login.html", gin.H{"error": ""})
}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

func Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		render(c, http.StatusBadRequest, "login.html", gin.H{"error": "Invalid form data"})
		return
	}

	form.Username = strings.TrimSpace(form.Username)

	user, err := auth.Authenticate(database.DB, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			render(c, http.StatusBadRequest, "login.html", gin.H{"error": "Invalid username or password"})
			return
		}
		render(c, http.StatusInternalServerError, "login.html", gin.H{"error": "Login temporarily unavailable"})
		return
	}

	now := time.Now()
	sessionKey := uuid.NewString()

	if _, err := auth.OpenSession(database.DB, user.ID, sessionKey, c.ClientIP(), c.Request.UserAgent(), now); err != nil {
		render(c, http.StatusInternalServerError, "login.html", gin.H{"error": "Login temporarily unavailable"})
		return
	}
	_ = auth.TouchLastActivity(database.DB, user.ID, now)

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	sess.Set("role", string(user.Role))
	sess.Set("session_key", sessionKey)
	_ = sess.Save()

	database.CreateAuditLog(user.ID, "session", user.ID, "login", "User logged in: "+user.Username)

	if c.GetHeader("HX-Request") != "" {
		c.Header("HX-Redirect", "/dashboard")
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func Logout(c *gin.Context) {
	sess := sessions.Default(c)

	if uid, ok := sess.Get("user_id").(uint); ok {
		if key, ok := sess.Get("session_key").(string); ok {
			// закрытие несуществующей сессии — молчаливый no-op
			_ = auth.CloseSession(database.DB, uid, key, time.Now())
		}
		database.CreateAuditLog(uid, "session", uid, "logout", "User logged out")
	}

	sess.Clear()
	_ = sess.Save()
	c.Redirect(http.StatusFound, "/auth/login")
}

func Profile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	recent, err := auth.RecentSessions(database.DB, user.ID, 5)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load sessions")
		return
	}

	render(c, http.StatusOK, "profile.html", gin.H{
		"user":           user,
		"recentSessions": recent,
	})
}
