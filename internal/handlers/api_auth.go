package handlers

import (
	"errors"
	"net/http"
	"time"

	"blackcoral/internal/auth"
	"blackcoral/internal/database"
	"blackcoral/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JSON-эндпоинты для отдельного SPA-фронтенда.

// userJSON сериализует пользователя для API; неизвестная роль — дефект
// данных, отдаём ошибку наверх, а не пустой набор прав.
func userJSON(user *models.User) (gin.H, error) {
	caps, err := user.Capabilities()
	if err != nil {
		return nil, err
	}
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       user.Role,
		"department": user.Department,
		"capabilities": gin.H{
			"can_manage_users":           caps.ManageUsers,
			"can_research_opportunities": caps.ResearchOpportunities,
			"can_review_content":         caps.ReviewContent,
			"can_monitor_compliance":     caps.MonitorCompliance,
			"can_submit_proposals":       caps.SubmitProposals,
		},
	}, nil
}

// CSRFToken выдаёт токен и кладёт его в сессию.
func CSRFToken(c *gin.Context) {
	sess := sessions.Default(c)

	token, ok := sess.Get("csrf_token").(string)
	if !ok || token == "" {
		token = uuid.NewString()
		sess.Set("csrf_token", token)
		_ = sess.Save()
	}

	c.JSON(http.StatusOK, gin.H{"csrfToken": token})
}

type apiLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func APILogin(c *gin.Context) {
	var req apiLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := auth.Authenticate(database.DB, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login temporarily unavailable"})
		return
	}

	now := time.Now()
	sessionKey := uuid.NewString()

	if _, err := auth.OpenSession(database.DB, user.ID, sessionKey, c.ClientIP(), c.Request.UserAgent(), now); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login temporarily unavailable"})
		return
	}
	_ = auth.TouchLastActivity(database.DB, user.ID, now)

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	sess.Set("role", string(user.Role))
	sess.Set("session_key", sessionKey)
	_ = sess.Save()

	database.CreateAuditLog(user.ID, "session", user.ID, "login", "API login: "+user.Username)

	payload, err := userJSON(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid role on account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": payload})
}

func APILogout(c *gin.Context) {
	sess := sessions.Default(c)

	if uid, ok := sess.Get("user_id").(uint); ok {
		if key, ok := sess.Get("session_key").(string); ok {
			_ = auth.CloseSession(database.DB, uid, key, time.Now())
		}
		database.CreateAuditLog(uid, "session", uid, "logout", "API logout")
	}

	sess.Clear()
	_ = sess.Save()
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func APIUser(c *gin.Context) {
	sess := sessions.Default(c)
	uid, ok := sess.Get("user_id").(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uid).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	payload, err := userJSON(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid role on account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": payload})
}

func APIStatus(c *gin.Context) {
	sess := sessions.Default(c)
	_, authed := sess.Get("user_id").(uint)
	c.JSON(http.StatusOK, gin.H{"authenticated": authed})
}
