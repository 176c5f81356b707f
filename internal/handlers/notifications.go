package handlers

import (
	"net/http"
	"time"

	"blackcoral/internal/database"
	"blackcoral/internal/middleware"
	"blackcoral/internal/notifications"

	"github.com/gin-gonic/gin"
)

func ListNotifications(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	recent, err := notifications.ListRecent(database.DB, user.ID, 50)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load notifications")
		return
	}

	unread, _ := notifications.UnreadCount(database.DB, user.ID)

	render(c, http.StatusOK, "notifications_list.html", gin.H{
		"notifications": recent,
		"unread":        unread,
	})
}

func MarkNotificationsRead(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	if _, err := notifications.MarkAllRead(database.DB, user.ID, time.Now()); err != nil {
		c.String(http.StatusInternalServerError, "failed to mark notifications read")
		return
	}

	c.Redirect(http.StatusFound, "/notifications")
}
