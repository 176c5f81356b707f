package handlers

import (
	"net/http"
	"time"

	"blackcoral/internal/database"
	"blackcoral/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

func IndexPage(c *gin.Context) {
	sess := sessions.Default(c)
	_, ok := sess.Get("user_id").(uint)

	c.HTML(http.StatusOK, "index.html", gin.H{
		"isAuthed": ok,
	})
}

func Dashboard(c *gin.Context) {
	var openOpportunities int64
	database.DB.Model(&models.Opportunity{}).
		Where("response_date IS NULL OR response_date > ?", time.Now()).
		Count(&openOpportunities)

	var pendingDocuments int64
	database.DB.Model(&models.Document{}).
		Where("processing_status = ?", models.DocumentPending).
		Count(&pendingDocuments)

	var openFindings int64
	database.DB.Model(&models.ComplianceCheck{}).
		Where("status IN ?", []models.CheckStatus{
			models.StatusNonCompliant,
			models.StatusWarning,
			models.StatusNeedsReview,
		}).
		Count(&openFindings)

	render(c, http.StatusOK, "dashboard.html", gin.H{
		"openOpportunities": openOpportunities,
		"pendingDocuments":  pendingDocuments,
		"openFindings":      openFindings,
	})
}
