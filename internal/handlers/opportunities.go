package handlers

import (
	"net/http"
	"strconv"

	"blackcoral/internal/database"
	"blackcoral/internal/middleware"
	"blackcoral/internal/models"
	"blackcoral/internal/tasks"

	"github.com/gin-gonic/gin"
)

// Список возможностей + фильтры
func ListOpportunities(c *gin.Context) {
	agencyIDStr := c.Query("agency_id")
	typeStr := c.Query("type")
	setAsideStr := c.Query("set_aside")

	dbq := database.DB.Preload("Agency").Order("posted_date desc")

	if agencyIDStr != "" {
		if aid, err := strconv.Atoi(agencyIDStr); err == nil && aid > 0 {
			dbq = dbq.Where("agency_id = ?", aid)
		}
	}
	if typeStr != "" {
		dbq = dbq.Where("opportunity_type = ?", typeStr)
	}
	if setAsideStr != "" {
		dbq = dbq.Where("set_aside_type = ?", setAsideStr)
	}

	var opportunities []models.Opportunity
	if err := dbq.Limit(200).Find(&opportunities).Error; err != nil {
		c.String(http.StatusInternalServerError, "failed to load opportunities")
		return
	}

	var agencies []models.Agency
	database.DB.Order("abbreviation asc").Find(&agencies)

	render(c, http.StatusOK, "opportunities_list.html", gin.H{
		"opportunities":  opportunities,
		"agencies":       agencies,
		"FilterAgencyID": agencyIDStr,
		"FilterType":     typeStr,
		"FilterSetAside": setAsideStr,
	})
}

func ShowOpportunityDetail(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		c.String(http.StatusBadRequest, "invalid opportunity id")
		return
	}

	var opp models.Opportunity
	// возможность сразу с документами и агентством
	if err := database.DB.
		Preload("Agency").
		Preload("Documents").
		First(&opp, id).Error; err != nil {
		c.String(http.StatusNotFound, "opportunity not found")
		return
	}

	var checks []models.ComplianceCheck
	database.DB.
		Where("opportunity_id = ?", opp.ID).
		Preload("Rule").
		Preload("ReviewedBy").
		Order("created_at desc").
		Find(&checks)

	render(c, http.StatusOK, "opportunity_detail.html", gin.H{
		"opp":    opp,
		"checks": checks,
	})
}

// RequestSummary ставит внеочередную AI-задачу для одной возможности.
func RequestSummary(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		c.String(http.StatusBadRequest, "invalid opportunity id")
		return
	}

	var opp models.Opportunity
	if err := database.DB.First(&opp, id).Error; err != nil {
		c.String(http.StatusNotFound, "opportunity not found")
		return
	}

	if err := tasks.EnqueueSummarize(opp.ID); err != nil {
		c.String(http.StatusInternalServerError, "failed to queue summarization")
		return
	}

	if user, ok := middleware.CurrentUser(c); ok {
		database.CreateAuditLog(user.ID, "opportunity", opp.ID, "summarize",
			"AI summary requested for "+opp.SolicitationNumber)
	}

	c.Redirect(http.StatusFound, "/opportunities/"+idStr)
}
