package handlers

import (
	"net/http"
	"strconv"

	"blackcoral/internal/database"
	"blackcoral/internal/models"

	"github.com/gin-gonic/gin"
)

func ListDocuments(c *gin.Context) {
	statusStr := c.Query("status")

	dbq := database.DB.Preload("Opportunity").Order("created_at desc")
	if statusStr != "" {
		dbq = dbq.Where("processing_status = ?", statusStr)
	}

	var documents []models.Document
	if err := dbq.Limit(200).Find(&documents).Error; err != nil {
		c.String(http.StatusInternalServerError, "failed to load documents")
		return
	}

	render(c, http.StatusOK, "documents_list.html", gin.H{
		"documents":    documents,
		"FilterStatus": statusStr,
	})
}

func ShowDocumentDetail(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		c.String(http.StatusBadRequest, "invalid document id")
		return
	}

	var doc models.Document
	if err := database.DB.Preload("Opportunity").First(&doc, id).Error; err != nil {
		c.String(http.StatusNotFound, "document not found")
		return
	}

	var checks []models.ComplianceCheck
	database.DB.
		Where("document_id = ?", doc.ID).
		Preload("Rule").
		Preload("ReviewedBy").
		Order("created_at desc").
		Find(&checks)

	render(c, http.StatusOK, "document_detail.html", gin.H{
		"doc":    doc,
		"checks": checks,
	})
}
