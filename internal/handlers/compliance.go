package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"blackcoral/internal/compliance"
	"blackcoral/internal/database"
	"blackcoral/internal/middleware"
	"blackcoral/internal/models"
	"blackcoral/internal/notifications"

	"github.com/gin-gonic/gin"
)

// Дашборд комплаенса: очередь на разбор, critical/high сверху.
func ComplianceDashboard(c *gin.Context) {
	evaluator := compliance.NewEvaluator(database.DB, nil, nil)

	queue, err := evaluator.ReviewQueue(100)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load review queue")
		return
	}

	var total, compliant int64
	database.DB.Model(&models.ComplianceCheck{}).Count(&total)
	database.DB.Model(&models.ComplianceCheck{}).
		Where("status = ?", models.StatusCompliant).
		Count(&compliant)

	render(c, http.StatusOK, "compliance_dashboard.html", gin.H{
		"queue":     queue,
		"total":     total,
		"compliant": compliant,
	})
}

// ====== КАТАЛОГ ПРАВИЛ ======

func ListRules(c *gin.Context) {
	var rules []models.ComplianceRule
	database.DB.Preload("Agency").Order("severity asc, name asc").Find(&rules)

	render(c, http.StatusOK, "rules_list.html", gin.H{
		"rules": rules,
	})
}

func ShowNewRule(c *gin.Context) {
	var agencies []models.Agency
	database.DB.Order("abbreviation asc").Find(&agencies)

	render(c, http.StatusOK, "rules_new.html", gin.H{
		"agencies": agencies,
		"error":    "",
	})
}

func CreateRule(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	desc := strings.TrimSpace(c.PostForm("description"))
	ruleText := strings.TrimSpace(c.PostForm("rule_text"))
	ruleTypeStr := c.PostForm("rule_type")
	severityStr := c.PostForm("severity")
	keywordsStr := c.PostForm("keywords")

	if len(name) < 3 {
		renderRuleError(c, "Rule name must be at least 3 characters")
		return
	}

	ruleType := models.RuleType(ruleTypeStr)
	switch ruleType {
	case models.RuleFAR, models.RuleAgency, models.RuleSecurity, models.RuleCertification:
	default:
		renderRuleError(c, "Invalid rule type")
		return
	}

	severity := models.Severity(severityStr)
	switch severity {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical:
	default:
		renderRuleError(c, "Invalid severity")
		return
	}

	// ключевые слова через запятую
	var keywords []string
	for _, kw := range strings.Split(keywordsStr, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	var agencyID *uint
	if aidStr := c.PostForm("agency_id"); aidStr != "" {
		if aid, err := strconv.Atoi(aidStr); err == nil && aid > 0 {
			id := uint(aid)
			agencyID = &id
		}
	}

	rule := models.ComplianceRule{
		Name:        name,
		Description: desc,
		RuleText:    ruleText,
		RuleType:    ruleType,
		AgencyID:    agencyID,
		Keywords:    keywords,
		Severity:    severity,
		Active:      true,
	}

	if err := database.DB.Create(&rule).Error; err != nil {
		renderRuleError(c, "Failed to save rule")
		return
	}

	if user, ok := middleware.CurrentUser(c); ok {
		database.CreateAuditLog(user.ID, "rule", rule.ID, "create", "Created compliance rule: "+rule.Name)
		_, _ = notifications.NotifyCapabilityHolders(database.DB, user.ID,
			func(caps models.Capabilities) bool { return caps.MonitorCompliance },
			notifications.KindRuleCreated,
			"New compliance rule: "+rule.Name,
			"Severity "+string(rule.Severity)+", created by "+user.Username,
			"/compliance/rules")
	}

	c.Redirect(http.StatusFound, "/compliance/rules")
}

func renderRuleError(c *gin.Context, msg string) {
	var agencies []models.Agency
	database.DB.Order("abbreviation asc").Find(&agencies)

	render(c, http.StatusBadRequest, "rules_new.html", gin.H{
		"agencies": agencies,
		"error":    msg,
	})
}

// ====== РУЧНОЙ РАЗБОР ПРОВЕРОК ======

// OverrideCheck — ревьюер меняет статус/комментарий; auto_detected
// сохраняет происхождение результата.
func OverrideCheck(c *gin.Context) {
	idStr := c.Param("id")
	checkID, err := strconv.Atoi(idStr)
	if err != nil || checkID <= 0 {
		c.String(http.StatusBadRequest, "invalid check id")
		return
	}

	statusStr := c.PostForm("status")
	details := strings.TrimSpace(c.PostForm("details"))

	newStatus := models.CheckStatus(statusStr)
	switch newStatus {
	case models.StatusCompliant, models.StatusNonCompliant, models.StatusWarning, models.StatusNeedsReview:
	default:
		c.String(http.StatusBadRequest, "invalid status")
		return
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	evaluator := compliance.NewEvaluator(database.DB, nil, nil)
	if err := evaluator.Override(uint(checkID), &user, newStatus, details); err != nil {
		c.String(http.StatusInternalServerError, "failed to override check")
		return
	}

	database.CreateAuditLog(user.ID, "check", uint(checkID), "override",
		"Status overridden to: "+string(newStatus))
	_, _ = notifications.NotifyCapabilityHolders(database.DB, user.ID,
		func(caps models.Capabilities) bool { return caps.MonitorCompliance },
		notifications.KindCheckOverride,
		"Compliance check overridden",
		"Check #"+idStr+" set to "+string(newStatus)+" by "+user.Username,
		"/compliance")

	c.Redirect(http.StatusFound, "/compliance")
}
