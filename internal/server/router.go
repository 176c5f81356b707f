package server

import (
	"html/template"
	"net/http"

	"blackcoral/internal/config"
	"blackcoral/internal/handlers"
	"blackcoral/internal/middleware"
	"blackcoral/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func maskEmail(email string) string {
	runes := []rune(email)
	atIdx := -1
	for i, r := range runes {
		if r == '@' {
			atIdx = i
			break
		}
	}
	if atIdx <= 0 {
		return "***"
	}
	prefix := string(runes[:atIdx])
	domain := string(runes[atIdx:])
	if len(prefix) <= 2 {
		return prefix + "***" + domain
	}
	return string(runes[0:2]) + "***" + domain
}

func maskPhone(phone string) string {
	runes := []rune(phone)
	n := len(runes)
	if n <= 4 {
		return "***"
	}
	masked := make([]rune, n)
	for i := range runes {
		if i >= n-2 {
			masked[i] = runes[i]
		} else {
			masked[i] = '*'
		}
	}
	return string(masked)
}

func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	r.Static("/static", "./web/static")

	r.SetFuncMap(template.FuncMap{
		"eq":        func(a, b interface{}) bool { return a == b },
		"maskEmail": maskEmail,
		"maskPhone": maskPhone,
	})
	r.LoadHTMLGlob("web/templates/*.html")

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("blackcoral_session", store))

	r.Use(middleware.InjectUser())

	// ГЛАВНАЯ
	r.GET("/", handlers.IndexPage)

	// AUTH (HTML + JSON API для SPA)
	r.GET("/auth/login", handlers.ShowLogin)
	r.POST("/auth/login", handlers.Login)
	r.GET("/auth/csrf", handlers.CSRFToken)
	r.POST("/auth/api/login", handlers.APILogin)
	r.POST("/auth/api/logout", handlers.APILogout)
	r.GET("/auth/api/user", handlers.APIUser)
	r.GET("/auth/api/status", handlers.APIStatus)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	auth.GET("/auth/logout", handlers.Logout)
	auth.GET("/auth/profile", handlers.Profile)
	auth.GET("/dashboard", handlers.Dashboard)

	// УВЕДОМЛЕНИЯ — каждый видит только свои
	auth.GET("/notifications", handlers.ListNotifications)
	auth.POST("/notifications/read", handlers.MarkNotificationsRead)

	// ВОЗМОЖНОСТИ
	auth.GET("/opportunities",
		middleware.RequireCapability(func(c models.Capabilities) bool { return c.ResearchOpportunities }),
		handlers.ListOpportunities,
	)
	auth.GET("/opportunities/:id",
		middleware.RequireCapability(func(c models.Capabilities) bool { return c.ResearchOpportunities }),
		handlers.ShowOpportunityDetail,
	)
	auth.POST("/opportunities/:id/summarize",
		middleware.RequireCapability(func(c models.Capabilities) bool { return c.ResearchOpportunities }),
		handlers.RequestSummary,
	)

	// ДОКУМЕНТЫ
	auth.GET("/documents",
		middleware.RequireCapability(func(c models.Capabilities) bool { return c.ReviewContent }),
		handlers.ListDocuments,
	)
	auth.GET("/documents/:id",
		middleware.RequireCapability(func(c models.Capabilities) bool { return c.ReviewContent }),
		handlers.ShowDocumentDetail,
	)

	// КОМПЛАЕНС
	auth.GET("/compliance",
		middleware.RequireCapability(func(c models.Capabilities) bool { return c.MonitorCompliance }),
		handlers.ComplianceDashboard,
	)
	auth.GET("/compliance/rules",
		middleware.RequireCapability(func(c models.Capabilities) bool { return c.MonitorCompliance }),
		handlers.ListRules,
	)

	// правила создаёт только админ
	auth.GET("/compliance/rules/new",
		middleware.RequireCapability(func(c models.Capabilities) bool { return c.ManageUsers }),
		handlers.ShowNewRule,
	)
	auth.POST("/compliance/rules/new",
		middleware.RequireCapability(func(c models.Capabilities) bool { return c.ManageUsers }),
		handlers.CreateRule,
	)

	// ручной разбор — ревьюеры и комплаенс-мониторы
	auth.POST("/compliance/checks/:id/override",
		middleware.RequireCapability(func(c models.Capabilities) bool {
			return c.ReviewContent || c.MonitorCompliance
		}),
		handlers.OverrideCheck,
	)

	// АУДИТ
	auth.GET("/audit",
		middleware.RequireCapability(func(c models.Capabilities) bool { return c.ManageUsers }),
		handlers.ListAuditLogs,
	)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
