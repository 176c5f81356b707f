package database

import (
	"log"
	"os"
	"time"

	"blackcoral/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(dsn string) {
	var err error

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		log.Printf("trying to connect to DB (attempt %d/%d)...", i, maxAttempts)

		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			log.Println("connected to DB successfully")
			break
		}

		log.Printf("failed to connect to DB: %v", err)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		log.Fatalf("failed to connect to db after %d attempts: %v", maxAttempts, err)
	}

	// миграции
	if err := Migrate(DB); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	// дефолтный админ и стартовый набор правил
	createDefaultAdmin()
	seedDefaultRules()
}

// Migrate прогоняет автомиграции для всех моделей.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserSession{},
		&models.UserPreferences{},
		&models.Agency{},
		&models.NAICSCode{},
		&models.Opportunity{},
		&models.Document{},
		&models.ComplianceRule{},
		&models.ComplianceCheck{},
		&models.AuditLog{},
		&models.Notification{},
	)
}

// админ только из кода/конфига; проверка существования по username —
// повторный запуск ничего не создаёт
func createDefaultAdmin() {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "Admin123!"
	}

	var count int64
	if err := DB.Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		log.Printf("failed to check admin user: %v", err)
		return
	}
	if count > 0 {
		// админ уже есть — ничего не делаем
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("failed to hash default admin password: %v", err)
		return
	}

	admin := models.User{
		Username:     username,
		Email:        username + "@blackcoral.local",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}

	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("failed to create default admin: %v", err)
		return
	}

	log.Printf("created default admin user: %s", username)
}

// стартовые правила комплаенса для демо/первого запуска
func seedDefaultRules() {
	type seedRule struct {
		Name     string
		RuleType models.RuleType
		Keywords []string
		Severity models.Severity
		RuleText string
	}

	rules := []seedRule{
		{
			Name:     "Export control (ITAR/EAR)",
			RuleType: models.RuleSecurity,
			Keywords: []string{"export-control", "itar", "ear"},
			Severity: models.SeverityCritical,
			RuleText: "Solicitations referencing export-controlled material require an export compliance review before submission.",
		},
		{
			Name:     "FAR 52.204-21 basic safeguarding",
			RuleType: models.RuleFAR,
			Keywords: []string{"52.204-21", "basic safeguarding", "covered contractor information"},
			Severity: models.SeverityHigh,
			RuleText: "Basic safeguarding of covered contractor information systems.",
		},
		{
			Name:     "Small business set-aside eligibility",
			RuleType: models.RuleCertification,
			Keywords: []string{"set-aside", "8(a)", "hubzone", "sdvosb"},
			Severity: models.SeverityMedium,
			RuleText: "Set-aside opportunities require current certification on file.",
		},
	}

	for _, r := range rules {
		var count int64
		if err := DB.Model(&models.ComplianceRule{}).
			Where("name = ?", r.Name).
			Count(&count).Error; err != nil {
			log.Printf("failed to check seed rule %q: %v", r.Name, err)
			continue
		}
		if count > 0 {
			// уже есть — пропускаем
			continue
		}

		rule := models.ComplianceRule{
			Name:     r.Name,
			RuleType: r.RuleType,
			Keywords: r.Keywords,
			Severity: r.Severity,
			RuleText: r.RuleText,
			Active:   true,
		}

		if err := DB.Create(&rule).Error; err != nil {
			log.Printf("failed to create seed rule %q: %v", r.Name, err)
			continue
		}

		log.Printf("created seed compliance rule: %s (severity=%s)", r.Name, r.Severity)
	}
}
