package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin             UserRole = "admin"
	RoleResearcher        UserRole = "researcher"
	RoleReviewer          UserRole = "reviewer"
	RoleComplianceMonitor UserRole = "compliance_monitor"
	RoleQA                UserRole = "qa"
	RoleSubmissionAgent   UserRole = "submission_agent"
)

// AllRoles is the closed set of assignable roles.
var AllRoles = []UserRole{
	RoleAdmin,
	RoleResearcher,
	RoleReviewer,
	RoleComplianceMonitor,
	RoleQA,
	RoleSubmissionAgent,
}

type User struct {
	gorm.Model
	Username     string   `gorm:"uniqueIndex;size:150;not null"`
	Email        string   `gorm:"size:255"`
	FirstName    string   `gorm:"size:150"`
	LastName     string   `gorm:"size:150"`
	PasswordHash string   `gorm:"not null"`
	Role         UserRole `gorm:"type:varchar(20);not null"`

	Department        string `gorm:"size:100"`
	Phone             string `gorm:"size:20"`
	SecurityClearance string `gorm:"size:50"`

	LastActivity *time.Time
}

// Capabilities is the set of permission flags derived from a role.
type Capabilities struct {
	ManageUsers           bool
	ResearchOpportunities bool
	ReviewContent         bool
	MonitorCompliance     bool
	SubmitProposals       bool
}

// роль -> набор прав; admin получает всё, у каждой роли набор непустой
var roleCapabilities = map[UserRole]Capabilities{
	RoleAdmin: {
		ManageUsers:           true,
		ResearchOpportunities: true,
		ReviewContent:         true,
		MonitorCompliance:     true,
		SubmitProposals:       true,
	},
	RoleResearcher: {
		ResearchOpportunities: true,
	},
	RoleReviewer: {
		ReviewContent: true,
	},
	RoleComplianceMonitor: {
		MonitorCompliance: true,
	},
	RoleQA: {
		ReviewContent: true,
	},
	RoleSubmissionAgent: {
		SubmitProposals: true,
	},
}

// CapabilitiesFor resolves a role to its capability set. An unknown role is a
// data-integrity defect and is reported as an error, never defaulted.
func CapabilitiesFor(role UserRole) (Capabilities, error) {
	caps, ok := roleCapabilities[role]
	if !ok {
		return Capabilities{}, fmt.Errorf("unknown user role %q", role)
	}
	return caps, nil
}

func (u *User) Capabilities() (Capabilities, error) {
	return CapabilitiesFor(u.Role)
}

func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}
