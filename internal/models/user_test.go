package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nonEmpty(c Capabilities) bool {
	return c.ManageUsers || c.ResearchOpportunities || c.ReviewContent ||
		c.MonitorCompliance || c.SubmitProposals
}

func TestCapabilitiesMappingIsTotal(t *testing.T) {
	for _, role := range AllRoles {
		t.Run(string(role), func(t *testing.T) {
			caps, err := CapabilitiesFor(role)
			require.NoError(t, err)
			assert.True(t, nonEmpty(caps), "role %s must grant at least one capability", role)
		})
	}
}

func TestCapabilitiesForUnknownRole(t *testing.T) {
	_, err := CapabilitiesFor(UserRole("superuser"))
	require.Error(t, err)

	_, err = CapabilitiesFor(UserRole(""))
	require.Error(t, err)
}

func TestRoleCapabilityScenarios(t *testing.T) {
	tests := []struct {
		role UserRole
		want Capabilities
	}{
		{
			role: RoleAdmin,
			want: Capabilities{
				ManageUsers:           true,
				ResearchOpportunities: true,
				ReviewContent:         true,
				MonitorCompliance:     true,
				SubmitProposals:       true,
			},
		},
		{
			role: RoleResearcher,
			want: Capabilities{ResearchOpportunities: true},
		},
		{
			role: RoleReviewer,
			want: Capabilities{ReviewContent: true},
		},
		{
			role: RoleComplianceMonitor,
			want: Capabilities{MonitorCompliance: true},
		},
		{
			role: RoleQA,
			want: Capabilities{ReviewContent: true},
		},
		{
			role: RoleSubmissionAgent,
			want: Capabilities{SubmitProposals: true},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			user := User{Username: "u", Role: tt.role}
			caps, err := user.Capabilities()
			require.NoError(t, err)
			assert.Equal(t, tt.want, caps)
		})
	}
}

func TestDisplayName(t *testing.T) {
	u := User{Username: "jdoe", FirstName: "Jane", LastName: "Doe"}
	assert.Equal(t, "Jane Doe", u.DisplayName())

	u = User{Username: "jdoe"}
	assert.Equal(t, "jdoe", u.DisplayName())
}
