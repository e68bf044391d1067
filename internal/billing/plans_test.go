package billing

import (
	"testing"

	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/TESCHEL/clienthub/pkg/config"
)

func TestLimitsFor(t *testing.T) {
	tests := []struct {
		plan         string
		maxProjects  int
		maxFiles     int
		branding     bool
	}{
		{model.PlanFree, 3, 10, false},
		{model.PlanPro, 25, 100, true},
		{model.PlanTeam, -1, -1, true},
		{"NONSENSE", 3, 10, false},
		{"", 3, 10, false},
	}
	for _, tt := range tests {
		got := LimitsFor(tt.plan)
		if got.MaxProjects != tt.maxProjects || got.MaxFilesPerProject != tt.maxFiles || got.CustomBranding != tt.branding {
			t.Errorf("LimitsFor(%q) = %+v", tt.plan, got)
		}
	}
}

func TestPlanFromPriceID(t *testing.T) {
	cfg := &config.PaymentConfig{
		ProPriceID:  "price_pro",
		TeamPriceID: "price_team",
	}

	tests := []struct {
		priceID string
		want    string
	}{
		{"price_pro", model.PlanPro},
		{"price_team", model.PlanTeam},
		{"price_other", model.PlanFree},
		{"", model.PlanFree},
	}
	for _, tt := range tests {
		if got := PlanFromPriceID(cfg, tt.priceID); got != tt.want {
			t.Errorf("PlanFromPriceID(%q) = %q, want %q", tt.priceID, got, tt.want)
		}
	}
}

func TestPlanFromPriceIDUnconfigured(t *testing.T) {
	// With no price ids configured, an empty price id must not match.
	cfg := &config.PaymentConfig{}
	if got := PlanFromPriceID(cfg, ""); got != model.PlanFree {
		t.Errorf("PlanFromPriceID with empty config = %q, want FREE", got)
	}
}

func TestWithinLimit(t *testing.T) {
	tests := []struct {
		current int64
		max     int
		want    bool
	}{
		{0, 3, true},
		{2, 3, true},
		{3, 3, false},
		{100, -1, true},
	}
	for _, tt := range tests {
		if got := withinLimit(tt.current, tt.max); got != tt.want {
			t.Errorf("withinLimit(%d, %d) = %v, want %v", tt.current, tt.max, got, tt.want)
		}
	}
}
