// Package billing keeps a tenant's subscription state consistent with the
// payment provider's event stream and answers entitlement questions from it.
package billing

import (
	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/TESCHEL/clienthub/pkg/config"
)

// Limits are the plan entitlements enforced at project and file creation.
// A negative value means unlimited.
type Limits struct {
	MaxProjects        int   `json:"max_projects"`
	MaxFilesPerProject int   `json:"max_files_per_project"`
	MaxFileSize        int64 `json:"max_file_size"`
	CustomBranding     bool  `json:"custom_branding"`
}

var planLimits = map[string]Limits{
	model.PlanFree: {
		MaxProjects:        3,
		MaxFilesPerProject: 10,
		MaxFileSize:        5 * 1024 * 1024,
		CustomBranding:     false,
	},
	model.PlanPro: {
		MaxProjects:        25,
		MaxFilesPerProject: 100,
		MaxFileSize:        50 * 1024 * 1024,
		CustomBranding:     true,
	},
	model.PlanTeam: {
		MaxProjects:        -1,
		MaxFilesPerProject: -1,
		MaxFileSize:        100 * 1024 * 1024,
		CustomBranding:     true,
	},
}

// LimitsFor returns the entitlement limits for a plan. Unknown plans get the
// free tier.
func LimitsFor(plan string) Limits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[model.PlanFree]
}

// PlanFromPriceID maps a provider price id onto a plan via the configured
// PRO/TEAM price ids. Anything else resolves to FREE.
func PlanFromPriceID(cfg *config.PaymentConfig, priceID string) string {
	switch {
	case priceID != "" && priceID == cfg.ProPriceID:
		return model.PlanPro
	case priceID != "" && priceID == cfg.TeamPriceID:
		return model.PlanTeam
	default:
		return model.PlanFree
	}
}

// withinLimit reports whether a count below max is still available; negative
// max means unlimited.
func withinLimit(current int64, max int) bool {
	return max < 0 || current < int64(max)
}
