package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/TESCHEL/clienthub/internal/apperr"
	"github.com/TESCHEL/clienthub/internal/model"
	"gorm.io/gorm"
)

func seedSubscription(t *testing.T, db *gorm.DB, tenantID uint, plan, status string) {
	t.Helper()
	sub := model.Subscription{
		TenantID:    tenantID,
		Plan:        plan,
		Status:      status,
		LastEventAt: time.Unix(0, 0).UTC(),
	}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("seeding subscription: %v", err)
	}
}

func TestPlanForTenant(t *testing.T) {
	db := newTestDB(t)

	seedSubscription(t, db, 1, model.PlanPro, model.SubscriptionActive)
	seedSubscription(t, db, 2, model.PlanPro, model.SubscriptionPastDue)
	seedSubscription(t, db, 3, model.PlanTeam, model.SubscriptionCanceled)

	tests := []struct {
		tenantID uint
		want     string
	}{
		{1, model.PlanPro},
		{2, model.PlanFree}, // past due loses entitlements
		{3, model.PlanFree}, // canceled loses entitlements
		{4, model.PlanFree}, // never subscribed
	}
	for _, tt := range tests {
		got, err := PlanForTenant(db, tt.tenantID)
		if err != nil {
			t.Fatalf("PlanForTenant(%d): %v", tt.tenantID, err)
		}
		if got != tt.want {
			t.Errorf("PlanForTenant(%d) = %q, want %q", tt.tenantID, got, tt.want)
		}
	}
}

func TestCheckProjectQuota(t *testing.T) {
	db := newTestDB(t)

	// Free tier allows three projects.
	for i := 0; i < 3; i++ {
		p := model.Project{ClientID: 1, TenantID: 1, Name: "P", Status: model.ProjectActive}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seeding project: %v", err)
		}
	}

	err := CheckProjectQuota(db, 1)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("at limit err = %v, want ErrForbidden", err)
	}

	// An active PRO subscription lifts the limit.
	seedSubscription(t, db, 1, model.PlanPro, model.SubscriptionActive)
	if err := CheckProjectQuota(db, 1); err != nil {
		t.Fatalf("under PRO limit err = %v, want nil", err)
	}
}

func TestCheckFileQuota(t *testing.T) {
	db := newTestDB(t)

	// Within free limits.
	if err := CheckFileQuota(db, 1, 1, 1024); err != nil {
		t.Fatalf("small file err = %v, want nil", err)
	}

	// Oversized file on the free tier.
	err := CheckFileQuota(db, 1, 1, 6*1024*1024)
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("oversized file err = %v, want a validation error", err)
	}

	// Count limit on the free tier.
	for i := 0; i < 10; i++ {
		f := model.File{ProjectID: 1, UploaderID: 1, Name: "f", URL: "https://x/f", Key: "k", Size: 1}
		if err := db.Create(&f).Error; err != nil {
			t.Fatalf("seeding file: %v", err)
		}
	}
	if err := CheckFileQuota(db, 1, 1, 1024); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("at file limit err = %v, want ErrForbidden", err)
	}

	// TEAM has no per-project count limit but still caps file size.
	seedSubscription(t, db, 1, model.PlanTeam, model.SubscriptionActive)
	if err := CheckFileQuota(db, 1, 1, 1024); err != nil {
		t.Fatalf("TEAM count err = %v, want nil", err)
	}
	if err := CheckFileQuota(db, 1, 1, 101*1024*1024); !errors.As(err, &verr) {
		t.Fatalf("TEAM oversized err = %v, want a validation error", err)
	}
}
