package approval

import (
	"errors"
	"sync"
	"testing"

	"github.com/TESCHEL/clienthub/internal/apperr"
	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("getting sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.Approval{}); err != nil {
		t.Fatalf("migrating models: %v", err)
	}
	return db
}

func TestCreate(t *testing.T) {
	w := NewWorkflow(newTestDB(t))

	approval, err := w.Create(1, 2, "Homepage design", "Please review the mockups")
	if err != nil {
		t.Fatalf("creating approval: %v", err)
	}
	if approval.Status != model.ApprovalPending {
		t.Errorf("status = %q, want PENDING", approval.Status)
	}
	if approval.RespondedAt != nil {
		t.Error("expected RespondedAt to be unset on creation")
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	w := NewWorkflow(newTestDB(t))

	_, err := w.Create(1, 2, "   ", "no title")
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want a validation error", err)
	}
}

func TestRespond(t *testing.T) {
	w := NewWorkflow(newTestDB(t))

	created, err := w.Create(1, 2, "Homepage design", "")
	if err != nil {
		t.Fatalf("creating approval: %v", err)
	}

	responded, err := w.Respond(created.ID, model.ApprovalRejected, "colors are off")
	if err != nil {
		t.Fatalf("responding: %v", err)
	}
	if responded.Status != model.ApprovalRejected {
		t.Errorf("status = %q, want REJECTED", responded.Status)
	}
	if responded.Feedback != "colors are off" {
		t.Errorf("feedback = %q, want the submitted feedback", responded.Feedback)
	}
	if responded.RespondedAt == nil {
		t.Error("expected RespondedAt to be set")
	}
}

func TestRespondInvalidStatus(t *testing.T) {
	w := NewWorkflow(newTestDB(t))

	created, err := w.Create(1, 2, "Homepage design", "")
	if err != nil {
		t.Fatalf("creating approval: %v", err)
	}

	for _, status := range []string{"PENDING", "approved", "", "DONE"} {
		_, err := w.Respond(created.ID, status, "")
		var verr *apperr.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Respond(%q) err = %v, want a validation error", status, err)
		}
	}
}

func TestRespondMissing(t *testing.T) {
	w := NewWorkflow(newTestDB(t))

	_, err := w.Respond(9999, model.ApprovalApproved, "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRespondPreservesFirstDecision(t *testing.T) {
	db := newTestDB(t)
	w := NewWorkflow(db)

	created, err := w.Create(1, 2, "Homepage design", "")
	if err != nil {
		t.Fatalf("creating approval: %v", err)
	}

	first, err := w.Respond(created.ID, model.ApprovalApproved, "ship it")
	if err != nil {
		t.Fatalf("first response: %v", err)
	}

	_, err = w.Respond(created.ID, model.ApprovalRejected, "wait, no")
	if !errors.Is(err, apperr.ErrAlreadyResponded) {
		t.Fatalf("second response err = %v, want ErrAlreadyResponded", err)
	}

	var current model.Approval
	if err := db.First(&current, created.ID).Error; err != nil {
		t.Fatalf("reloading approval: %v", err)
	}
	if current.Status != model.ApprovalApproved || current.Feedback != "ship it" {
		t.Errorf("row changed after losing response: status=%q feedback=%q", current.Status, current.Feedback)
	}
	if !current.RespondedAt.Equal(*first.RespondedAt) {
		t.Errorf("responded_at changed from %v to %v", first.RespondedAt, current.RespondedAt)
	}
}

func TestRespondConcurrentExactlyOneWins(t *testing.T) {
	w := NewWorkflow(newTestDB(t))

	created, err := w.Create(1, 2, "Homepage design", "")
	if err != nil {
		t.Fatalf("creating approval: %v", err)
	}

	const responders = 8
	var wg sync.WaitGroup
	errs := make([]error, responders)
	for i := 0; i < responders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = w.Respond(created.ID, model.ApprovalApproved, "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, apperr.ErrAlreadyResponded):
		default:
			t.Errorf("responder %d: unexpected error %v", i, err)
		}
	}
	if wins != 1 {
		t.Errorf("winning responses = %d, want exactly 1", wins)
	}
}
