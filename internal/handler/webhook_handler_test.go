package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TESCHEL/clienthub/internal/billing"
	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/TESCHEL/clienthub/pkg/config"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
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

	err = db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.Membership{},
		&model.Client{},
		&model.Project{},
		&model.Update{},
		&model.ChecklistItem{},
		&model.File{},
		&model.Approval{},
		&model.Subscription{},
	)
	if err != nil {
		t.Fatalf("migrating models: %v", err)
	}
	return db
}

type stubProvider struct {
	subs map[string]*billing.ProviderSubscription
}

func (s *stubProvider) Subscription(id string) (*billing.ProviderSubscription, error) {
	if sub, ok := s.subs[id]; ok {
		return sub, nil
	}
	return nil, fmt.Errorf("no such subscription %s", id)
}

func (s *stubProvider) EnsureCustomer(email, name string, tenantID uint) (string, error) {
	return "cus_stub", nil
}

func (s *stubProvider) CreateCheckoutSession(p billing.CheckoutParams) (*billing.Session, error) {
	return &billing.Session{ID: "cs_stub", URL: "https://pay.example/checkout"}, nil
}

func (s *stubProvider) CreatePortalSession(customerID, returnURL string) (*billing.Session, error) {
	return &billing.Session{ID: "bps_stub", URL: "https://pay.example/portal"}, nil
}

func newTestHandler(t *testing.T, provider billing.Provider) (*Handler, *gorm.DB, *config.PaymentConfig) {
	t.Helper()
	db := newTestDB(t)
	payment := &config.PaymentConfig{
		WebhookSecret: "whsec_test",
		ProPriceID:    "price_pro",
		TeamPriceID:   "price_team",
	}
	return New(db, provider, payment), db, payment
}

func postWebhook(t *testing.T, h *Handler, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.PaymentWebhook(c); err != nil {
		t.Fatalf("webhook handler returned error: %v", err)
	}
	return rec
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	h, db, _ := newTestHandler(t, &stubProvider{})

	payload := []byte(`{"id":"evt_1","type":"invoice.payment_failed","created":1000,"data":{"object":{"subscription":"sub_1"}}}`)

	rec := postWebhook(t, h, payload, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing signature status = %d, want 400", rec.Code)
	}

	rec = postWebhook(t, h, payload, billing.SignPayload(payload, "whsec_wrong", time.Now()))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("wrong secret status = %d, want 400", rec.Code)
	}

	// Nothing may be applied from a rejected delivery.
	var count int64
	db.Model(&model.Subscription{}).Count(&count)
	if count != 0 {
		t.Errorf("subscription rows after rejected delivery = %d, want 0", count)
	}
}

func TestPaymentWebhookAppliesVerifiedEvent(t *testing.T) {
	h, db, payment := newTestHandler(t, &stubProvider{})

	seed := model.Subscription{
		TenantID:               7,
		ProviderSubscriptionID: "sub_1",
		Plan:                   model.PlanPro,
		Status:                 model.SubscriptionActive,
		LastEventAt:            time.Unix(500, 0).UTC(),
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seeding subscription: %v", err)
	}

	payload := []byte(`{"id":"evt_1","type":"invoice.payment_failed","created":1000,"data":{"object":{"subscription":"sub_1"}}}`)
	rec := postWebhook(t, h, payload, billing.SignPayload(payload, payment.WebhookSecret, time.Now()))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["received"] != true {
		t.Errorf("body = %v, want received:true", body)
	}

	var sub model.Subscription
	db.First(&sub, seed.ID)
	if sub.Status != model.SubscriptionPastDue {
		t.Errorf("status = %q, want PAST_DUE", sub.Status)
	}
}

func TestPaymentWebhookAcknowledgesUnhandledEvents(t *testing.T) {
	h, _, payment := newTestHandler(t, &stubProvider{})

	payload := []byte(`{"id":"evt_1","type":"customer.updated","created":1000,"data":{"object":{}}}`)
	rec := postWebhook(t, h, payload, billing.SignPayload(payload, payment.WebhookSecret, time.Now()))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
