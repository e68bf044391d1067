package billing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/TESCHEL/clienthub/pkg/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Event kinds the reconciler folds into subscription state. Anything else is
// acknowledged and ignored.
const (
	EventCheckoutCompleted       = "checkout.session.completed"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventInvoicePaymentFailed    = "invoice.payment_failed"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
)

// Outcomes of processing a single event.
const (
	OutcomeApplied = "applied"
	OutcomeNoop    = "noop"
	OutcomeIgnored = "ignored"
)

// Event is the provider's signed delivery envelope.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a verified delivery payload.
func ParseEvent(payload []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	return &evt, nil
}

// eventTime is the provider-side creation time of the event; it drives the
// last_event_at reordering guard.
func (e *Event) eventTime() time.Time {
	if e.Created == 0 {
		return time.Now().UTC()
	}
	return time.Unix(e.Created, 0).UTC()
}

// Reconciler folds provider events into Subscription rows. Every effect is
// an absolute-value upsert keyed by tenant id or provider subscription id
// and guarded on event time, so replayed or reordered deliveries converge on
// the provider's authoritative state instead of regressing it. A handler
// whose target row does not exist affects zero rows and is a no-op, not an
// error: the provider may deliver events for subscriptions this tenant
// already detached from.
type Reconciler struct {
	db       *gorm.DB
	provider Provider
	cfg      *config.PaymentConfig
}

// NewReconciler creates a reconciler over db using the provider client.
func NewReconciler(db *gorm.DB, provider Provider, cfg *config.PaymentConfig) *Reconciler {
	return &Reconciler{db: db, provider: provider, cfg: cfg}
}

// Process applies one verified event and reports the outcome.
func (r *Reconciler) Process(evt *Event) (string, error) {
	switch evt.Type {
	case EventCheckoutCompleted:
		return r.handleCheckoutCompleted(evt)
	case EventInvoicePaymentSucceeded:
		return r.handleInvoicePaymentSucceeded(evt)
	case EventInvoicePaymentFailed:
		return r.handleInvoicePaymentFailed(evt)
	case EventSubscriptionDeleted:
		return r.handleSubscriptionDeleted(evt)
	default:
		return OutcomeIgnored, nil
	}
}

type checkoutSessionObject struct {
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

func (r *Reconciler) handleCheckoutCompleted(evt *Event) (string, error) {
	var session checkoutSessionObject
	if err := json.Unmarshal(evt.Data.Object, &session); err != nil {
		return "", fmt.Errorf("decoding checkout session: %w", err)
	}

	tenantID, err := strconv.ParseUint(session.Metadata["tenant_id"], 10, 32)
	if err != nil || session.Subscription == "" {
		// A checkout without our metadata or without a subscription is not
		// ours to reconcile.
		return OutcomeNoop, nil
	}

	sub, err := r.provider.Subscription(session.Subscription)
	if err != nil {
		return "", fmt.Errorf("fetching subscription %s: %w", session.Subscription, err)
	}

	eventTime := evt.eventTime()
	row := model.Subscription{
		TenantID:               uint(tenantID),
		ProviderSubscriptionID: sub.ID,
		ProviderPriceID:        sub.PriceID,
		Plan:                   PlanFromPriceID(r.cfg, sub.PriceID),
		Status:                 model.SubscriptionActive,
		LastEventAt:            eventTime,
	}
	if !sub.CurrentPeriodEnd.IsZero() {
		end := sub.CurrentPeriodEnd
		row.CurrentPeriodEnd = &end
	}

	err = r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"provider_subscription_id": row.ProviderSubscriptionID,
			"provider_price_id":        row.ProviderPriceID,
			"plan":                     row.Plan,
			"status":                   row.Status,
			"current_period_end":       row.CurrentPeriodEnd,
			"last_event_at":            eventTime,
			"updated_at":               time.Now().UTC(),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lte{Column: clause.Column{Table: "subscriptions", Name: "last_event_at"}, Value: eventTime},
		}},
	}).Create(&row).Error
	if err != nil {
		return "", fmt.Errorf("upserting subscription: %w", err)
	}
	return OutcomeApplied, nil
}

type invoiceObject struct {
	Subscription string `json:"subscription"`
}

func (r *Reconciler) handleInvoicePaymentSucceeded(evt *Event) (string, error) {
	var invoice invoiceObject
	if err := json.Unmarshal(evt.Data.Object, &invoice); err != nil {
		return "", fmt.Errorf("decoding invoice: %w", err)
	}
	if invoice.Subscription == "" {
		return OutcomeNoop, nil
	}

	// The provider's current period end is authoritative, never a delta.
	sub, err := r.provider.Subscription(invoice.Subscription)
	if err != nil {
		return "", fmt.Errorf("fetching subscription %s: %w", invoice.Subscription, err)
	}

	updates := map[string]interface{}{
		"status":        model.SubscriptionActive,
		"last_event_at": evt.eventTime(),
	}
	if !sub.CurrentPeriodEnd.IsZero() {
		updates["current_period_end"] = sub.CurrentPeriodEnd
	}

	return r.updateBySubscriptionID(invoice.Subscription, evt.eventTime(), updates)
}

func (r *Reconciler) handleInvoicePaymentFailed(evt *Event) (string, error) {
	var invoice invoiceObject
	if err := json.Unmarshal(evt.Data.Object, &invoice); err != nil {
		return "", fmt.Errorf("decoding invoice: %w", err)
	}
	if invoice.Subscription == "" {
		return OutcomeNoop, nil
	}

	return r.updateBySubscriptionID(invoice.Subscription, evt.eventTime(), map[string]interface{}{
		"status":        model.SubscriptionPastDue,
		"last_event_at": evt.eventTime(),
	})
}

type subscriptionObject struct {
	ID string `json:"id"`
}

func (r *Reconciler) handleSubscriptionDeleted(evt *Event) (string, error) {
	var sub subscriptionObject
	if err := json.Unmarshal(evt.Data.Object, &sub); err != nil {
		return "", fmt.Errorf("decoding subscription: %w", err)
	}
	if sub.ID == "" {
		return OutcomeNoop, nil
	}

	// Clearing the provider ids also detaches the row from any stale invoice
	// events still in flight for the dead subscription.
	return r.updateBySubscriptionID(sub.ID, evt.eventTime(), map[string]interface{}{
		"plan":                     model.PlanFree,
		"status":                   model.SubscriptionCanceled,
		"provider_subscription_id": "",
		"provider_price_id":        "",
		"last_event_at":            evt.eventTime(),
	})
}

// updateBySubscriptionID applies absolute values to every row matching the
// provider subscription id (zero or one), skipping rows that already saw a
// newer event.
func (r *Reconciler) updateBySubscriptionID(subscriptionID string, eventTime time.Time, updates map[string]interface{}) (string, error) {
	res := r.db.Model(&model.Subscription{}).
		Where("provider_subscription_id = ? AND last_event_at <= ?", subscriptionID, eventTime).
		Updates(updates)
	if res.Error != nil {
		return "", fmt.Errorf("updating subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return OutcomeNoop, nil
	}
	return OutcomeApplied, nil
}
