package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

var TenantBootstrapCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "clienthub_tenant_bootstrap_total",
		Help: "Total number of first-login tenant bootstraps",
	},
)

var ClientCreateCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "clienthub_client_create_total",
		Help: "Total number of client creations",
	},
)

var ProjectCreateCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "clienthub_project_create_total",
		Help: "Total number of project creations",
	},
)

var ApprovalRespondCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "clienthub_approval_respond_total",
		Help: "Total number of approval responses by outcome",
	},
	[]string{"status"},
)

var PortalViewCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "clienthub_portal_view_total",
		Help: "Total number of portal reads by token holders",
	},
)

var WebhookEventCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "clienthub_webhook_event_total",
		Help: "Total number of payment provider events by kind and result",
	},
	[]string{"kind", "result"},
)

var WebhookSignatureFailureCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "clienthub_webhook_signature_failure_total",
		Help: "Total number of payment provider deliveries rejected for a bad signature",
	},
)

var EntitlementDeniedCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "clienthub_entitlement_denied_total",
		Help: "Total number of operations denied by plan limits",
	},
	[]string{"limit"},
)

func init() {
	prometheus.MustRegister(TenantBootstrapCounter)
	prometheus.MustRegister(ClientCreateCounter)
	prometheus.MustRegister(ProjectCreateCounter)
	prometheus.MustRegister(ApprovalRespondCounter)
	prometheus.MustRegister(PortalViewCounter)
	prometheus.MustRegister(WebhookEventCounter)
	prometheus.MustRegister(WebhookSignatureFailureCounter)
	prometheus.MustRegister(EntitlementDeniedCounter)
}
