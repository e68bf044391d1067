package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/TESCHEL/clienthub/internal/scope"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func seedPortal(t *testing.T, db *gorm.DB) (client *model.Client, visible, hidden *model.Project) {
	t.Helper()

	tenant := model.Tenant{Name: "Studio", Slug: "studio-1"}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("seeding tenant: %v", err)
	}
	user := model.User{SubjectID: "sub-1", Email: "ana@example.com", Name: "Ana"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	client = &model.Client{
		TenantID:    tenant.ID,
		Name:        "Acme",
		Email:       "contact@acme.test",
		PortalToken: scope.NewPortalToken(),
	}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("seeding client: %v", err)
	}

	visible = &model.Project{ClientID: client.ID, TenantID: tenant.ID, Name: "Website", Status: model.ProjectActive, PortalEnabled: true}
	hidden = &model.Project{ClientID: client.ID, TenantID: tenant.ID, Name: "Internal", Status: model.ProjectActive, PortalEnabled: false}
	for _, p := range []*model.Project{visible, hidden} {
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("seeding project: %v", err)
		}
	}

	updates := []model.Update{
		{ProjectID: visible.ID, AuthorID: user.ID, Title: "Public", Content: "for the client", IsPublic: true},
		{ProjectID: visible.ID, AuthorID: user.ID, Title: "Private", Content: "internal note", IsPublic: false},
	}
	for i := range updates {
		if err := db.Create(&updates[i]).Error; err != nil {
			t.Fatalf("seeding update: %v", err)
		}
	}
	return client, visible, hidden
}

func getPortal(h *Handler, token string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/portal/:token")
	c.SetParamNames("token")
	c.SetParamValues(token)
	_ = h.PortalOverview(c)
	return rec
}

func TestPortalOverview(t *testing.T) {
	h, db, _ := newTestHandler(t, &stubProvider{})
	client, visible, _ := seedPortal(t, db)

	rec := getPortal(h, client.PortalToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Client struct {
			Name string `json:"name"`
		} `json:"client"`
		Projects []struct {
			ID uint `json:"id"`
		} `json:"projects"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Client.Name != "Acme" {
		t.Errorf("client name = %q, want Acme", body.Client.Name)
	}
	if len(body.Projects) != 1 || body.Projects[0].ID != visible.ID {
		t.Errorf("projects = %v, want only the portal-enabled project", body.Projects)
	}
}

func TestPortalOverviewUnknownToken(t *testing.T) {
	h, db, _ := newTestHandler(t, &stubProvider{})
	seedPortal(t, db)

	rec := getPortal(h, "no-such-token")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPortalProjectHidesPrivateUpdates(t *testing.T) {
	h, db, _ := newTestHandler(t, &stubProvider{})
	client, visible, hidden := seedPortal(t, db)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/portal/:token/projects/:id")
	c.SetParamNames("token", "id")
	c.SetParamValues(client.PortalToken, strconv.FormatUint(uint64(visible.ID), 10))
	_ = h.PortalProject(c)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Updates []struct {
			Title    string `json:"title"`
			IsPublic bool   `json:"is_public"`
		} `json:"updates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Updates) != 1 || !body.Updates[0].IsPublic {
		t.Errorf("updates = %v, want only the public update", body.Updates)
	}

	// The portal-disabled project is a 404, indistinguishable from missing.
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec2)
	c2.SetPath("/portal/:token/projects/:id")
	c2.SetParamNames("token", "id")
	c2.SetParamValues(client.PortalToken, strconv.FormatUint(uint64(hidden.ID), 10))
	_ = h.PortalProject(c2)
	if rec2.Code != http.StatusNotFound {
		t.Errorf("hidden project status = %d, want 404", rec2.Code)
	}
}

func TestPortalRespondApproval(t *testing.T) {
	h, db, _ := newTestHandler(t, &stubProvider{})
	client, visible, _ := seedPortal(t, db)

	approval := model.Approval{ProjectID: visible.ID, RequestedByID: 1, Title: "Design", Status: model.ApprovalPending}
	if err := db.Create(&approval).Error; err != nil {
		t.Fatalf("seeding approval: %v", err)
	}

	respond := func(token string, id uint, payload string) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/portal/:token/approvals/:id/respond")
		c.SetParamNames("token", "id")
		c.SetParamValues(token, strconv.FormatUint(uint64(id), 10))
		_ = h.PortalRespondApproval(c)
		return rec
	}

	rec := respond(client.PortalToken, approval.ID, `{"status":"APPROVED","feedback":"looks great"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var updated model.Approval
	db.First(&updated, approval.ID)
	if updated.Status != model.ApprovalApproved || updated.Feedback != "looks great" {
		t.Errorf("approval = status %q feedback %q, want APPROVED/looks great", updated.Status, updated.Feedback)
	}

	// A second response conflicts and leaves the decision alone.
	rec = respond(client.PortalToken, approval.ID, `{"status":"REJECTED"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("second response status = %d, want 409", rec.Code)
	}

	// A bad token never reaches the workflow.
	rec = respond("bogus", approval.ID, `{"status":"APPROVED"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("bad token status = %d, want 404", rec.Code)
	}
}
