package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"receptionist-platform/internal/auth"
	"receptionist-platform/internal/callrecord"
	"receptionist-platform/internal/config"
	"receptionist-platform/internal/reporting"
	"receptionist-platform/internal/store"
	"receptionist-platform/internal/vapi"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVendor struct {
	assistant vapi.Assistant
	phone     vapi.PhoneNumber
	calls     []vapi.Call
	err       error
}

func (f *fakeVendor) GetAssistant(ctx context.Context, id string) (vapi.Assistant, error) {
	return f.assistant, f.err
}

func (f *fakeVendor) UpdateAssistant(ctx context.Context, id string, patch map[string]any) (vapi.Assistant, error) {
	return f.assistant, f.err
}

func (f *fakeVendor) GetPhoneNumber(ctx context.Context, id string) (vapi.PhoneNumber, error) {
	return f.phone, f.err
}

func (f *fakeVendor) UpdatePhoneNumber(ctx context.Context, id string, patch map[string]any) (vapi.PhoneNumber, error) {
	return f.phone, f.err
}

func (f *fakeVendor) ListCalls(ctx context.Context, filters vapi.CallFilters) ([]vapi.Call, error) {
	return f.calls, f.err
}

type apiFixture struct {
	router  *gin.Engine
	mem     *store.Memory
	manager *auth.Manager
	profile store.Profile
	token   string
	vendor  *fakeVendor
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()

	mem := store.NewMemory()
	p := mem.SeedProfile(store.Profile{
		AccountID:       "acct-1",
		Email:           "owner@example.com",
		VapiAssistantID: "asst-1",
	})

	mgr, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("auth manager: %v", err)
	}

	vendor := &fakeVendor{assistant: vapi.Assistant{ID: "asst-1", Name: "Grace"}}
	h := Handlers{
		Auth:       mgr,
		Store:      mem,
		Vendor:     vendor,
		Reports:    reporting.NewService(mem),
		Normalizer: &callrecord.Normalizer{},
	}

	r := gin.New()
	h.Register(r, auth.RequireAccessToken(mgr), nil)

	pair, err := mgr.IssuePair(time.Now(), p.ID, p.AccountID, p.Email)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	return &apiFixture{router: r, mem: mem, manager: mgr, profile: p, token: pair.AccessToken, vendor: vendor}
}

func (f *apiFixture) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func (f *apiFixture) seedCall(t *testing.T, vendorID string, rec callrecord.Record) store.Call {
	t.Helper()
	rcp, err := f.mem.GetOrCreateReceptionist(context.Background(), f.profile.ID)
	if err != nil {
		t.Fatalf("GetOrCreateReceptionist: %v", err)
	}
	rec.VendorCallID = vendorID
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	}
	if rec.Label == "" {
		rec.Label = callrecord.LabelOther
	}
	call, err := f.mem.UpsertIngestedCall(context.Background(), rcp.ID, rec)
	if err != nil {
		t.Fatalf("UpsertIngestedCall: %v", err)
	}
	return call
}

func TestLogin(t *testing.T) {
	f := newAPI(t)

	w := f.do(t, http.MethodPost, "/v1/auth/login", `{"email": "owner@example.com"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["access_token"] == "" || resp["refresh_token"] == "" {
		t.Fatalf("expected token pair, got %v", resp)
	}

	if w := f.do(t, http.MethodPost, "/v1/auth/login", `{"email": "nobody@example.com"}`, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: status = %d", w.Code)
	}
}

func TestRegisterAndLink(t *testing.T) {
	f := newAPI(t)

	w := f.do(t, http.MethodPost, "/v1/auth/register", `{"email": "new@example.com"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", w.Code, w.Body.String())
	}
	if decode(t, w)["email"] != "new@example.com" {
		t.Fatalf("unexpected profile body: %s", w.Body.String())
	}

	if w := f.do(t, http.MethodPost, "/v1/auth/register", `{"email": "new@example.com"}`, ""); w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status = %d", w.Code)
	}
	if w := f.do(t, http.MethodPost, "/v1/auth/register", `{}`, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing email: status = %d", w.Code)
	}

	w = f.do(t, http.MethodPost, "/v1/auth/login", `{"email": "new@example.com"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login after register: status = %d", w.Code)
	}
	token := decode(t, w)["access_token"].(string)

	// A fresh profile has no assistant, so the vendor proxy refuses it.
	if w := f.do(t, http.MethodGet, "/v1/vapi/assistant", "", token); w.Code != http.StatusNotFound {
		t.Fatalf("unlinked proxy: status = %d", w.Code)
	}

	w = f.do(t, http.MethodPut, "/v1/profile/assistant", `{"vapi_assistant_id": "asst-2"}`, token)
	if w.Code != http.StatusOK {
		t.Fatalf("link: status = %d, body = %s", w.Code, w.Body.String())
	}
	if w := f.do(t, http.MethodGet, "/v1/vapi/assistant", "", token); w.Code != http.StatusOK {
		t.Fatalf("proxy after link: status = %d", w.Code)
	}

	if w := f.do(t, http.MethodPut, "/v1/profile/assistant", `{}`, token); w.Code != http.StatusBadRequest {
		t.Fatalf("empty link: status = %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	f := newAPI(t)
	if w := f.do(t, http.MethodGet, "/v1/calls", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/v1/calls", "", "garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d", w.Code)
	}
}

func TestCallLifecycle(t *testing.T) {
	f := newAPI(t)
	call := f.seedCall(t, "v1", callrecord.Record{
		CallerNumber:    "+15551234567",
		DurationSeconds: 125,
		MinutesBilled:   2.09,
		Cost:            0.08,
	})

	w := f.do(t, http.MethodGet, "/v1/calls", "", f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d", w.Code)
	}
	resp := decode(t, w)
	if calls, ok := resp["calls"].([]any); !ok || len(calls) != 1 {
		t.Fatalf("expected 1 call, got %v", resp)
	}

	w = f.do(t, http.MethodGet, "/v1/calls/"+call.ID, "", f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status = %d", w.Code)
	}

	if w := f.do(t, http.MethodPatch, "/v1/calls/"+call.ID, `{"label": "bogus"}`, f.token); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid label: status = %d", w.Code)
	}

	w = f.do(t, http.MethodPatch, "/v1/calls/"+call.ID, `{"label": "lead"}`, f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("patch: status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["label"]; got != "lead" {
		t.Errorf("label = %v", got)
	}

	if w := f.do(t, http.MethodDelete, "/v1/calls/"+call.ID, "", f.token); w.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/v1/calls/"+call.ID, "", f.token); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status = %d", w.Code)
	}
}

func TestCallFilters(t *testing.T) {
	f := newAPI(t)
	f.seedCall(t, "v1", callrecord.Record{Label: callrecord.LabelLead})
	f.seedCall(t, "v2", callrecord.Record{Label: callrecord.LabelSpam})

	w := f.do(t, http.MethodGet, "/v1/calls?label=lead", "", f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if calls := decode(t, w)["calls"].([]any); len(calls) != 1 {
		t.Fatalf("expected 1 lead call, got %d", len(calls))
	}

	if w := f.do(t, http.MethodGet, "/v1/calls?label=bogus", "", f.token); w.Code != http.StatusBadRequest {
		t.Fatalf("bogus label: status = %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/v1/calls?since=not-a-time", "", f.token); w.Code != http.StatusBadRequest {
		t.Fatalf("bad since: status = %d", w.Code)
	}
}

func TestTenantIsolation(t *testing.T) {
	f := newAPI(t)
	call := f.seedCall(t, "v1", callrecord.Record{})

	other := f.mem.SeedProfile(store.Profile{AccountID: "acct-2", Email: "other@example.com"})
	pair, err := f.manager.IssuePair(time.Now(), other.ID, other.AccountID, other.Email)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if w := f.do(t, http.MethodGet, "/v1/calls/"+call.ID, "", pair.AccessToken); w.Code != http.StatusNotFound {
		t.Fatalf("cross-tenant get: status = %d", w.Code)
	}
	if w := f.do(t, http.MethodDelete, "/v1/calls/"+call.ID, "", pair.AccessToken); w.Code != http.StatusNotFound {
		t.Fatalf("cross-tenant delete: status = %d", w.Code)
	}

	w := f.do(t, http.MethodGet, "/v1/calls", "", pair.AccessToken)
	if calls := decode(t, w)["calls"].([]any); len(calls) != 0 {
		t.Fatalf("cross-tenant list: got %d calls", len(calls))
	}
}

func TestReceptionistCRUD(t *testing.T) {
	f := newAPI(t)

	w := f.do(t, http.MethodPost, "/v1/receptionists", `{"name": "Front Desk", "vapi_assistant_id": "asst-1"}`, f.token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", w.Code, w.Body.String())
	}
	id := decode(t, w)["id"].(string)

	w = f.do(t, http.MethodGet, "/v1/receptionists", "", f.token)
	if rs := decode(t, w)["receptionists"].([]any); len(rs) != 1 {
		t.Fatalf("expected 1 receptionist, got %d", len(rs))
	}

	w = f.do(t, http.MethodPatch, "/v1/receptionists/"+id, `{"status": "active"}`, f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("patch: status = %d", w.Code)
	}
	if got := decode(t, w)["status"]; got != "active" {
		t.Errorf("status = %v", got)
	}

	w = f.do(t, http.MethodGet, "/v1/receptionists/"+id+"/metrics", "", f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: status = %d", w.Code)
	}

	// Foreign tenants must see 404, not 403.
	other := f.mem.SeedProfile(store.Profile{AccountID: "acct-2", Email: "other@example.com"})
	pair, _ := f.manager.IssuePair(time.Now(), other.ID, other.AccountID, other.Email)
	if w := f.do(t, http.MethodGet, "/v1/receptionists/"+id, "", pair.AccessToken); w.Code != http.StatusNotFound {
		t.Fatalf("cross-tenant get: status = %d", w.Code)
	}

	if w := f.do(t, http.MethodDelete, "/v1/receptionists/"+id, "", f.token); w.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", w.Code)
	}
}

func TestUserMetrics(t *testing.T) {
	f := newAPI(t)
	f.seedCall(t, "v1", callrecord.Record{MinutesBilled: 2, Cost: 0.25})
	f.seedCall(t, "v2", callrecord.Record{MinutesBilled: 3, Cost: 0.5})

	w := f.do(t, http.MethodGet, "/v1/metrics", "", f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode(t, w)
	if resp["total_calls"].(float64) != 2 {
		t.Errorf("total_calls = %v", resp["total_calls"])
	}
	if resp["total_minutes_used"].(float64) != 5 {
		t.Errorf("total_minutes_used = %v", resp["total_minutes_used"])
	}
}

func TestVendorAssistantProxy(t *testing.T) {
	f := newAPI(t)

	w := f.do(t, http.MethodGet, "/v1/vapi/assistant", "", f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode(t, w)["name"]; got != "Grace" {
		t.Errorf("name = %v", got)
	}

	// Unlinked profile gets 404 before any vendor round trip.
	other := f.mem.SeedProfile(store.Profile{AccountID: "acct-2", Email: "other@example.com"})
	pair, _ := f.manager.IssuePair(time.Now(), other.ID, other.AccountID, other.Email)
	if w := f.do(t, http.MethodGet, "/v1/vapi/assistant", "", pair.AccessToken); w.Code != http.StatusNotFound {
		t.Fatalf("unlinked: status = %d", w.Code)
	}
}

func TestListVendorCallsNormalizes(t *testing.T) {
	f := newAPI(t)
	f.vendor.calls = []vapi.Call{{
		ID:        "vapi-raw-1",
		StartedAt: "2026-03-01T10:00:00Z",
		EndedAt:   "2026-03-01T10:02:05Z",
		Customer:  &vapi.Customer{Number: "+15551234567"},
		Cost:      0.08,
	}}

	w := f.do(t, http.MethodGet, "/v1/vapi/calls", "", f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	calls := decode(t, w)["calls"].([]any)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	rec := calls[0].(map[string]any)
	if rec["caller_number"] != "+15551234567" {
		t.Errorf("caller_number = %v", rec["caller_number"])
	}
	if rec["duration_seconds"].(float64) != 125 {
		t.Errorf("duration_seconds = %v", rec["duration_seconds"])
	}

	if w := f.do(t, http.MethodGet, "/v1/vapi/calls?limit=0", "", f.token); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: status = %d", w.Code)
	}
}

func TestReportSummaryEndpoint(t *testing.T) {
	f := newAPI(t)
	f.seedCall(t, "v1", callrecord.Record{
		Label:           callrecord.LabelLead,
		DurationSeconds: 120,
		MinutesBilled:   2,
		Cost:            0.25,
	})

	w := f.do(t, http.MethodGet, "/v1/reports/summary?from=2026-03-01T00:00:00Z&to=2026-03-02T00:00:00Z", "", f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["total_calls"].(float64) != 1 || resp["lead_calls"].(float64) != 1 {
		t.Errorf("summary = %v", resp)
	}

	if w := f.do(t, http.MethodGet, "/v1/reports/summary?from=bogus", "", f.token); w.Code != http.StatusBadRequest {
		t.Fatalf("bad from: status = %d", w.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	f := newAPI(t)
	f.seedCall(t, "v1", callrecord.Record{DurationSeconds: 60, MinutesBilled: 1, Cost: 0.1})

	w := f.do(t, http.MethodGet, "/v1/reports/export?from=2026-03-01T00:00:00Z&to=2026-03-02T00:00:00Z", "", f.token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Body.Len() == 0 {
		t.Errorf("expected workbook bytes")
	}
}
