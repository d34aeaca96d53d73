package vapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"receptionist-platform/internal/config"
)

func testClient(t *testing.T, srv *httptest.Server, cfg config.VapiConfig) *Client {
	t.Helper()
	cfg.BaseURL = srv.URL
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	c.maxRetries = 0
	return c
}

func TestNewClient_RequiresAKey(t *testing.T) {
	if _, err := NewClient(config.VapiConfig{}); err == nil {
		t.Fatalf("expected error with no credentials")
	}
}

func TestClient_PrefersPrivateKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(Call{ID: "c1"})
	}))
	defer srv.Close()

	c := testClient(t, srv, config.VapiConfig{PrivateKey: "priv", PublicKey: "pub"})
	if _, err := c.GetCall(context.Background(), "c1"); err != nil {
		t.Fatalf("get call: %v", err)
	}
	if gotAuth != "Bearer priv" {
		t.Fatalf("expected private key to be used, got %q", gotAuth)
	}
}

func TestClient_PublicKeyIsReadOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Assistant{ID: "a1"})
	}))
	defer srv.Close()

	c := testClient(t, srv, config.VapiConfig{PublicKey: "pub"})
	if _, err := c.GetAssistant(context.Background(), "a1"); err != nil {
		t.Fatalf("read with public key should work: %v", err)
	}
	if _, err := c.UpdateAssistant(context.Background(), "a1", map[string]any{"name": "x"}); err != ErrWriteRequiresPrivateKey {
		t.Fatalf("expected ErrWriteRequiresPrivateKey, got %v", err)
	}
}

func TestClient_MapsAuthErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid Key"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv, config.VapiConfig{PrivateKey: "bad"})
	_, err := c.GetCall(context.Background(), "c1")
	if !IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if !strings.Contains(err.Error(), "VAPI_PRIVATE_KEY") {
		t.Fatalf("expected troubleshooting hint in message, got %q", err.Error())
	}
}

func TestClient_MapsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Assistant not found"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv, config.VapiConfig{PrivateKey: "k"})
	_, err := c.GetAssistant(context.Background(), "nope")
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestListCalls_BuildsQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":"c1"},{"id":"c2"}]`))
	}))
	defer srv.Close()

	c := testClient(t, srv, config.VapiConfig{PrivateKey: "k"})
	calls, err := c.ListCalls(context.Background(), CallFilters{AssistantID: "a1", Limit: 50})
	if err != nil {
		t.Fatalf("list calls: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if !strings.Contains(gotQuery, "assistantId=a1") || !strings.Contains(gotQuery, "limit=50") {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
}

func TestTriState_Decode(t *testing.T) {
	cases := []struct {
		in    string
		known bool
		val   bool
	}{
		{`true`, true, true},
		{`"true"`, true, true},
		{`false`, true, false},
		{`"false"`, true, false},
		{`null`, false, false},
		{`"7.5"`, false, false},
	}
	for _, tc := range cases {
		var ts TriState
		if err := json.Unmarshal([]byte(tc.in), &ts); err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if ts.Known() != tc.known || (tc.known && ts.True() != tc.val) {
			t.Fatalf("%s: got known=%v true=%v", tc.in, ts.Known(), ts.True())
		}
	}
}

func TestModelAndVoiceConfig_DecodeStringForm(t *testing.T) {
	var a Assistant
	if err := json.Unmarshal([]byte(`{"model":"gpt-4o-mini","voice":"Kylie"}`), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Model == nil || a.Model.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %+v", a.Model)
	}
	if a.Voice == nil || a.Voice.VoiceID != "Kylie" {
		t.Fatalf("unexpected voice: %+v", a.Voice)
	}
}

func TestTransfer_DecodeStringAndObject(t *testing.T) {
	var art Artifact
	raw := `{"transfers":["+15550001111",{"destination":"+15552223333","time":"2024-01-01T00:00:00Z"}]}`
	if err := json.Unmarshal([]byte(raw), &art); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(art.Transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(art.Transfers))
	}
	if art.Transfers[0].Destination != "+15550001111" || art.Transfers[1].Destination != "+15552223333" {
		t.Fatalf("unexpected transfers: %+v", art.Transfers)
	}
}
