package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"incubator_console/internal/models"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc, token string, onAuthFail func()) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, staticTokens(token), onAuthFail)
}

func TestClient_Login_FormEncoded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Fatalf("unexpected content type %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("username") != "op@farm.example" || r.PostForm.Get("password") != "secret" {
			t.Fatalf("unexpected form: %v", r.PostForm)
		}
		_ = json.NewEncoder(w).Encode(LoginResult{AccessToken: "tok-1", TokenType: "bearer"})
	}, "", nil)

	res, err := c.Login(context.Background(), "op@farm.example", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.AccessToken != "tok-1" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestClient_BearerAttached(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-9" {
			t.Fatalf("unexpected auth header %q", got)
		}
		_ = json.NewEncoder(w).Encode(models.User{ID: "1", Email: "op@farm.example"})
	}, "tok-9", nil)

	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("me: %v", err)
	}
}

func TestClient_NoBearerWhenLoggedOut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Fatalf("logged-out request must carry no bearer, got %q", got)
		}
		_ = json.NewEncoder(w).Encode([]models.Device{})
	}, "", nil)

	if _, err := c.ListDevices(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
}

func TestClient_AuthFailureFiresHook(t *testing.T) {
	var hookFired bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"token expired"}`, http.StatusUnauthorized)
	}, "tok-old", func() { hookFired = true })

	_, err := c.GetDevice(context.Background(), "inc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if !hookFired {
		t.Fatalf("401 must fire the unauthorized hook")
	}
}

func TestClient_NonAuthErrorDoesNotFireHook(t *testing.T) {
	var hookFired bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}, "tok", func() { hookFired = true })

	_, err := c.GetDevice(context.Background(), "inc-1")
	if err == nil || IsAuthError(err) {
		t.Fatalf("expected plain API error, got %v", err)
	}
	if hookFired {
		t.Fatalf("500 must not fire the unauthorized hook")
	}
}

func TestClient_SendCommand_Envelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/devices/inc-1/cmd" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Cmd    string         `json:"cmd"`
			Params map[string]any `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Cmd != "FAN" || body.Params["state"] != true {
			t.Fatalf("unexpected envelope: %+v", body)
		}
		w.WriteHeader(http.StatusOK)
	}, "tok", nil)

	err := c.SendCommand(context.Background(), "inc-1", "FAN", map[string]any{"state": true})
	if err != nil {
		t.Fatalf("send command: %v", err)
	}
}

func TestClient_SendCommand_NilParamsBecomeEmptyObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		params, ok := body["params"].(map[string]any)
		if !ok || params == nil {
			t.Fatalf("params must be an empty object, got %v", body["params"])
		}
	}, "tok", nil)

	if err := c.SendCommand(context.Background(), "inc-1", "FAN", nil); err != nil {
		t.Fatalf("send command: %v", err)
	}
}

func TestClient_Telemetry_LimitQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/devices/inc-1/telemetry" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Fatalf("unexpected limit %q", got)
		}
		_ = json.NewEncoder(w).Encode([]models.Sample{{TempC: 37.5, HumPct: 55}})
	}, "tok", nil)

	samples, err := c.Telemetry(context.Background(), "inc-1", 50)
	if err != nil {
		t.Fatalf("telemetry: %v", err)
	}
	if len(samples) != 1 || samples[0].TempC != 37.5 {
		t.Fatalf("unexpected samples: %+v", samples)
	}
}

func TestClient_UpdateDevice_PutsConfig(t *testing.T) {
	low := 70.0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/devices/inc-1" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var cfg models.DeviceConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			t.Fatalf("decode config: %v", err)
		}
		if cfg.TempLow == nil || *cfg.TempLow != 70.0 {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		_ = json.NewEncoder(w).Encode(models.Device{ID: "inc-1", DeviceConfig: cfg})
	}, "tok", nil)

	d, err := c.UpdateDevice(context.Background(), "inc-1", models.DeviceConfig{TempLow: &low})
	if err != nil {
		t.Fatalf("update device: %v", err)
	}
	if d.TempLow == nil || *d.TempLow != 70.0 {
		t.Fatalf("unexpected device: %+v", d)
	}
}
