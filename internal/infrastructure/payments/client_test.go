package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:       baseURL,
		APIKey:        "pay-key",
		WebhookSecret: "whsec",
		SuccessURL:    "https://app.example.com/success",
		CancelURL:     "https://app.example.com/cancel",
	})
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer pay-key" {
			t.Errorf("unexpected auth header %q", got)
		}

		var req createSessionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ClientReferenceID != "job_1" {
			t.Errorf("job id not referenced: %q", req.ClientReferenceID)
		}
		if req.SuccessURL != "https://app.example.com/success" || req.CancelURL != "https://app.example.com/cancel" {
			t.Errorf("redirect urls not forwarded: %+v", req)
		}

		json.NewEncoder(w).Encode(sessionResp{
			ID:            "sess_1",
			URL:           "https://pay.example.com/sess_1",
			PaymentStatus: "unpaid",
		})
	}))
	defer srv.Close()

	session, err := newTestClient(srv.URL).CreateSession(context.Background(), "job_1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.ID != "sess_1" || session.URL != "https://pay.example.com/sess_1" {
		t.Errorf("unexpected session: %+v", session)
	}
}

func TestCreateSession_IncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(sessionResp{ID: "sess_1"})
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).CreateSession(context.Background(), "job_1"); err == nil {
		t.Fatal("expected error for session without url")
	}
}

func TestCreateSession_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "provider down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).CreateSession(context.Background(), "job_1"); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestSessionPaid(t *testing.T) {
	cases := []struct {
		name   string
		status string
		want   bool
	}{
		{"paid session", "paid", true},
		{"unpaid session", "unpaid", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/sessions/sess_1" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(sessionResp{ID: "sess_1", PaymentStatus: tc.status})
			}))
			defer srv.Close()

			paid, err := newTestClient(srv.URL).SessionPaid(context.Background(), "sess_1")
			if err != nil {
				t.Fatalf("session paid: %v", err)
			}
			if paid != tc.want {
				t.Errorf("expected paid=%v, got %v", tc.want, paid)
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	c := newTestClient("http://localhost")
	payload := []byte(`{"job_id":"job_1","session_id":"sess_1"}`)

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(payload)
	valid := hex.EncodeToString(mac.Sum(nil))

	if !c.VerifySignature(payload, valid) {
		t.Error("valid signature rejected")
	}
	if !c.VerifySignature(payload, "  "+valid+"\n") {
		t.Error("surrounding whitespace must be tolerated")
	}
	if c.VerifySignature(payload, "deadbeef") {
		t.Error("wrong signature accepted")
	}
	if c.VerifySignature([]byte(`{"job_id":"job_2"}`), valid) {
		t.Error("signature for a different payload accepted")
	}
	if c.VerifySignature(payload, "") {
		t.Error("empty signature accepted")
	}
}

func TestDo_MissingAPIKey(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://localhost"})
	if _, err := c.CreateSession(context.Background(), "job_1"); err == nil {
		t.Fatal("expected error without api key")
	}
}
