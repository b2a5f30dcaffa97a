package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientResolve(t *testing.T) {
	t.Run("account found", func(t *testing.T) {
		var gotReq LookupRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/account/lookup" {
				t.Errorf("Unexpected path %s", r.URL.Path)
			}
			json.NewDecoder(r.Body).Decode(&gotReq)
			json.NewEncoder(w).Encode(LookupResponse{
				Found: true,
				Email: "a@b.com",
				Phone: "11988887777",
			})
		}))
		defer srv.Close()

		found, email, phone, err := NewClient(srv.URL).Resolve(context.Background(), "12345678901")
		if err != nil {
			t.Fatal(err)
		}
		if !found || email != "a@b.com" || phone != "11988887777" {
			t.Errorf("Unexpected result: found=%v email=%s phone=%s", found, email, phone)
		}
		if gotReq.AccountID != "12345678901" {
			t.Errorf("Unexpected lookup payload %+v", gotReq)
		}
	})

	t.Run("404 means not found, not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		found, _, _, err := NewClient(srv.URL).Resolve(context.Background(), "999")
		if err != nil {
			t.Fatalf("404 must not be an error: %v", err)
		}
		if found {
			t.Errorf("404 must report the account as absent")
		}
	})

	t.Run("backend failure is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		if _, _, _, err := NewClient(srv.URL).Resolve(context.Background(), "123"); err == nil {
			t.Errorf("Expected an error for a 500 reply")
		}
	})

	t.Run("missing contact fields come back empty", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(LookupResponse{Found: true, Phone: "11988887777"})
		}))
		defer srv.Close()

		found, email, phone, err := NewClient(srv.URL).Resolve(context.Background(), "123")
		if err != nil || !found {
			t.Fatalf("Unexpected failure: found=%v err=%v", found, err)
		}
		if email != "" || phone != "11988887777" {
			t.Errorf("Expected empty email only, got email=%q phone=%q", email, phone)
		}
	})
}
