package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"qrcred-recovery/httpServices/gateway"
	"qrcred-recovery/services/recovery"
)

type gatewayCapture struct {
	To   string `json:"to"`
	Code string `json:"code"`
	Path string
}

// fakeGateway answers every send with the given status and records the
// last request it saw
func fakeGateway(t *testing.T, status string, last *gatewayCapture) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(last); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		last.Path = r.URL.Path
		json.NewEncoder(w).Encode(gateway.SendResponse{Status: status})
	}))
}

func newTestDispatcher(baseURL string) *Dispatcher {
	return NewDispatcher(
		gateway.NewEmailClient(baseURL),
		gateway.NewSMSClient(baseURL),
		gateway.NewWhatsAppClient(baseURL),
	)
}

func TestDispatcherSend(t *testing.T) {
	t.Run("email confirmed", func(t *testing.T) {
		var last gatewayCapture
		srv := fakeGateway(t, gateway.StatusConfirmed, &last)
		defer srv.Close()
		d := newTestDispatcher(srv.URL)

		err := d.Send(context.Background(), recovery.ChannelEmail, "a@b.com", "", "482913")
		if err != nil {
			t.Fatal(err)
		}
		if last.Path != "/email/send" {
			t.Errorf("Expected the email endpoint, got %s", last.Path)
		}
		if last.To != "a@b.com" || last.Code != "482913" {
			t.Errorf("Unexpected payload %+v", last)
		}
	})

	t.Run("sms gets a normalized number", func(t *testing.T) {
		var last gatewayCapture
		srv := fakeGateway(t, gateway.StatusConfirmed, &last)
		defer srv.Close()
		d := newTestDispatcher(srv.URL)

		err := d.Send(context.Background(), recovery.ChannelSMS, "", "(11) 98888-7777", "482913")
		if err != nil {
			t.Fatal(err)
		}
		if last.Path != "/sms/send" {
			t.Errorf("Expected the sms endpoint, got %s", last.Path)
		}
		if last.To != "5511988887777" {
			t.Errorf("Expected the country-prefixed number, got %s", last.To)
		}
	})

	t.Run("whatsapp uses its own endpoint", func(t *testing.T) {
		var last gatewayCapture
		srv := fakeGateway(t, gateway.StatusConfirmed, &last)
		defer srv.Close()
		d := newTestDispatcher(srv.URL)

		err := d.Send(context.Background(), recovery.ChannelWhatsApp, "", "5511988887777", "482913")
		if err != nil {
			t.Fatal(err)
		}
		if last.Path != "/whatsapp/send" {
			t.Errorf("Expected the whatsapp endpoint, got %s", last.Path)
		}
	})

	t.Run("unconfirmed status is a failure", func(t *testing.T) {
		var last gatewayCapture
		srv := fakeGateway(t, "queued", &last)
		defer srv.Close()
		d := newTestDispatcher(srv.URL)

		err := d.Send(context.Background(), recovery.ChannelEmail, "a@b.com", "", "482913")
		if err == nil || !strings.Contains(err.Error(), "did not confirm") {
			t.Errorf("Expected a confirmation failure, got %v", err)
		}
	})

	t.Run("non-OK reply is a failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		d := newTestDispatcher(srv.URL)

		err := d.Send(context.Background(), recovery.ChannelSMS, "", "11988887777", "482913")
		if err == nil || !strings.Contains(err.Error(), "non-OK") {
			t.Errorf("Expected a non-OK failure, got %v", err)
		}
	})

	t.Run("missing contact fails before the gateway", func(t *testing.T) {
		var last gatewayCapture
		srv := fakeGateway(t, gateway.StatusConfirmed, &last)
		defer srv.Close()
		d := newTestDispatcher(srv.URL)

		if err := d.Send(context.Background(), recovery.ChannelEmail, "", "", "482913"); err == nil {
			t.Errorf("Expected an error for a missing email")
		}
		if err := d.Send(context.Background(), recovery.ChannelSMS, "", "", "482913"); err == nil {
			t.Errorf("Expected an error for a missing phone")
		}
		if last.Code != "" {
			t.Errorf("Gateway must not have been called")
		}
	})
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"11988887777", "5511988887777", false},
		{"1188887777", "551188887777", false},
		{"(11) 98888-7777", "5511988887777", false},
		{"5511988887777", "5511988887777", false},
		{"551188887777", "551188887777", false},
		{"", "", true},
		{"123", "", true},
		{"4911988887777", "", true}, // foreign prefix
	}
	for _, c := range cases {
		got, err := NormalizePhone(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("NormalizePhone(%q): expected error", c.in)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("NormalizePhone(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
	}
}
