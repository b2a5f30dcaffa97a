package delivery

import (
	"context"
	"fmt"
	"strings"

	"qrcred-recovery/httpServices/gateway"
	"qrcred-recovery/services/recovery"
)

// countryCodePrefix is prepended to national numbers before dispatch
const countryCodePrefix = "55"

// Dispatcher adapts the three outbound gateways to one send operation.
// A gateway reply is delivery only when it explicitly confirms it;
// partial or garbled replies are failures.
type Dispatcher struct {
	email    *gateway.Client
	sms      *gateway.Client
	whatsapp *gateway.Client
}

// NewDispatcher wires the per-channel gateway clients
func NewDispatcher(email, sms, whatsapp *gateway.Client) *Dispatcher {
	return &Dispatcher{
		email:    email,
		sms:      sms,
		whatsapp: whatsapp,
	}
}

// Send delivers the code over the requested channel. The returned error
// carries a support-readable reason and never the code value.
func (d *Dispatcher) Send(ctx context.Context, channel recovery.Channel, email, phone, code string) error {
	switch channel {
	case recovery.ChannelEmail:
		if strings.TrimSpace(email) == "" {
			return fmt.Errorf("account has no email address on file")
		}
		resp, err := d.email.Send(ctx, email, code)
		return d.confirm("email", resp, err)

	case recovery.ChannelSMS:
		to, err := NormalizePhone(phone)
		if err != nil {
			return err
		}
		resp, err := d.sms.Send(ctx, to, code)
		return d.confirm("sms", resp, err)

	case recovery.ChannelWhatsApp:
		to, err := NormalizePhone(phone)
		if err != nil {
			return err
		}
		resp, err := d.whatsapp.Send(ctx, to, code)
		return d.confirm("whatsapp", resp, err)

	default:
		return fmt.Errorf("unknown delivery channel %q", channel)
	}
}

func (d *Dispatcher) confirm(channel string, resp *gateway.SendResponse, err error) error {
	if err != nil {
		return fmt.Errorf("%s gateway unreachable: %w", channel, err)
	}
	if resp.Status != gateway.StatusConfirmed {
		return fmt.Errorf("%s gateway did not confirm delivery (status %q)", channel, resp.Status)
	}
	return nil
}

// NormalizePhone reduces a phone number to digits and prefixes the
// country code when absent. National numbers are 10 or 11 digits
// (area code plus subscriber number).
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case digits == "":
		return "", fmt.Errorf("account has no phone number on file")
	case len(digits) == 10 || len(digits) == 11:
		return countryCodePrefix + digits, nil
	case len(digits) >= 12 && len(digits) <= 13 && strings.HasPrefix(digits, countryCodePrefix):
		return digits, nil
	default:
		return "", fmt.Errorf("phone number on file has an unexpected format")
	}
}
