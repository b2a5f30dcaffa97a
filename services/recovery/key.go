package recovery

import (
	"fmt"
	"strings"
)

// Channel identifies how a recovery code is delivered to the member
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// ParseChannel normalizes and validates a channel literal
func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToLower(strings.TrimSpace(s))) {
	case ChannelEmail:
		return ChannelEmail, nil
	case ChannelSMS:
		return ChannelSMS, nil
	case ChannelWhatsApp:
		return ChannelWhatsApp, nil
	default:
		return "", fmt.Errorf("unknown delivery channel %q", s)
	}
}

// NormalizeAccountID strips everything but digits from a member account
// identifier. Identifiers arrive from the portal in several formats
// (with dots, dashes, whitespace), so only the digits are significant.
func NormalizeAccountID(s string) (string, error) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	id := b.String()
	if id == "" || len(id) > 20 {
		return "", fmt.Errorf("account identifier must contain 1 to 20 digits")
	}
	return id, nil
}

// CompositeKey identifies one recovery flow: one account on one channel.
// Exactly one active code record and at most one cooldown entry exist
// per key at any time.
type CompositeKey struct {
	AccountID string
	Channel   Channel
}

func (k CompositeKey) String() string {
	return k.AccountID + ":" + string(k.Channel)
}
