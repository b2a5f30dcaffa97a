package recovery

import (
	"time"
)

const (
	// CodeTTL is how long an issued code stays valid.
	CodeTTL = 10 * time.Minute

	// ResendCooldown is the minimum spacing between two new issuance
	// attempts for the same key. Serving an already delivered code is
	// exempt; reuse is not a new send.
	ResendCooldown = 60 * time.Second

	// InFlightWindow bounds how long an undelivered record may sit in
	// the store before it is treated as abandoned. It covers the worst
	// case of an identity lookup plus a delivery dispatch.
	InFlightWindow = 30 * time.Second
)

// CodeRecord is the state kept for one issued recovery code
type CodeRecord struct {
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issued_at"`
	Channel   Channel   `json:"channel"`
	Delivered bool      `json:"delivered"`
}

// Expired reports whether the code is past its TTL
func (r CodeRecord) Expired(now time.Time) bool {
	return now.Sub(r.IssuedAt) >= CodeTTL
}

// Valid reports whether the code can still be served to the member
func (r CodeRecord) Valid(now time.Time) bool {
	return !r.Expired(now)
}

// Abandoned reports whether an undelivered record has outlived the
// in-flight window. Such records are purged rather than reused: the
// dispatch that created them either failed without rollback or never
// returned, so the member most likely never received the code.
func (r CodeRecord) Abandoned(now time.Time) bool {
	return !r.Delivered && now.Sub(r.IssuedAt) >= InFlightWindow
}

// ExpiresAt returns the moment the record stops being valid
func (r CodeRecord) ExpiresAt() time.Time {
	return r.IssuedAt.Add(CodeTTL)
}
