package recovery

// Kind classifies a failed recovery request. The first four kinds are
// expected user-facing outcomes and never mutate state; DeliveryFailed
// and Timeout trigger the rollback path; InternalFault covers anything
// unexpected inside the owner's critical section.
type Kind string

const (
	KindInvalidInput        Kind = "InvalidInput"
	KindAccountNotFound     Kind = "AccountNotFound"
	KindChannelNotAvailable Kind = "ChannelNotAvailable"
	KindRateLimited         Kind = "RateLimited"
	KindDeliveryFailed      Kind = "DeliveryFailed"
	KindTimeout             Kind = "Timeout"
	KindInternalFault       Kind = "InternalFault"
)

// Audit outcomes recorded per delivery attempt
const (
	OutcomeDelivered = "delivered"
	OutcomeReused    = "reused"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
)
