package recovery

// RequestCodeRequest is the inbound payload for requesting a recovery code
type RequestCodeRequest struct {
	AccountID string `json:"account_id" validate:"required,max=30"`
	Channel   string `json:"channel" validate:"required,oneof=email sms whatsapp"`
}

// RequestCodeResponse mirrors the portal contract: on success the
// masked destination and whether an existing code was re-served; on
// failure the error kind, a human-readable message, and the remaining
// cooldown when rate limited.
type RequestCodeResponse struct {
	Success           bool   `json:"success"`
	DestinationMasked string `json:"destination_masked,omitempty"`
	Reused            bool   `json:"reused"`
	ErrorKind         string `json:"error_kind,omitempty"`
	Message           string `json:"message,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// PurgeResponse reports an admin sweep of expired codes
type PurgeResponse struct {
	Purged int      `json:"purged"`
	Keys   []string `json:"keys"`
}

// StatsResponse reports today's delivery attempt counts per outcome
type StatsResponse struct {
	Since    string         `json:"since"`
	Total    int64          `json:"total"`
	Outcomes map[string]int `json:"outcomes"`
	InFlight int            `json:"in_flight"`
}
