package identity

type LookupRequest struct {
	AccountID string `json:"account_id"`
}

type LookupResponse struct {
	Found bool   `json:"found"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
