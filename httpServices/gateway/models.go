package gateway

// SendRequest is the payload accepted by every delivery gateway
type SendRequest struct {
	To   string `json:"to"`
	Code string `json:"code"`
}

// SendResponse is the normalized provider reply. Only an explicit
// "confirmed" status counts as delivered; the dispatcher treats
// anything else as failure.
type SendResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// StatusConfirmed is the one status value that means the gateway
// accepted the message for delivery
const StatusConfirmed = "confirmed"
