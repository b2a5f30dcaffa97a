package audit

import (
	"time"
)

// DeliveryEvent is one audited recovery-code delivery attempt. The raw
// code value is never stored; support debugging works off the outcome
// and reason alone.
type DeliveryEvent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AttemptID string    `gorm:"type:varchar(36);not null;index" json:"attempt_id"`
	AccountID string    `gorm:"type:varchar(20);not null;index" json:"account_id"`
	Channel   string    `gorm:"type:varchar(10);not null" json:"channel"`
	Outcome   string    `gorm:"type:varchar(20);not null;index" json:"outcome"`
	Reason    string    `gorm:"type:text" json:"reason"`
	Reused    bool      `gorm:"default:false" json:"reused"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
