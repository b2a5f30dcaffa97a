package audit

import (
	"log"

	auditModel "qrcred-recovery/models/audit"
	"qrcred-recovery/services/recovery"

	"gorm.io/gorm"
)

// Recorder persists delivery attempts asynchronously so the request
// path never waits on the database.
type Recorder struct {
	db      *gorm.DB
	channel chan recovery.Attempt
}

// NewRecorder creates a recorder; Process must be started on a
// goroutine before attempts are recorded
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{
		db:      db,
		channel: make(chan recovery.Attempt, 100),
	}
}

// Process drains the channel into the delivery_events table
func (r *Recorder) Process() {
	log.Println("Starting asynchronous audit recorder...")

	for attempt := range r.channel {
		event := auditModel.DeliveryEvent{
			AttemptID: attempt.AttemptID,
			AccountID: attempt.AccountID,
			Channel:   string(attempt.Channel),
			Outcome:   attempt.Outcome,
			Reason:    attempt.Reason,
			Reused:    attempt.Reused,
		}

		if err := r.db.Create(&event).Error; err != nil {
			log.Printf("Failed to insert delivery event: %v", err)
		}
	}
}

// Record pushes an attempt into the channel. When the buffer is full
// the attempt is dropped; auditing must not stall code delivery.
func (r *Recorder) Record(attempt recovery.Attempt) {
	select {
	case r.channel <- attempt:
	default:
		log.Printf("Audit buffer full, dropping delivery event for account %s", attempt.AccountID)
	}
}
