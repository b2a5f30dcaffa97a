package recovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"qrcred-recovery/logger"

	"github.com/google/uuid"
)

// Resolver looks an account identifier up in the legacy member backend
// and returns the contact details on file
type Resolver interface {
	Resolve(ctx context.Context, accountID string) (found bool, email, phone string, err error)
}

// Sender delivers a code over one channel and returns a descriptive
// error when the gateway did not explicitly confirm delivery
type Sender interface {
	Send(ctx context.Context, channel Channel, email, phone, code string) error
}

// Auditor records the outcome of delivery attempts. The raw code value
// is never part of an attempt.
type Auditor interface {
	Record(a Attempt)
}

// Attempt is one audited delivery outcome
type Attempt struct {
	AttemptID string
	AccountID string
	Channel   Channel
	Outcome   string
	Reason    string
	Reused    bool
}

// Result is the outcome of one RequestCode invocation. All coalesced
// callers for the same key receive the same Result value.
type Result struct {
	Success           bool
	DestinationMasked string
	Reused            bool
	ErrKind           Kind
	Message           string
	RetryAfter        time.Duration
}

// RetryAfterSeconds rounds the remaining cooldown up to whole seconds
// so the UI can render a countdown
func (r Result) RetryAfterSeconds() int {
	if r.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(r.RetryAfter.Seconds()))
}

func failure(kind Kind, message string) Result {
	return Result{ErrKind: kind, Message: message}
}

const (
	defaultResolveTimeout = 10 * time.Second
	defaultSendTimeout    = 15 * time.Second
)

// Coordinator orchestrates code issuance: identity resolution, request
// coalescing, cooldown enforcement, code reuse, dispatch, and rollback.
// It owns the code store, rate limiter, and in-flight maps exclusively.
type Coordinator struct {
	resolver Resolver
	sender   Sender
	codes    CodeStore
	limiter  RateLimiter
	inflight *inflightGroup
	auditor  Auditor

	now            func() time.Time
	resolveTimeout time.Duration
	sendTimeout    time.Duration
}

// NewCoordinator wires a coordinator with default timeouts
func NewCoordinator(resolver Resolver, sender Sender, codes CodeStore, limiter RateLimiter) *Coordinator {
	return &Coordinator{
		resolver:       resolver,
		sender:         sender,
		codes:          codes,
		limiter:        limiter,
		inflight:       newInflightGroup(),
		now:            time.Now,
		resolveTimeout: defaultResolveTimeout,
		sendTimeout:    defaultSendTimeout,
	}
}

// WithAuditor attaches an attempt auditor
func (c *Coordinator) WithAuditor(a Auditor) *Coordinator {
	c.auditor = a
	return c
}

// WithClock overrides the time source
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// RequestCode issues (or re-serves) a recovery code for the account on
// the given channel and has it delivered at most once per valid window.
func (c *Coordinator) RequestCode(ctx context.Context, accountID, channel string) (res Result) {
	ch, err := ParseChannel(channel)
	if err != nil {
		return failure(KindInvalidInput, err.Error())
	}
	id, err := NormalizeAccountID(accountID)
	if err != nil {
		return failure(KindInvalidInput, err.Error())
	}
	key := CompositeKey{AccountID: id, Channel: ch}

	rctx, cancel := context.WithTimeout(ctx, c.resolveTimeout)
	found, email, phone, err := c.resolver.Resolve(rctx, id)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failure(KindTimeout, "account lookup timed out")
		}
		logger.Error("Account lookup failed", err)
		return failure(KindInternalFault, "account lookup failed")
	}
	if !found {
		return failure(KindAccountNotFound, "no account matches this identifier")
	}
	if contactFor(ch, email, phone) == "" {
		return failure(KindChannelNotAvailable,
			fmt.Sprintf("account has no %s contact on file", ch))
	}

	call, owner := c.inflight.attach(key)
	if !owner {
		return c.inflight.wait(ctx, call)
	}

	// The entry must be removed on every path out of here, including a
	// panic, or every coalesced waiter hangs forever.
	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Sprintf("Recovered from fault while issuing code for %s", key), nil)
			res = failure(KindInternalFault, "unexpected fault while issuing code")
		}
		c.inflight.complete(key, res)
	}()

	// The dispatch may already have been charged by the provider, so a
	// disconnected client must not abort it; only its own timeout can.
	res = c.issue(context.WithoutCancel(ctx), key, email, phone)
	return res
}

// issue runs the owner's critical section for one key
func (c *Coordinator) issue(ctx context.Context, key CompositeKey, email, phone string) Result {
	now := c.now()
	masked := maskedDestination(key.Channel, email, phone)

	rec, err := c.codes.Get(ctx, key)
	if err != nil {
		logger.Error("Code store read failed", err)
		return failure(KindInternalFault, "code store unavailable")
	}

	// Reuse path: a valid, delivered code is served again without a new
	// send. Marking the limiter here throttles a burst of reuse calls
	// against triggering a fresh send the moment the code expires.
	if rec != nil && rec.Delivered && rec.Valid(now) {
		if err := c.limiter.Mark(ctx, key, now); err != nil {
			logger.Error("Rate limiter mark failed", err)
		}
		c.audit(Attempt{
			AttemptID: uuid.NewString(),
			AccountID: key.AccountID,
			Channel:   key.Channel,
			Outcome:   OutcomeReused,
			Reused:    true,
		})
		return Result{Success: true, DestinationMasked: masked, Reused: true}
	}

	blocked, remaining, err := c.limiter.ShouldBlock(ctx, key, now)
	if err != nil {
		logger.Error("Rate limiter read failed", err)
		return failure(KindInternalFault, "rate limiter unavailable")
	}
	if blocked {
		res := failure(KindRateLimited, "a code was requested recently, wait before retrying")
		res.RetryAfter = remaining
		return res
	}

	// A young undelivered record keeps its code so a narrow race cannot
	// hand the member two different codes; an abandoned one is purged.
	code := ""
	if rec != nil && !rec.Delivered && rec.Valid(now) && !rec.Abandoned(now) {
		code = rec.Code
	} else if rec != nil && !rec.Delivered {
		if err := c.codes.Delete(ctx, key); err != nil {
			logger.Error("Failed to purge abandoned code record", err)
		}
	}
	if code == "" {
		code, err = GenerateCode()
		if err != nil {
			logger.Error("Code generation failed", err)
			return failure(KindInternalFault, "could not generate a code")
		}
	}

	if _, err := c.codes.PutNew(ctx, key, code, now); err != nil {
		logger.Error("Code store write failed", err)
		return failure(KindInternalFault, "code store unavailable")
	}
	if err := c.limiter.Mark(ctx, key, now); err != nil {
		logger.Error("Rate limiter mark failed", err)
	}

	attemptID := uuid.NewString()
	sctx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	sendErr := c.sender.Send(sctx, key.Channel, email, phone, code)
	cancel()

	if sendErr != nil {
		// Full rollback: the next attempt must be a clean retry, not
		// stuck behind a phantom cooldown.
		if err := c.codes.Delete(ctx, key); err != nil {
			logger.Error("Rollback of code record failed", err)
		}
		if err := c.limiter.Clear(ctx, key); err != nil {
			logger.Error("Rollback of cooldown entry failed", err)
		}

		if errors.Is(sendErr, context.DeadlineExceeded) {
			c.audit(Attempt{AttemptID: attemptID, AccountID: key.AccountID,
				Channel: key.Channel, Outcome: OutcomeTimeout, Reason: "dispatch timed out"})
			return failure(KindTimeout, "delivery dispatch timed out")
		}
		logger.Error(fmt.Sprintf("Delivery failed for %s via %s", key.AccountID, key.Channel), sendErr)
		c.audit(Attempt{AttemptID: attemptID, AccountID: key.AccountID,
			Channel: key.Channel, Outcome: OutcomeFailed, Reason: sendErr.Error()})
		return failure(KindDeliveryFailed, sendErr.Error())
	}

	if err := c.codes.MarkDelivered(ctx, key); err != nil {
		logger.Error("Failed to mark code delivered", err)
		// The record's delivery state is now unknown; drop it so a
		// follow-up request cannot re-dispatch the same code. The
		// cooldown entry stays, so the next call is rate limited
		// rather than charged a second send.
		if derr := c.codes.Delete(ctx, key); derr != nil {
			logger.Error("Failed to drop unmarked code record", derr)
		}
	}
	c.audit(Attempt{AttemptID: attemptID, AccountID: key.AccountID,
		Channel: key.Channel, Outcome: OutcomeDelivered})
	return Result{Success: true, DestinationMasked: masked}
}

// PurgeExpired sweeps every code record past its TTL and returns the
// keys removed. Cooldown entries expire by their own timestamp check
// and are left alone.
func (c *Coordinator) PurgeExpired(ctx context.Context) ([]CompositeKey, error) {
	return c.codes.SweepExpired(ctx, c.now())
}

// InspectEntry is the operator view of one stored code. The code value
// itself is replaced by its length.
type InspectEntry struct {
	AccountID  string    `json:"account_id"`
	Channel    Channel   `json:"channel"`
	CodeLength int       `json:"code_length"`
	Delivered  bool      `json:"delivered"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Inspect lists the active codes whose account identifier starts with
// prefix. Expired records are never returned.
func (c *Coordinator) Inspect(ctx context.Context, prefix string) ([]InspectEntry, error) {
	entries, err := c.codes.Entries(ctx, prefix)
	if err != nil {
		return nil, err
	}
	now := c.now()

	var out []InspectEntry
	for _, e := range entries {
		if e.Record.Expired(now) {
			continue
		}
		out = append(out, InspectEntry{
			AccountID:  e.Key.AccountID,
			Channel:    e.Key.Channel,
			CodeLength: len(e.Record.Code),
			Delivered:  e.Record.Delivered,
			IssuedAt:   e.Record.IssuedAt,
			ExpiresAt:  e.Record.ExpiresAt(),
		})
	}
	return out, nil
}

// InFlightCount reports how many keys are currently attached; exposed
// for the operator surface
func (c *Coordinator) InFlightCount() int {
	return c.inflight.size()
}

func (c *Coordinator) audit(a Attempt) {
	if c.auditor != nil {
		c.auditor.Record(a)
	}
}

func contactFor(ch Channel, email, phone string) string {
	if ch == ChannelEmail {
		return email
	}
	return phone
}

func maskedDestination(ch Channel, email, phone string) string {
	if ch == ChannelEmail {
		return MaskEmail(email)
	}
	return MaskPhone(phone)
}
