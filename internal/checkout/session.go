package checkout

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Gateway string

const (
	GatewayCOD    Gateway = "cod"
	GatewayCard   Gateway = "card"
	GatewayPaypal Gateway = "paypal"
)

// SessionState is the lifecycle of one gateway session.
type SessionState string

const (
	SessionIdle      SessionState = "idle"
	SessionOpening   SessionState = "opening"
	SessionAwaiting  SessionState = "awaiting" // hosted page / SDK surface is in front of the user
	SessionSuccess   SessionState = "success"
	SessionCancelled SessionState = "cancelled"
	SessionError     SessionState = "error"
)

func (s SessionState) IsTerminal() bool {
	return s == SessionSuccess || s == SessionCancelled || s == SessionError
}

func (s SessionState) String() string {
	return string(s)
}

var transitions = map[SessionState][]SessionState{
	SessionIdle:     {SessionOpening},
	SessionOpening:  {SessionAwaiting, SessionSuccess, SessionCancelled, SessionError},
	SessionAwaiting: {SessionSuccess, SessionCancelled, SessionError},
}

func CanTransition(from, to SessionState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Confirmation is the gateway-side proof of payment carried into
// finalization. Metadata only, never card data.
type Confirmation struct {
	TxnID        string
	PayerEmail   string
	SettledMinor int64
	SettledCcy   string
}

// Attempt is the per-attempt context for one in-flight checkout: the draft
// pending a gateway callback plus the session handle issued for it. It is the
// single owner of that draft until the attempt is finalized or superseded.
type Attempt struct {
	ID      string
	Key     string // checkout key: one active attempt per key
	Gateway Gateway
	State   SessionState
	Draft   *Draft

	// Card sessions: hosted payment page URL and the gateway's order reference.
	URL      string
	OrderRef string

	// Set when the gateway reports success; retained across failed
	// finalizations so persistence can be retried without re-charging.
	Confirmation *Confirmation

	StartedAt time.Time
}

// Registry tracks in-flight attempts. Beginning a new attempt for a checkout
// key supersedes the previous one; callbacks that still carry the superseded
// attempt id are discarded, not errors.
type Registry struct {
	mu       sync.Mutex
	attempts map[string]*Attempt
	current  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		attempts: make(map[string]*Attempt),
		current:  make(map[string]string),
	}
}

// Begin opens a new attempt for the checkout key, replacing any pending one.
func (r *Registry) Begin(key string, gateway Gateway, draft *Draft) *Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prevID, ok := r.current[key]; ok {
		delete(r.attempts, prevID)
	}

	a := &Attempt{
		ID:        uuid.NewString(),
		Key:       key,
		Gateway:   gateway,
		State:     SessionOpening,
		Draft:     draft,
		StartedAt: time.Now(),
	}
	r.attempts[a.ID] = a
	r.current[key] = a.ID
	return a
}

// Opened records the session handle once the gateway has issued it and moves
// the attempt in front of the user.
func (r *Registry) Opened(attemptID, url, orderRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attempts[attemptID]
	if !ok {
		return ErrNoSuchAttempt
	}
	if !CanTransition(a.State, SessionAwaiting) {
		return ErrIllegalTransition
	}
	a.State = SessionAwaiting
	a.URL = url
	a.OrderRef = orderRef
	return nil
}

// Resolve applies a gateway outcome to an attempt. The returned bool reports
// whether the callback was applied; a callback for a superseded or unknown
// attempt returns false with no error (stale-session discard). An illegal
// transition on a live attempt is a real error.
func (r *Registry) Resolve(attemptID string, outcome SessionState, conf *Confirmation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attempts[attemptID]
	if !ok || r.current[a.Key] != attemptID {
		return false, nil
	}
	if !outcome.IsTerminal() {
		return false, ErrIllegalTransition
	}
	if !CanTransition(a.State, outcome) {
		return false, ErrIllegalTransition
	}

	a.State = outcome
	if outcome == SessionSuccess {
		a.Confirmation = conf
	} else {
		// Cancelled or errored: drop the pending draft reference. The user
		// is back on the checkout form with the form state they typed.
		delete(r.attempts, attemptID)
		delete(r.current, a.Key)
	}
	return true, nil
}

// FindByOrderRef matches a gateway callback to the live attempt holding that
// gateway-side order reference. Superseded attempts are no longer in the
// registry, so a stale reference simply misses.
func (r *Registry) FindByOrderRef(orderRef string) (*Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.attempts {
		if a.OrderRef == orderRef && r.current[a.Key] == a.ID {
			return a, nil
		}
	}
	return nil, ErrNoSuchAttempt
}

// Get returns a live attempt by id.
func (r *Registry) Get(attemptID string) (*Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attempts[attemptID]
	if !ok {
		return nil, ErrNoSuchAttempt
	}
	return a, nil
}

// Complete discards a finalized attempt. Called only after the order row is
// durably persisted.
func (r *Registry) Complete(attemptID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attempts[attemptID]
	if !ok {
		return
	}
	delete(r.attempts, attemptID)
	if r.current[a.Key] == attemptID {
		delete(r.current, a.Key)
	}
}
