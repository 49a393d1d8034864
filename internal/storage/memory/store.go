package memory

import (
	"sync"
	"time"

	"github.com/lztpay/lztpay/internal/domain/payment"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultTTL is how long a payment stays tracked when no TTL is given.
const DefaultTTL = time.Hour

// Store is an in-memory, TTL bound payment tracker. A single mutex guards
// every operation; nothing inside the lock performs I/O.
type Store struct {
	mu      sync.Mutex
	records map[string]payment.Record
	ttl     time.Duration
	clock   clockwork.Clock
	logger  zerolog.Logger
}

var _ payment.Tracker = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithLogger sets the logger used for debug events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a store whose records live for ttl.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		records: make(map[string]payment.Record),
		ttl:     ttl,
		clock:   clockwork.NewRealClock(),
		logger:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TTL returns the tracking lifetime applied on Put.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) Put(paymentID string, amount decimal.Decimal, ownerID int64, meta payment.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[paymentID] = payment.NewRecord(paymentID, amount, ownerID, meta, s.clock.Now(), s.ttl)

	s.logger.Debug().
		Str("payment_id", paymentID).
		Str("amount", amount.String()).
		Int64("owner_id", ownerID).
		Msg("payment stored")
}

func (s *Store) Get(paymentID string) (payment.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[paymentID]
	if !ok {
		return payment.Record{}, false
	}

	if st := r.StatusAt(s.clock.Now()); st.IsTerminal() {
		delete(s.records, paymentID)
		s.logger.Debug().Str("payment_id", paymentID).Str("status", string(st)).Msg("payment expired")
		return payment.Record{}, false
	}

	return r.Clone(), true
}

func (s *Store) Delete(paymentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[paymentID]; !ok {
		return false
	}
	delete(s.records, paymentID)
	s.logger.Debug().Str("payment_id", paymentID).Msg("payment deleted")
	return true
}

func (s *Store) FindByOwner(ownerID int64) []payment.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var out []payment.Record
	for id, r := range s.records {
		if r.ExpiredAt(now) {
			delete(s.records, id)
			continue
		}
		if r.OwnerID == ownerID {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for id, r := range s.records {
		if r.StatusAt(now) == payment.StatusExpired {
			delete(s.records, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug().Int("count", removed).Msg("expired payments cleaned")
	}
	return removed
}

func (s *Store) Stats() payment.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return payment.Stats{
		TotalTracked: len(s.records),
		TTLSeconds:   int(s.ttl / time.Second),
	}
}
