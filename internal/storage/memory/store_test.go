package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lztpay/lztpay/internal/domain/payment"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func setupStore(ttl time.Duration) (*Store, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(epoch)
	return NewStore(ttl, WithClock(clock)), clock
}

func TestNewStore_DefaultTTL(t *testing.T) {
	s := NewStore(0)
	assert.Equal(t, DefaultTTL, s.TTL())
	assert.Equal(t, 3600, s.Stats().TTLSeconds)
}

func TestStore_PutGet(t *testing.T) {
	s, _ := setupStore(time.Minute)

	s.Put("abc123", decimal.NewFromFloat(1.5), 7, payment.Metadata{InvoiceID: 42, IsTest: true})

	r, ok := s.Get("abc123")
	require.True(t, ok)
	assert.Equal(t, "abc123", r.PaymentID)
	assert.True(t, r.Amount.Equal(decimal.NewFromFloat(1.5)))
	assert.Equal(t, int64(7), r.OwnerID)
	assert.Equal(t, int64(42), r.Metadata.InvoiceID)
	assert.True(t, r.Metadata.IsTest)
	assert.Equal(t, epoch, r.CreatedAt)
	assert.Equal(t, epoch.Add(time.Minute), r.ExpiresAt)
}

func TestStore_Get_Missing(t *testing.T) {
	s, _ := setupStore(time.Minute)

	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestStore_Get_ExpiryBoundary(t *testing.T) {
	s, clock := setupStore(2 * time.Second)
	s.Put("abc123", decimal.NewFromInt(1), 0, payment.Metadata{})

	clock.Advance(2*time.Second - time.Nanosecond)
	_, ok := s.Get("abc123")
	assert.True(t, ok, "visible strictly before expiry")

	clock.Advance(time.Nanosecond)
	_, ok = s.Get("abc123")
	assert.True(t, ok, "visible exactly at expiry")

	clock.Advance(time.Nanosecond)
	_, ok = s.Get("abc123")
	assert.False(t, ok, "gone strictly after expiry")

	assert.Equal(t, 0, s.Stats().TotalTracked, "expired record evicted lazily by Get")
}

func TestStore_Put_OverwriteResetsExpiry(t *testing.T) {
	s, clock := setupStore(10 * time.Second)
	s.Put("abc", decimal.NewFromInt(1), 0, payment.Metadata{})

	clock.Advance(8 * time.Second)
	s.Put("abc", decimal.NewFromInt(2), 0, payment.Metadata{})

	clock.Advance(8 * time.Second)
	r, ok := s.Get("abc")
	require.True(t, ok)
	assert.True(t, r.Amount.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, epoch.Add(18*time.Second), r.ExpiresAt)
}

func TestStore_RecordsAreImmutable(t *testing.T) {
	s, _ := setupStore(time.Minute)
	extra := map[string]string{"sku": "gold"}
	s.Put("abc", decimal.NewFromInt(1), 0, payment.Metadata{Extra: extra})

	extra["sku"] = "changed"
	r, _ := s.Get("abc")
	assert.Equal(t, "gold", r.Metadata.Extra["sku"])

	r.Metadata.Extra["sku"] = "mutated"
	again, _ := s.Get("abc")
	assert.Equal(t, "gold", again.Metadata.Extra["sku"])
}

func TestStore_Delete_Idempotent(t *testing.T) {
	s, _ := setupStore(time.Minute)
	s.Put("abc", decimal.NewFromInt(1), 0, payment.Metadata{})

	assert.True(t, s.Delete("abc"))
	assert.False(t, s.Delete("abc"))
	assert.False(t, s.Delete("never-existed"))

	_, ok := s.Get("abc")
	assert.False(t, ok)
}

func TestStore_FindByOwner(t *testing.T) {
	s, clock := setupStore(10 * time.Second)
	s.Put("a", decimal.NewFromInt(1), 1, payment.Metadata{})
	s.Put("b", decimal.NewFromInt(2), 1, payment.Metadata{})
	s.Put("c", decimal.NewFromInt(3), 2, payment.Metadata{})

	clock.Advance(5 * time.Second)
	s.Put("d", decimal.NewFromInt(4), 1, payment.Metadata{})

	got := s.FindByOwner(1)
	assert.ElementsMatch(t, []string{"a", "b", "d"}, ids(got))

	clock.Advance(6 * time.Second)
	got = s.FindByOwner(1)
	assert.ElementsMatch(t, []string{"d"}, ids(got))

	// The scan evicted every expired record it met, including other owners'.
	assert.Equal(t, 1, s.Stats().TotalTracked)
	assert.Empty(t, s.FindByOwner(2))
}

func TestStore_Sweep(t *testing.T) {
	s, clock := setupStore(10 * time.Second)
	s.Put("old-1", decimal.NewFromInt(1), 0, payment.Metadata{})
	s.Put("old-2", decimal.NewFromInt(1), 0, payment.Metadata{})

	clock.Advance(5 * time.Second)
	s.Put("fresh", decimal.NewFromInt(1), 0, payment.Metadata{})

	clock.Advance(5 * time.Second)
	assert.Equal(t, 0, s.Sweep(), "records exactly at expiry are kept")

	clock.Advance(time.Nanosecond)
	assert.Equal(t, 2, s.Sweep())
	assert.Equal(t, 0, s.Sweep(), "second sweep removes nothing")

	_, ok := s.Get("fresh")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Stats().TotalTracked)
}

func TestStore_Stats_CountsUnsweptExpired(t *testing.T) {
	s, clock := setupStore(time.Second)
	s.Put("a", decimal.NewFromInt(1), 0, payment.Metadata{})
	s.Put("b", decimal.NewFromInt(1), 0, payment.Metadata{})

	clock.Advance(time.Hour)
	assert.Equal(t, payment.Stats{TotalTracked: 2, TTLSeconds: 1}, s.Stats())

	s.Sweep()
	assert.Equal(t, 0, s.Stats().TotalTracked)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s, clock := setupStore(time.Second)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				s.Put(id, decimal.NewFromInt(int64(i+1)), int64(w), payment.Metadata{})
				s.Get(id)
				s.FindByOwner(int64(w))
				if i%3 == 0 {
					s.Delete(id)
				}
				if i%50 == 0 {
					clock.Advance(100 * time.Millisecond)
					s.Sweep()
				}
			}
		}(w)
	}
	wg.Wait()

	clock.Advance(time.Hour)
	s.Sweep()
	assert.Equal(t, 0, s.Stats().TotalTracked)
}

func ids(records []payment.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.PaymentID)
	}
	return out
}
