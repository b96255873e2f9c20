package counter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/store"
)

func newService(t *testing.T, at time.Time) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	svc := NewService(st, zap.NewNop())
	svc.now = func() time.Time { return at }
	return svc, st
}

func TestNextNumberSequence(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "NCR-2026-0001", svc.NextNumber(ctx, returns.CounterNCR))
	assert.Equal(t, "NCR-2026-0002", svc.NextNumber(ctx, returns.CounterNCR))
	assert.Equal(t, "NCR-2026-0003", svc.NextNumber(ctx, returns.CounterNCR))

	// Namespaces count independently.
	assert.Equal(t, "RT-2026-0001", svc.NextNumber(ctx, returns.CounterReturn))
	assert.Equal(t, "COL-202603-0001", svc.NextNumber(ctx, returns.CounterCollection))
}

func TestNextNumberYearRollover(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "NCR-2025-0001", svc.NextNumber(ctx, returns.CounterNCR))
	assert.Equal(t, "NCR-2025-0002", svc.NextNumber(ctx, returns.CounterNCR))

	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	assert.Equal(t, "NCR-2026-0001", svc.NextNumber(ctx, returns.CounterNCR))
}

func TestNextNumberMonthRollover(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "COL-202603-0001", svc.NextNumber(ctx, returns.CounterCollection))

	svc.now = func() time.Time { return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) }
	assert.Equal(t, "COL-202604-0001", svc.NextNumber(ctx, returns.CounterCollection))
}

func TestNextNumberCorruptDocumentRestarts(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))

	require.NoError(t, st.Set(ctx, store.CollectionCounters, returns.CounterNCR, "not an object"))
	assert.Equal(t, "NCR-2026-0001", svc.NextNumber(ctx, returns.CounterNCR))
}

func TestNextNumberSentinelOnFailure(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))

	t.Run("unknown namespace", func(t *testing.T) {
		got := svc.NextNumber(ctx, "bogus")
		assert.True(t, returns.IsErrNumber(got), "got %q", got)
	})

	t.Run("store failure", func(t *testing.T) {
		svc.store = failingStore{}
		got := svc.NextNumber(ctx, returns.CounterNCR)
		assert.True(t, returns.IsErrNumber(got), "got %q", got)
		assert.Contains(t, got, "NCR-2026-ERR")
	})
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "NCR-2026-0001", svc.NextNumber(ctx, returns.CounterNCR))
	assert.Equal(t, "NCR-2026-0002", svc.NextNumber(ctx, returns.CounterNCR))

	require.NoError(t, svc.Reset(ctx, returns.CounterNCR))
	assert.Equal(t, "NCR-2026-0001", svc.NextNumber(ctx, returns.CounterNCR))

	assert.Error(t, svc.Reset(ctx, "bogus"))
}

func TestNextNumberRetriesAbortedRounds(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	cs := &contendedStore{Store: store.NewMemoryStore(), aborts: 2}
	svc := NewServiceWithRetries(cs, 3, zap.NewNop())
	svc.now = func() time.Time { return at }

	// Two aborted rounds inside a three-round budget still allocate.
	assert.Equal(t, "NCR-2026-0001", svc.NextNumber(ctx, returns.CounterNCR))

	// A budget smaller than the contention hands back the sentinel.
	cs.aborts = 3
	got := svc.NextNumber(ctx, returns.CounterNCR)
	assert.True(t, returns.IsErrNumber(got), "got %q", got)
}

// contendedStore aborts the first few atomic updates, then delegates.
type contendedStore struct {
	store.Store
	aborts int
}

func (s *contendedStore) AtomicUpdate(ctx context.Context, collection, id string, fn func(json.RawMessage) (any, error)) error {
	if s.aborts > 0 {
		s.aborts--
		return shared.ErrTransactionAborted
	}
	return s.Store.AtomicUpdate(ctx, collection, id, fn)
}

// failingStore rejects every atomic update.
type failingStore struct {
	store.Store
}

func (failingStore) AtomicUpdate(context.Context, string, string, func(json.RawMessage) (any, error)) error {
	return shared.ErrTransactionAborted
}
