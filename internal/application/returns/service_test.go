package returns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/returns/backend/internal/application/importer"
	domain "github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/auth"
	"github.com/returns/backend/internal/infrastructure/counter"
	"github.com/returns/backend/internal/infrastructure/store"
)

type fixture struct {
	svc   *Service
	store *store.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	st := store.NewMemoryStore()

	records := store.NewReturnRecordRepository(st, logger)
	orders := store.NewCollectionOrderRepository(st, logger)
	numbers := counter.NewService(st, logger)
	authz := auth.NewPINAuthorizer(map[auth.Action]string{
		auth.ActionStepBack:     "1234",
		auth.ActionDeleteRecord: "1234",
	})

	recordCache, unsubRecords, err := NewRecordCache(records, logger)
	require.NoError(t, err)
	t.Cleanup(unsubRecords)
	orderCache, unsubOrders, err := NewOrderCache(orders, logger)
	require.NoError(t, err)
	t.Cleanup(unsubOrders)

	svc := NewService(records, orders, store.NewDocumentIndex(st), numbers, authz,
		recordCache, orderCache, logger)
	return &fixture{svc: svc, store: st}
}

func draftRecord(id, docNo, productCode string) *domain.ReturnRecord {
	return &domain.ReturnRecord{
		ID:           id,
		DocumentNo:   docNo,
		Branch:       "B",
		CustomerName: "C",
		ProductCode:  productCode,
		ProductName:  "Product " + productCode,
		Status:       domain.StatusDraft,
		Date:         "2026-08-01",
	}
}

func TestCreateRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and assigns a refNo", func(t *testing.T) {
		f := newFixture(t)
		rec := draftRecord("", "INV-001", "P1")
		require.NoError(t, f.svc.CreateRecord(ctx, rec))

		assert.NotEmpty(t, rec.ID)
		assert.Contains(t, rec.RefNo, "RT-")
		assert.False(t, domain.IsErrNumber(rec.RefNo))

		got, err := f.svc.GetRecord(rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "INV-001", got.DocumentNo)
	})

	t.Run("rejects a duplicate product on the same document", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.CreateRecord(ctx, draftRecord("r1", "INV-001", "P1")))

		err := f.svc.CreateRecord(ctx, draftRecord("r2", "INV-001", "P1"))
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_REJECTED", shared.CodeOf(err))
		assert.Equal(t, string(domain.RejectDuplicate), shared.ReasonOf(err))
	})

	t.Run("allows a second product on the same document", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.CreateRecord(ctx, draftRecord("r1", "INV-001", "P1")))
		require.NoError(t, f.svc.CreateRecord(ctx, draftRecord("r2", "INV-001", "P2")))
	})

	t.Run("rejects any write to a locked document", func(t *testing.T) {
		f := newFixture(t)
		rec := draftRecord("r1", "INV-001", "P1")
		rec.Status = domain.StatusInTransit
		require.NoError(t, f.svc.CreateRecord(ctx, rec))

		err := f.svc.CreateRecord(ctx, draftRecord("r2", "INV-001", "P2"))
		require.Error(t, err)
		assert.Equal(t, string(domain.RejectLocked), shared.ReasonOf(err))
	})

	t.Run("index catches a racing duplicate the snapshot missed", func(t *testing.T) {
		f := newFixture(t)
		// Seed the index directly, as if another writer won the race
		// between guard check and write.
		idx := store.NewDocumentIndex(f.store)
		require.NoError(t, idx.Reserve(ctx, "INV-009", "p1", "other-record"))

		// Bypass the cache-visible record so only the index knows.
		err := f.svc.CreateRecord(ctx, draftRecord("r1", "INV-009", "P1"))
		require.Error(t, err)
		assert.Equal(t, string(domain.RejectDuplicate), shared.ReasonOf(err))
	})
}

func TestUpdateRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("does not collide with itself", func(t *testing.T) {
		f := newFixture(t)
		rec := draftRecord("r1", "INV-001", "P1")
		require.NoError(t, f.svc.CreateRecord(ctx, rec))

		rec.Notes = "edited"
		require.NoError(t, f.svc.UpdateRecord(ctx, rec))

		got, err := f.svc.GetRecord("r1")
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Notes)
	})

	t.Run("still collides with other records", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.CreateRecord(ctx, draftRecord("r1", "INV-001", "P1")))
		require.NoError(t, f.svc.CreateRecord(ctx, draftRecord("r2", "INV-002", "P1")))

		moved := draftRecord("r2", "INV-001", "P1")
		err := f.svc.UpdateRecord(ctx, moved)
		require.Error(t, err)
		assert.Equal(t, string(domain.RejectDuplicate), shared.ReasonOf(err))
	})

	t.Run("missing record is NOT_FOUND", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.UpdateRecord(ctx, draftRecord("ghost", "INV-001", "P1"))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("moving documents frees the old reservation", func(t *testing.T) {
		f := newFixture(t)
		rec := draftRecord("r1", "INV-001", "P1")
		require.NoError(t, f.svc.CreateRecord(ctx, rec))

		moved := draftRecord("r1", "INV-002", "P1")
		require.NoError(t, f.svc.UpdateRecord(ctx, moved))

		// INV-001/P1 is free again.
		require.NoError(t, f.svc.CreateRecord(ctx, draftRecord("r3", "INV-001", "P1")))
	})
}

func TestAdvanceAndStepBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rec := draftRecord("r1", "INV-001", "P1")
	require.NoError(t, f.svc.CreateRecord(ctx, rec))

	require.NoError(t, f.svc.Advance(ctx, "r1", domain.StatusRequested, "2026-08-02"))
	require.NoError(t, f.svc.Advance(ctx, "r1", domain.StatusJobAccepted, "2026-08-03"))

	got, err := f.svc.GetRecord("r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusJobAccepted, got.Status)
	assert.Equal(t, "2026-08-02", got.DateRequested)

	t.Run("cannot skip stages", func(t *testing.T) {
		err := f.svc.Advance(ctx, "r1", domain.StatusHubReceived, "2026-08-04")
		assert.Error(t, err)
	})

	t.Run("step back needs the right pin", func(t *testing.T) {
		err := f.svc.StepBack(ctx, "r1", "wrong")
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("step back goes exactly one step", func(t *testing.T) {
		require.NoError(t, f.svc.StepBack(ctx, "r1", "1234"))
		got, err := f.svc.GetRecord("r1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRequested, got.Status)
		assert.Equal(t, "2026-08-02", got.DateRequested)
	})

	t.Run("grading stamp clears on undo", func(t *testing.T) {
		f := newFixture(t)
		rec := draftRecord("g1", "INV-009", "P1")
		rec.Status = domain.StatusHubReceived
		require.NoError(t, f.svc.CreateRecord(ctx, rec))
		require.NoError(t, f.svc.Advance(ctx, "g1", domain.StatusQCPassed, "2026-08-05"))

		got, _ := f.svc.GetRecord("g1")
		assert.Equal(t, "2026-08-05", got.DateGraded)
		assert.Equal(t, domain.StatusQCPassed, got.GradeResult)

		require.NoError(t, f.svc.StepBack(ctx, "g1", "1234"))
		got, _ = f.svc.GetRecord("g1")
		assert.Equal(t, domain.StatusHubReceived, got.Status)
		assert.Empty(t, got.DateGraded)
		assert.Empty(t, got.GradeResult)
	})
}

func TestCancelAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.CreateRecord(ctx, draftRecord("r1", "INV-001", "P1")))

	t.Run("cancel is a soft delete", func(t *testing.T) {
		require.NoError(t, f.svc.CancelRecord(ctx, "r1"))
		got, err := f.svc.GetRecord("r1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCanceled, got.Status)
	})

	t.Run("cancel of a canceled record fails", func(t *testing.T) {
		assert.Error(t, f.svc.CancelRecord(ctx, "r1"))
	})

	t.Run("delete needs the pin and removes the record", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.DeleteRecord(ctx, "r1", "nope"), shared.ErrUnauthorized)

		require.NoError(t, f.svc.DeleteRecord(ctx, "r1", "1234"))
		_, err := f.svc.GetRecord("r1")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestCollectionOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.CreateRecord(ctx, draftRecord("r1", "INV-001", "P1")))
	require.NoError(t, f.svc.CreateRecord(ctx, draftRecord("r2", "INV-002", "P1")))

	t.Run("creates with a COL number and back-links records", func(t *testing.T) {
		order, err := f.svc.CreateCollectionOrder(ctx, "B", "2026-08-01", []string{"r1", "r2"}, "morning run")
		require.NoError(t, err)
		assert.Contains(t, order.OrderNo, "COL-"+time.Now().Format("2006"))
		assert.Equal(t, domain.CollectionStatusOpen, order.Status)

		got, err := f.svc.GetRecord("r1")
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.CollectionOrderID)
	})

	t.Run("rejects unknown linked records", func(t *testing.T) {
		_, err := f.svc.CreateCollectionOrder(ctx, "B", "2026-08-01", []string{"ghost"}, "")
		assert.Error(t, err)
	})

	t.Run("status lifecycle", func(t *testing.T) {
		order, err := f.svc.CreateCollectionOrder(ctx, "B", "2026-08-01", []string{"r1"}, "")
		require.NoError(t, err)

		require.NoError(t, f.svc.UpdateOrderStatus(ctx, order.ID, domain.CollectionStatusDispatched))
		require.NoError(t, f.svc.UpdateOrderStatus(ctx, order.ID, domain.CollectionStatusClosed))
		assert.Error(t, f.svc.UpdateOrderStatus(ctx, order.ID, domain.CollectionStatusOpen))
	})
}

func TestCommitImport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	existing := draftRecord("r1", "INV-001", "P1")
	existing.Notes = "old"
	require.NoError(t, f.svc.CreateRecord(ctx, existing))

	candidates := []importer.Candidate{
		{Class: importer.ClassNew, Row: 2, Record: *draftRecord("", "INV-010", "P9")},
		{Class: importer.ClassUpdate, Row: 3, ExistingID: "r1", Record: func() domain.ReturnRecord {
			r := *draftRecord("r1", "INV-001", "P1")
			r.Notes = "from sheet"
			return r
		}()},
		{Class: importer.ClassLocked, Row: 4, Record: *draftRecord("", "INV-011", "P9")},
	}

	result, err := f.svc.CommitImport(ctx, candidates)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Created: 1, Updated: 1, Skipped: 1}, result)

	got, err := f.svc.GetRecord("r1")
	require.NoError(t, err)
	assert.Equal(t, "from sheet", got.Notes)
	// Untouched fields survive the merge-patch.
	assert.NotEmpty(t, got.RefNo)
}
