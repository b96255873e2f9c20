package integrity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/returns/backend/internal/application/ncr"
	appreturns "github.com/returns/backend/internal/application/returns"
	domain "github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/auth"
	"github.com/returns/backend/internal/infrastructure/store"
)

func record(id, ncrNumber string) domain.ReturnRecord {
	return domain.ReturnRecord{
		ID:           id,
		NCRNumber:    ncrNumber,
		Branch:       "B",
		CustomerName: "C",
		ProductName:  "P",
		Status:       domain.StatusRequested,
		Date:         "2026-08-01",
	}
}

func reportRow(id, ncrNo string, status domain.NCRStatus) domain.NCRRecord {
	return domain.NCRRecord{
		ID:     id,
		NcrNo:  ncrNo,
		Date:   "2026-08-01",
		Status: status,
		Item:   domain.NCRItem{ProductName: "P"},
	}
}

func TestScan(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.ReturnRecord
		reports []domain.NCRRecord
		want    []string
	}{
		{
			name:    "missing parent is an orphan",
			records: []domain.ReturnRecord{record("r1", "NCR-2026-0001")},
			want:    []string{"r1"},
		},
		{
			name:    "live parent keeps the record",
			records: []domain.ReturnRecord{record("r1", "NCR-2026-0001")},
			reports: []domain.NCRRecord{reportRow("NCR-2026-0001-a", "NCR-2026-0001", domain.NCRStatusOpen)},
			want:    nil,
		},
		{
			name:    "all rows canceled orphans the record",
			records: []domain.ReturnRecord{record("r1", "NCR-2026-0001")},
			reports: []domain.NCRRecord{
				reportRow("NCR-2026-0001-a", "NCR-2026-0001", domain.NCRStatusCanceled),
				reportRow("NCR-2026-0001-b", "NCR-2026-0001", domain.NCRStatusCanceled),
			},
			want: []string{"r1"},
		},
		{
			name:    "one surviving row keeps the record",
			records: []domain.ReturnRecord{record("r1", "NCR-2026-0001")},
			reports: []domain.NCRRecord{
				reportRow("NCR-2026-0001-a", "NCR-2026-0001", domain.NCRStatusCanceled),
				reportRow("NCR-2026-0001-b", "NCR-2026-0001", domain.NCRStatusOpen),
			},
			want: nil,
		},
		{
			name:    "ncr-prefixed id claims its row id",
			records: []domain.ReturnRecord{record("NCR-2026-0001-a", "")},
			reports: []domain.NCRRecord{reportRow("NCR-2026-0001-a", "NCR-2026-0001", domain.NCRStatusOpen)},
			want:    nil,
		},
		{
			name:    "ncr-prefixed id with no matching row is an orphan",
			records: []domain.ReturnRecord{record("NCR-2026-0001-a", "")},
			want:    []string{"NCR-2026-0001-a"},
		},
		{
			name:    "plain records are never orphans",
			records: []domain.ReturnRecord{record("r1", "")},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orphans := Scan(tt.records, tt.reports)
			var got []string
			for _, rec := range orphans {
				got = append(got, rec.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	st := store.NewMemoryStore()

	records := store.NewReturnRecordRepository(st, logger)
	reports := store.NewNCRRepository(st, logger)
	authz := auth.NewPINAuthorizer(map[auth.Action]string{
		auth.ActionSweepOrphans: "9999",
	})

	recordCache, unsubRecords, err := appreturns.NewRecordCache(records, logger)
	require.NoError(t, err)
	defer unsubRecords()
	reportCache, unsubReports, err := ncr.NewReportCache(reports, logger)
	require.NoError(t, err)
	defer unsubReports()

	svc := NewService(records, recordCache, reportCache, authz, logger)

	backed := record("r-backed", "NCR-2026-0001")
	orphanA := record("r-orphan", "NCR-2026-0999")
	orphanB := record("NCR-2026-0777-x", "")
	plain := record("r-plain", "")
	for _, rec := range []domain.ReturnRecord{backed, orphanA, orphanB, plain} {
		r := rec
		require.NoError(t, records.Create(ctx, &r))
	}
	row := reportRow("NCR-2026-0001-a", "NCR-2026-0001", domain.NCRStatusOpen)
	require.NoError(t, reports.Create(ctx, &row))

	t.Run("scan lists only the orphans", func(t *testing.T) {
		orphans := svc.Scan()
		ids := make(map[string]bool)
		for _, rec := range orphans {
			ids[rec.ID] = true
		}
		assert.Equal(t, map[string]bool{"r-orphan": true, "NCR-2026-0777-x": true}, ids)
	})

	t.Run("sweep needs the right pin", func(t *testing.T) {
		_, err := svc.Sweep(ctx, "0000")
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
		assert.Len(t, svc.Scan(), 2)
	})

	t.Run("sweep deletes the orphans and nothing else", func(t *testing.T) {
		deleted, err := svc.Sweep(ctx, "9999")
		require.NoError(t, err)
		assert.Equal(t, 2, deleted)
		assert.Empty(t, svc.Scan())

		remaining := recordCache.All()
		ids := make(map[string]bool)
		for _, rec := range remaining {
			ids[rec.ID] = true
		}
		assert.Equal(t, map[string]bool{"r-backed": true, "r-plain": true}, ids)
	})
}
