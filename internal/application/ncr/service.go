package ncr

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appreturns "github.com/returns/backend/internal/application/returns"
	domain "github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
)

// Service owns the NCR report workflow and the sync cascade into linked
// return records. All matching runs on snapshot caches; link keys are
// captured before any patch is applied.
type Service struct {
	reports domain.NCRRepository
	records domain.ReturnRecordRepository
	numbers domain.NumberSource

	reportCache *appreturns.Cache[domain.NCRRecord]
	recordCache *appreturns.Cache[domain.ReturnRecord]
	logger      *zap.Logger
}

func NewService(
	reports domain.NCRRepository,
	records domain.ReturnRecordRepository,
	numbers domain.NumberSource,
	reportCache *appreturns.Cache[domain.NCRRecord],
	recordCache *appreturns.Cache[domain.ReturnRecord],
	logger *zap.Logger,
) *Service {
	return &Service{
		reports:     reports,
		records:     records,
		numbers:     numbers,
		reportCache: reportCache,
		recordCache: recordCache,
		logger:      logger,
	}
}

// NewReportCache subscribes an NCR row cache to its repository.
func NewReportCache(repo domain.NCRRepository, logger *zap.Logger) (*appreturns.Cache[domain.NCRRecord], domain.Unsubscribe, error) {
	cache := appreturns.NewCache(func(n domain.NCRRecord) string { return n.ID })
	unsub, err := repo.Subscribe(cache.Replace, func(err error) {
		logger.Error("NCR subscription failed", zap.Error(err))
	})
	if err != nil {
		return nil, nil, err
	}
	return cache, unsub, nil
}

// List returns the current NCR row snapshot.
func (s *Service) List() []domain.NCRRecord {
	return s.reportCache.All()
}

// Get returns one NCR row from the snapshot.
func (s *Service) Get(id string) (domain.NCRRecord, error) {
	row, ok := s.reportCache.Get(id)
	if !ok {
		return domain.NCRRecord{}, shared.ErrNotFound
	}
	return row, nil
}

// CreateReport persists a batch of item rows under one counter-issued NCR
// number. The counter sentinel aborts the whole report before any row is
// written.
func (s *Service) CreateReport(ctx context.Context, template domain.NCRRecord, items []domain.NCRItem) (string, []domain.NCRRecord, error) {
	if len(items) == 0 {
		return "", nil, shared.NewDomainError("NO_ITEMS", "A report needs at least one item")
	}

	ncrNo := s.numbers.NextNumber(ctx, domain.CounterNCR)
	if domain.IsErrNumber(ncrNo) {
		s.logger.Error("NCR number allocation failed, aborting report",
			zap.String("number", ncrNo))
		return "", nil, shared.ErrTransactionAborted
	}

	created := make([]domain.NCRRecord, 0, len(items))
	for _, item := range items {
		row := template
		row.NcrNo = ncrNo
		row.ID = domain.NCRCompositeID(ncrNo, uuid.NewString())
		row.Item = item
		row.Status = domain.NCRStatusOpen
		if err := s.reports.Create(ctx, &row); err != nil {
			return ncrNo, created, err
		}
		created = append(created, row)
	}
	return ncrNo, created, nil
}

// UpdateItem patches one NCR row and cascades the defined field mapping
// onto every linked return record. Matching uses the row's link key as it
// was before the patch, so edits to the product code still reach the
// records spawned under the old key. Returns the number of return records
// patched.
func (s *Service) UpdateItem(ctx context.Context, id string, fields map[string]any) (int, error) {
	current, ok := s.reportCache.Get(id)
	if !ok {
		return 0, shared.ErrNotFound
	}
	preKey := current.LinkKey()

	updated, err := applyFields(current, fields)
	if err != nil {
		return 0, err
	}
	if err := s.reports.Patch(ctx, id, fields); err != nil {
		return 0, err
	}

	patch := updated.ReturnPatch()
	applied := 0
	for _, rec := range s.recordCache.All() {
		if !preKey.Matches(&rec) {
			continue
		}
		if err := s.records.Patch(ctx, rec.ID, patch); err != nil {
			s.logger.Warn("sync patch failed for linked record",
				zap.String("record_id", rec.ID),
				zap.String("ncr_no", preKey.NcrNo),
				zap.Error(err))
			continue
		}
		applied++
	}
	return applied, nil
}

// CancelReport soft-deletes every row of a report and cascades the cancel
// onto linked, non-terminal return records. Returns the number of rows and
// records canceled.
func (s *Service) CancelReport(ctx context.Context, ncrNo string) (rows int, records int, err error) {
	for _, row := range s.reportCache.All() {
		if row.NcrNo != ncrNo || row.IsCanceled() {
			continue
		}
		if err := s.reports.Patch(ctx, row.ID, map[string]any{"status": domain.NCRStatusCanceled}); err != nil {
			return rows, records, err
		}
		rows++
	}
	if rows == 0 {
		return 0, 0, shared.ErrNotFound
	}

	for _, rec := range s.recordCache.All() {
		if rec.NCRNumber != ncrNo || rec.Status.IsTerminal() {
			continue
		}
		if err := s.records.Patch(ctx, rec.ID, map[string]any{"status": domain.StatusCanceled}); err != nil {
			s.logger.Warn("cascade cancel failed for linked record",
				zap.String("record_id", rec.ID),
				zap.String("ncr_no", ncrNo),
				zap.Error(err))
			continue
		}
		records++
	}
	return rows, records, nil
}

// SpawnReturn creates the return record linked to one NCR row. The row id
// doubles as the record id, which keeps the spawn idempotent.
func (s *Service) SpawnReturn(ctx context.Context, rowID string) (*domain.ReturnRecord, error) {
	row, ok := s.reportCache.Get(rowID)
	if !ok {
		return nil, shared.ErrNotFound
	}
	if row.IsCanceled() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot spawn a return from a canceled report")
	}
	if _, exists := s.recordCache.Get(row.ID); exists {
		return nil, shared.ErrAlreadyExists
	}

	rec := row.SpawnReturn(row.ID)
	decision := domain.CheckWrite(domain.WriteTarget{
		DocumentNo:  rec.DocumentNo,
		ProductCode: rec.ProductCode,
		ProductName: rec.ProductName,
	}, s.recordCache.All())
	if !decision.Allowed {
		return nil, shared.NewValidationRejected(string(decision.Reason),
			"Spawned return collides with an existing record")
	}
	if err := s.records.Create(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// applyFields merges a patch onto a copy of the row, giving the cascade the
// post-patch values without waiting for the snapshot to catch up.
func applyFields(row domain.NCRRecord, fields map[string]any) (domain.NCRRecord, error) {
	base, err := json.Marshal(row)
	if err != nil {
		return row, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(base, &obj); err != nil {
		return row, err
	}
	for key, value := range fields {
		if value == nil {
			delete(obj, key)
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return row, err
		}
		obj[key] = raw
	}
	merged, err := json.Marshal(obj)
	if err != nil {
		return row, err
	}
	var out domain.NCRRecord
	if err := json.Unmarshal(merged, &out); err != nil {
		return row, shared.ErrMalformedInput
	}
	return out, nil
}
