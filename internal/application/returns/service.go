package returns

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/returns/backend/internal/application/importer"
	domain "github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/auth"
)

// Service is the application layer over return records and collection
// orders. Guard checks run against the snapshot cache; writes additionally
// reserve the document index so two racing writers cannot both land.
type Service struct {
	records domain.ReturnRecordRepository
	orders  domain.CollectionOrderRepository
	index   domain.DocumentIndex
	numbers domain.NumberSource
	authz   auth.Authorizer

	recordCache *Cache[domain.ReturnRecord]
	orderCache  *Cache[domain.CollectionOrder]
	logger      *zap.Logger
}

func NewService(
	records domain.ReturnRecordRepository,
	orders domain.CollectionOrderRepository,
	index domain.DocumentIndex,
	numbers domain.NumberSource,
	authz auth.Authorizer,
	recordCache *Cache[domain.ReturnRecord],
	orderCache *Cache[domain.CollectionOrder],
	logger *zap.Logger,
) *Service {
	return &Service{
		records:     records,
		orders:      orders,
		index:       index,
		numbers:     numbers,
		authz:       authz,
		recordCache: recordCache,
		orderCache:  orderCache,
		logger:      logger,
	}
}

// ListRecords returns the current validated snapshot.
func (s *Service) ListRecords() []domain.ReturnRecord {
	return s.recordCache.All()
}

// GetRecord returns one record from the snapshot.
func (s *Service) GetRecord(id string) (domain.ReturnRecord, error) {
	rec, ok := s.recordCache.Get(id)
	if !ok {
		return domain.ReturnRecord{}, shared.ErrNotFound
	}
	return rec, nil
}

// CreateRecord runs the guard and writes a new record. A missing RefNo gets
// a counter-issued RT number; the counter sentinel aborts the create.
func (s *Service) CreateRecord(ctx context.Context, rec *domain.ReturnRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = domain.StatusDraft
	}
	if rec.RefNo == "" {
		number := s.numbers.NextNumber(ctx, domain.CounterReturn)
		if domain.IsErrNumber(number) {
			s.logger.Error("refNo allocation failed, aborting create",
				zap.String("number", number))
			return shared.ErrTransactionAborted
		}
		rec.RefNo = number
	}

	decision := domain.CheckWrite(domain.WriteTarget{
		DocumentNo:  rec.DocumentNo,
		ProductCode: rec.ProductCode,
		ProductName: rec.ProductName,
	}, s.recordCache.All())
	if !decision.Allowed {
		return rejectError(decision)
	}

	if err := s.index.Reserve(ctx, rec.DocumentNo, rec.ProductKey(), rec.ID); err != nil {
		if shared.CodeOf(err) == "ALREADY_EXISTS" {
			return shared.NewValidationRejected(string(domain.RejectDuplicate),
				"Another record already holds this document and product")
		}
		return err
	}
	return s.records.Create(ctx, rec)
}

// UpdateRecord overwrites an existing record after re-running the guard
// with the record itself excluded.
func (s *Service) UpdateRecord(ctx context.Context, rec *domain.ReturnRecord) error {
	current, ok := s.recordCache.Get(rec.ID)
	if !ok {
		return shared.ErrNotFound
	}

	decision := domain.CheckWrite(domain.WriteTarget{
		DocumentNo:  rec.DocumentNo,
		ProductCode: rec.ProductCode,
		ProductName: rec.ProductName,
		ExcludeID:   rec.ID,
	}, s.recordCache.All())
	if !decision.Allowed {
		return rejectError(decision)
	}

	keyChanged := domain.NormalizeDocNo(current.DocumentNo) != domain.NormalizeDocNo(rec.DocumentNo) ||
		current.ProductKey() != rec.ProductKey()
	if keyChanged {
		if err := s.index.Reserve(ctx, rec.DocumentNo, rec.ProductKey(), rec.ID); err != nil {
			if shared.CodeOf(err) == "ALREADY_EXISTS" {
				return shared.NewValidationRejected(string(domain.RejectDuplicate),
					"Another record already holds this document and product")
			}
			return err
		}
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return err
	}
	if keyChanged {
		if err := s.index.Release(ctx, current.DocumentNo, current.ProductKey()); err != nil {
			s.logger.Warn("stale document index entry left behind",
				zap.String("id", rec.ID), zap.Error(err))
		}
	}
	return nil
}

// Advance moves a record one stage forward, stamping the timeline.
func (s *Service) Advance(ctx context.Context, id string, target domain.ReturnStatus, date string) error {
	rec, ok := s.recordCache.Get(id)
	if !ok {
		return shared.ErrNotFound
	}
	if err := rec.Advance(target, date); err != nil {
		return err
	}

	fields := map[string]any{"status": rec.Status}
	if key := timelineField(target); key != "" {
		fields[key] = date
	}
	if rec.GradeResult != "" {
		fields["gradeResult"] = rec.GradeResult
	}
	if rec.BypassRoute != "" {
		fields["bypassRoute"] = rec.BypassRoute
	}
	return s.records.Patch(ctx, id, fields)
}

// StepBack undoes exactly one pipeline step. Requires a supervisor
// credential.
func (s *Service) StepBack(ctx context.Context, id, credential string) error {
	if !s.authz.Authorize(auth.ActionStepBack, credential) {
		return shared.ErrUnauthorized
	}
	rec, ok := s.recordCache.Get(id)
	if !ok {
		return shared.ErrNotFound
	}
	leaving := rec.Status
	if err := rec.StepBack(); err != nil {
		return err
	}

	fields := map[string]any{"status": rec.Status}
	if key := timelineField(leaving); key != "" {
		fields[key] = nil
	}
	if leaving.IsGrading() {
		fields["gradeResult"] = nil
	}
	return s.records.Patch(ctx, id, fields)
}

// CancelRecord soft-deletes: the record flips to Canceled and stays in the
// store.
func (s *Service) CancelRecord(ctx context.Context, id string) error {
	rec, ok := s.recordCache.Get(id)
	if !ok {
		return shared.ErrNotFound
	}
	if err := rec.Cancel(); err != nil {
		return err
	}
	return s.records.Patch(ctx, id, map[string]any{"status": rec.Status})
}

// DeleteRecord removes a record for good and frees its index reservation.
// Requires a supervisor credential.
func (s *Service) DeleteRecord(ctx context.Context, id, credential string) error {
	if !s.authz.Authorize(auth.ActionDeleteRecord, credential) {
		return shared.ErrUnauthorized
	}
	rec, ok := s.recordCache.Get(id)
	if !ok {
		return shared.ErrNotFound
	}
	if err := s.records.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.index.Release(ctx, rec.DocumentNo, rec.ProductKey()); err != nil {
		s.logger.Warn("stale document index entry left behind",
			zap.String("id", id), zap.Error(err))
	}
	return nil
}

// ListOrders returns the current collection order snapshot.
func (s *Service) ListOrders() []domain.CollectionOrder {
	return s.orderCache.All()
}

// GetOrder returns one collection order from the snapshot.
func (s *Service) GetOrder(id string) (domain.CollectionOrder, error) {
	order, ok := s.orderCache.Get(id)
	if !ok {
		return domain.CollectionOrder{}, shared.ErrNotFound
	}
	return order, nil
}

// CreateCollectionOrder groups existing return records under one pickup
// job with a counter-issued COL number, and back-links each record.
func (s *Service) CreateCollectionOrder(ctx context.Context, branch, date string, linkedIDs []string, notes string) (*domain.CollectionOrder, error) {
	for _, id := range linkedIDs {
		if _, ok := s.recordCache.Get(id); !ok {
			return nil, shared.NewDomainError("NOT_FOUND", "Linked return record not found: "+id)
		}
	}

	orderNo := s.numbers.NextNumber(ctx, domain.CounterCollection)
	if domain.IsErrNumber(orderNo) {
		s.logger.Error("collection number allocation failed, aborting",
			zap.String("number", orderNo))
		return nil, shared.ErrTransactionAborted
	}

	order, err := domain.NewCollectionOrder(uuid.NewString(), orderNo, branch, date, linkedIDs)
	if err != nil {
		return nil, err
	}
	order.Notes = notes
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	// Back-links are best effort; a failed one is repairable by hand and
	// must not undo the order.
	for _, id := range linkedIDs {
		if err := s.records.Patch(ctx, id, map[string]any{"collectionOrderId": order.ID}); err != nil {
			s.logger.Warn("failed to back-link record to collection order",
				zap.String("record_id", id),
				zap.String("order_id", order.ID),
				zap.Error(err))
		}
	}
	return order, nil
}

// UpdateOrderStatus moves a collection order through its small lifecycle.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status domain.CollectionStatus) error {
	order, ok := s.orderCache.Get(id)
	if !ok {
		return shared.ErrNotFound
	}
	if err := order.SetStatus(status); err != nil {
		return err
	}
	return s.orders.Patch(ctx, id, map[string]any{"status": order.Status})
}

// ImportResult summarizes a committed import batch.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// CommitImport writes a reconciled candidate batch. Conflicting candidates
// must have been resolved by a policy first; any that remain are skipped.
// Per-row guard denials skip the row and the batch carries on.
func (s *Service) CommitImport(ctx context.Context, candidates []importer.Candidate) (ImportResult, error) {
	var result ImportResult
	for _, cand := range candidates {
		switch cand.Class {
		case importer.ClassNew:
			rec := cand.Record
			if err := s.CreateRecord(ctx, &rec); err != nil {
				if shared.CodeOf(err) == "VALIDATION_REJECTED" {
					s.logger.Warn("import row rejected by guard",
						zap.Int("row", cand.Row),
						zap.String("reason", shared.ReasonOf(err)))
					result.Skipped++
					continue
				}
				return result, err
			}
			result.Created++
		case importer.ClassUpdate:
			if _, ok := s.recordCache.Get(cand.ExistingID); !ok {
				s.logger.Warn("import row targets a vanished record",
					zap.Int("row", cand.Row),
					zap.String("id", cand.ExistingID))
				result.Skipped++
				continue
			}
			if err := s.records.Patch(ctx, cand.ExistingID, importPatch(cand.Record)); err != nil {
				return result, err
			}
			result.Updated++
		default:
			result.Skipped++
		}
	}
	return result, nil
}

// importPatch builds the merge-patch an import update carries: the parsed
// sheet fields, plus a reset to Draft so force-updated records return to
// intake.
func importPatch(rec domain.ReturnRecord) map[string]any {
	fields := map[string]any{
		"status":       rec.Status,
		"documentType": rec.DocumentType,
		"date":         rec.Date,
	}
	setIf := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	setIf("documentNo", rec.DocumentNo)
	setIf("branch", rec.Branch)
	setIf("customerCode", rec.CustomerCode)
	setIf("customerName", rec.CustomerName)
	setIf("destinationCustomer", rec.DestinationCustomer)
	setIf("customerAddress", rec.CustomerAddress)
	setIf("productCode", rec.ProductCode)
	setIf("productName", rec.ProductName)
	setIf("unit", rec.Unit)
	setIf("transportInfo", rec.TransportInfo)
	setIf("notes", rec.Notes)
	if !rec.Quantity.IsZero() {
		fields["quantity"] = rec.Quantity
	}
	return fields
}

// timelineField maps a status to the timeline stamp it owns.
func timelineField(s domain.ReturnStatus) string {
	switch s {
	case domain.StatusRequested:
		return "dateRequested"
	case domain.StatusBranchReceived, domain.StatusHubReceived:
		return "dateReceived"
	case domain.StatusQCPassed, domain.StatusQCFailed, domain.StatusGraded:
		return "dateGraded"
	case domain.StatusDocumented:
		return "dateDocumented"
	case domain.StatusCompleted:
		return "dateCompleted"
	}
	return ""
}

func rejectError(d domain.Decision) error {
	msg := "Write rejected: document is locked"
	if d.Reason == domain.RejectDuplicate {
		msg = "Write rejected: duplicate product on this document"
	}
	return shared.NewValidationRejected(string(d.Reason), msg)
}
