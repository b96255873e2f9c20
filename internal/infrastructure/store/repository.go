package store

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/returns/backend/internal/domain/returns"
)

// ReturnRecordRepository adapts the document store to the domain repository
// contract. Every snapshot is sanitized document by document; drops are
// logged and the rest of the snapshot goes through.
type ReturnRecordRepository struct {
	store  Store
	logger *zap.Logger
}

func NewReturnRecordRepository(store Store, logger *zap.Logger) *ReturnRecordRepository {
	return &ReturnRecordRepository{store: store, logger: logger}
}

func (r *ReturnRecordRepository) Create(ctx context.Context, rec *returns.ReturnRecord) error {
	return r.store.Set(ctx, CollectionReturnRecords, rec.ID, rec)
}

func (r *ReturnRecordRepository) Patch(ctx context.Context, id string, fields map[string]any) error {
	return r.store.Patch(ctx, CollectionReturnRecords, id, fields)
}

func (r *ReturnRecordRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, CollectionReturnRecords, id)
}

func (r *ReturnRecordRepository) Subscribe(onSnapshot func([]returns.ReturnRecord), onError func(error)) (returns.Unsubscribe, error) {
	unsub, err := r.store.Subscribe(context.Background(), CollectionReturnRecords, func(snap Snapshot) {
		records := make([]returns.ReturnRecord, 0, len(snap))
		for id, raw := range snap {
			rec, err := returns.SanitizeReturnRecord(raw)
			if err != nil {
				r.logger.Warn("dropping malformed return record",
					zap.String("id", id),
					zap.Error(err))
				continue
			}
			records = append(records, *rec)
		}
		sortByID(records, func(rec returns.ReturnRecord) string { return rec.ID })
		onSnapshot(records)
	})
	if err != nil {
		onError(err)
		return nil, err
	}
	return returns.Unsubscribe(unsub), nil
}

// NCRRepository persists non-conformance report rows.
type NCRRepository struct {
	store  Store
	logger *zap.Logger
}

func NewNCRRepository(store Store, logger *zap.Logger) *NCRRepository {
	return &NCRRepository{store: store, logger: logger}
}

func (r *NCRRepository) Create(ctx context.Context, rec *returns.NCRRecord) error {
	return r.store.Set(ctx, CollectionNCRReports, rec.ID, rec)
}

func (r *NCRRepository) Patch(ctx context.Context, id string, fields map[string]any) error {
	return r.store.Patch(ctx, CollectionNCRReports, id, fields)
}

func (r *NCRRepository) Subscribe(onSnapshot func([]returns.NCRRecord), onError func(error)) (returns.Unsubscribe, error) {
	unsub, err := r.store.Subscribe(context.Background(), CollectionNCRReports, func(snap Snapshot) {
		records := make([]returns.NCRRecord, 0, len(snap))
		for id, raw := range snap {
			rec, err := returns.SanitizeNCRRecord(raw)
			if err != nil {
				r.logger.Warn("dropping malformed NCR row",
					zap.String("id", id),
					zap.Error(err))
				continue
			}
			records = append(records, *rec)
		}
		sortByID(records, func(rec returns.NCRRecord) string { return rec.ID })
		onSnapshot(records)
	})
	if err != nil {
		onError(err)
		return nil, err
	}
	return returns.Unsubscribe(unsub), nil
}

// CollectionOrderRepository persists pickup jobs.
type CollectionOrderRepository struct {
	store  Store
	logger *zap.Logger
}

func NewCollectionOrderRepository(store Store, logger *zap.Logger) *CollectionOrderRepository {
	return &CollectionOrderRepository{store: store, logger: logger}
}

func (r *CollectionOrderRepository) Create(ctx context.Context, order *returns.CollectionOrder) error {
	return r.store.Set(ctx, CollectionCollectionOrders, order.ID, order)
}

func (r *CollectionOrderRepository) Patch(ctx context.Context, id string, fields map[string]any) error {
	return r.store.Patch(ctx, CollectionCollectionOrders, id, fields)
}

func (r *CollectionOrderRepository) Subscribe(onSnapshot func([]returns.CollectionOrder), onError func(error)) (returns.Unsubscribe, error) {
	unsub, err := r.store.Subscribe(context.Background(), CollectionCollectionOrders, func(snap Snapshot) {
		orders := make([]returns.CollectionOrder, 0, len(snap))
		for id, raw := range snap {
			order, err := returns.SanitizeCollectionOrder(raw)
			if err != nil {
				r.logger.Warn("dropping malformed collection order",
					zap.String("id", id),
					zap.Error(err))
				continue
			}
			orders = append(orders, *order)
		}
		sortByID(orders, func(order returns.CollectionOrder) string { return order.ID })
		onSnapshot(orders)
	})
	if err != nil {
		onError(err)
		return nil, err
	}
	return returns.Unsubscribe(unsub), nil
}

// sortByID keeps snapshot order stable; map iteration is not.
func sortByID[T any](items []T, key func(T) string) {
	sort.Slice(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
}

var (
	_ returns.ReturnRecordRepository    = (*ReturnRecordRepository)(nil)
	_ returns.NCRRepository             = (*NCRRepository)(nil)
	_ returns.CollectionOrderRepository = (*CollectionOrderRepository)(nil)
)
