package returns

import (
	"context"
	"strings"
)

// Unsubscribe detaches a snapshot subscription.
type Unsubscribe func()

// ReturnRecordRepository persists return records and exposes the store's
// whole-collection snapshot stream as validated entities. Subscribers receive
// a full replacement slice on every change anywhere in the collection;
// malformed documents have already been dropped (and logged) by the
// implementation.
type ReturnRecordRepository interface {
	Create(ctx context.Context, rec *ReturnRecord) error
	Patch(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	Subscribe(onSnapshot func([]ReturnRecord), onError func(error)) (Unsubscribe, error)
}

// NCRRepository persists NCR report rows. Reports are never deleted, only
// patched to Canceled.
type NCRRepository interface {
	Create(ctx context.Context, rec *NCRRecord) error
	Patch(ctx context.Context, id string, fields map[string]any) error
	Subscribe(onSnapshot func([]NCRRecord), onError func(error)) (Unsubscribe, error)
}

// CollectionOrderRepository persists pickup jobs.
type CollectionOrderRepository interface {
	Create(ctx context.Context, order *CollectionOrder) error
	Patch(ctx context.Context, id string, fields map[string]any) error
	Subscribe(onSnapshot func([]CollectionOrder), onError func(error)) (Unsubscribe, error)
}

// DocumentIndex reserves (documentNo, productKey) pairs at write time. The
// guard runs on the caller's snapshot and two writers racing on the same
// pair can both pass it; the index turns that race into a loss for the
// second writer. Reserve returns shared.ErrAlreadyExists when another record
// holds the pair.
type DocumentIndex interface {
	Reserve(ctx context.Context, docNo, productKey, recordID string) error
	Release(ctx context.Context, docNo, productKey string) error
}

// Counter namespaces. Each namespace numbers one document family with its
// own period scope.
const (
	CounterNCR        = "ncr_counter"        // NCR-{year}-{n}, yearly
	CounterReturn     = "return_counter"     // RT-{year}-{n}, yearly
	CounterCollection = "collection_counter" // COL-{year}{month}-{n}, monthly
)

// NumberSource allocates period-scoped document numbers. Implementations
// return a sentinel string containing "ERR" instead of failing; callers must
// check it with IsErrNumber before using the value and abort the enclosing
// operation if it is set.
type NumberSource interface {
	NextNumber(ctx context.Context, namespace string) string
}

// IsErrNumber detects the counter failure sentinel. This is a hard contract:
// a value containing "ERR" is never a real document number.
func IsErrNumber(number string) bool {
	return strings.Contains(number, "ERR")
}
