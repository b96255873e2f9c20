package store

import (
	"context"
	"encoding/json"
)

// Collection names. The store is a flat document tree: one collection per
// entity kind, documents addressed by id.
const (
	CollectionReturnRecords    = "return_records"
	CollectionNCRReports       = "ncr_reports"
	CollectionCollectionOrders = "collection_orders"
	CollectionCounters         = "counters"
	CollectionDocIndex         = "doc_index"
	CollectionSystemConfig     = "system_config"
)

// Snapshot is the full state of one collection, documents keyed by id.
type Snapshot map[string]json.RawMessage

// Unsubscribe detaches a snapshot listener. Safe to call more than once.
type Unsubscribe func()

// Store is a document store with whole-collection subscriptions and an
// optimistic atomic update. Backing implementations are an in-memory map
// (tests, single-node dev) and Redis (shared deployments).
//
// Subscribe delivers the current snapshot immediately and a fresh full
// snapshot after every write to the collection. Listeners must not mutate
// the snapshot they receive.
type Store interface {
	// Get returns one document or shared.ErrNotFound.
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)

	// List returns the whole collection. Missing collections are empty,
	// not an error.
	List(ctx context.Context, collection string) (Snapshot, error)

	// Set writes the full document, creating or overwriting.
	Set(ctx context.Context, collection, id string, doc any) error

	// Patch merges the given fields into an existing document. A nil field
	// value deletes that field. Patching a missing document returns
	// shared.ErrNotFound.
	Patch(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document. Deleting a missing document is a no-op.
	Delete(ctx context.Context, collection, id string) error

	// AtomicUpdate applies fn to the current document (nil when absent)
	// under compare-and-set semantics. Returning (nil, nil) from fn aborts
	// without writing. Exhausted contention retries surface as
	// shared.ErrTransactionAborted.
	AtomicUpdate(ctx context.Context, collection, id string, fn func(current json.RawMessage) (any, error)) error

	// Subscribe registers a full-snapshot listener for one collection.
	Subscribe(ctx context.Context, collection string, fn func(Snapshot)) (Unsubscribe, error)
}
