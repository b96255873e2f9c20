package store

import (
	"context"
	"encoding/json"

	"github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
)

// DocumentIndex implements the write-time uniqueness reservation on the
// doc_index collection. One document per (documentNo, productKey) pair,
// holding the id of the record that owns it.
type DocumentIndex struct {
	store Store
}

func NewDocumentIndex(store Store) *DocumentIndex {
	return &DocumentIndex{store: store}
}

type indexEntry struct {
	RecordID string `json:"recordId"`
}

func indexKey(docNo, productKey string) string {
	return returns.NormalizeDocNo(docNo) + "|" + productKey
}

func (d *DocumentIndex) Reserve(ctx context.Context, docNo, productKey, recordID string) error {
	// Placeholder numbers are exempt from uniqueness and never reserved.
	n := returns.NormalizeDocNo(docNo)
	if n == "" || n == returns.PlaceholderDocumentNo {
		return nil
	}

	return d.store.AtomicUpdate(ctx, CollectionDocIndex, indexKey(docNo, productKey), func(current json.RawMessage) (any, error) {
		if current != nil {
			var entry indexEntry
			if err := json.Unmarshal(current, &entry); err == nil && entry.RecordID != "" && entry.RecordID != recordID {
				return nil, shared.ErrAlreadyExists
			}
		}
		return indexEntry{RecordID: recordID}, nil
	})
}

func (d *DocumentIndex) Release(ctx context.Context, docNo, productKey string) error {
	n := returns.NormalizeDocNo(docNo)
	if n == "" || n == returns.PlaceholderDocumentNo {
		return nil
	}
	return d.store.Delete(ctx, CollectionDocIndex, indexKey(docNo, productKey))
}

var _ returns.DocumentIndex = (*DocumentIndex)(nil)
