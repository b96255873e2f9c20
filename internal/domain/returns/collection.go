package returns

import "github.com/returns/backend/internal/domain/shared"

// CollectionStatus is the lifecycle state of a pickup job
type CollectionStatus string

const (
	CollectionStatusOpen       CollectionStatus = "Open"
	CollectionStatusDispatched CollectionStatus = "Dispatched"
	CollectionStatusClosed     CollectionStatus = "Closed"
	CollectionStatusCanceled   CollectionStatus = "Canceled"
)

// CollectionOrder is a pickup job grouping one or more return records.
// Created once per pickup; immutable except for status.
type CollectionOrder struct {
	ID           string           `json:"id"`
	OrderNo      string           `json:"orderNo"` // COL-{year}{month}-{seq}
	Branch       string           `json:"branch,omitempty"`
	Date         string           `json:"date"`
	LinkedRmaIDs []string         `json:"linkedRmaIds"`
	Status       CollectionStatus `json:"status"`
	Notes        string           `json:"notes,omitempty"`
}

// NewCollectionOrder groups the given return record ids under one pickup job.
func NewCollectionOrder(id, orderNo, branch, date string, linkedIDs []string) (*CollectionOrder, error) {
	if orderNo == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NO", "Collection order number cannot be empty")
	}
	if len(linkedIDs) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Collection order needs at least one return record")
	}
	return &CollectionOrder{
		ID:           id,
		OrderNo:      orderNo,
		Branch:       branch,
		Date:         date,
		LinkedRmaIDs: linkedIDs,
		Status:       CollectionStatusOpen,
	}, nil
}

// SetStatus is the only mutation a collection order supports.
func (c *CollectionOrder) SetStatus(s CollectionStatus) error {
	switch s {
	case CollectionStatusOpen, CollectionStatusDispatched, CollectionStatusClosed, CollectionStatusCanceled:
	default:
		return shared.NewDomainError("INVALID_STATUS", "Unknown collection status: "+string(s))
	}
	if c.Status == CollectionStatusClosed || c.Status == CollectionStatusCanceled {
		return shared.NewDomainError("INVALID_STATE", "Collection order is already closed")
	}
	c.Status = s
	return nil
}
