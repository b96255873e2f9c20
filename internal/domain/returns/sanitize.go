package returns

import (
	"encoding/json"

	"github.com/returns/backend/internal/domain/shared"
)

// The store pushes whole-collection snapshots of unknown quality: records
// written by older clients, half-finished imports, or hand-edited documents.
// Sanitizers enforce the structural minimum and drop everything else, so one
// malformed entry never takes the subscription down. Callers log the drop and
// keep going with partial data.

// SanitizeReturnRecord validates one raw store document as a ReturnRecord.
// Returns MALFORMED_INPUT when the document misses the structural minimum.
func SanitizeReturnRecord(raw json.RawMessage) (*ReturnRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, shared.ErrMalformedInput
	}

	// Crucial fields must be present as strings; everything downstream
	// assumes them.
	for _, field := range []string{"id", "date", "status", "branch", "customerName", "productName", "productCode"} {
		if !isJSONString(fields[field]) {
			return nil, shared.ErrMalformedInput
		}
	}

	var rec ReturnRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		// Usually a quantity or price that is neither number nor numeric
		// string.
		return nil, shared.ErrMalformedInput
	}
	if rec.ID == "" {
		return nil, shared.ErrMalformedInput
	}
	return &rec, nil
}

// SanitizeNCRRecord validates one raw store document as an NCRRecord. Older
// clients wrote the item fields flat on the report; those documents still
// decode because the embedded item tolerates absence, but the header and the
// product name must hold.
func SanitizeNCRRecord(raw json.RawMessage) (*NCRRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, shared.ErrMalformedInput
	}
	for _, field := range []string{"id", "date", "status"} {
		if !isJSONString(fields[field]) {
			return nil, shared.ErrMalformedInput
		}
	}

	var rec NCRRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, shared.ErrMalformedInput
	}
	if rec.Item.ProductName == "" {
		return nil, shared.ErrMalformedInput
	}
	return &rec, nil
}

// SanitizeCollectionOrder validates one raw store document as a
// CollectionOrder.
func SanitizeCollectionOrder(raw json.RawMessage) (*CollectionOrder, error) {
	var rec CollectionOrder
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, shared.ErrMalformedInput
	}
	if rec.ID == "" || rec.OrderNo == "" {
		return nil, shared.ErrMalformedInput
	}
	return &rec, nil
}

func isJSONString(raw json.RawMessage) bool {
	var s string
	return raw != nil && json.Unmarshal(raw, &s) == nil
}
