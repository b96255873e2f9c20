package returns

// RejectReason classifies a guard denial
type RejectReason string

const (
	// RejectLocked means the document number has progressed past initial
	// intake and may not receive new or edited items, regardless of product.
	RejectLocked RejectReason = "locked"
	// RejectDuplicate means the same document already carries the same
	// product.
	RejectDuplicate RejectReason = "duplicate"
)

// WriteTarget describes an intended create or update for the guard.
// ExcludeID is set on update so the record being edited does not collide
// with itself.
type WriteTarget struct {
	DocumentNo  string
	ProductCode string
	ProductName string
	ExcludeID   string
}

// Decision is the guard's verdict for a write target.
type Decision struct {
	Allowed bool
	Reason  RejectReason
}

// Allow is the permissive decision.
var Allow = Decision{Allowed: true}

// Reject builds a denial with the given reason.
func Reject(reason RejectReason) Decision {
	return Decision{Reason: reason}
}

// CheckWrite decides whether a create or update may proceed against the
// caller's current snapshot of the record set. The function is pure and must
// be applied identically on create and update.
//
// Empty and placeholder document numbers always pass: no uniqueness applies
// to undocumented entries. A document whose records have all stayed in
// Draft/Requested accepts new products but rejects an exact product repeat;
// once any record sharing the number has moved on, the whole number is
// locked.
func CheckWrite(target WriteTarget, existing []ReturnRecord) Decision {
	docNo := NormalizeDocNo(target.DocumentNo)
	if docNo == "" || docNo == PlaceholderDocumentNo {
		return Allow
	}

	productKey := ProductKey(target.ProductCode, target.ProductName)

	var sameDoc []*ReturnRecord
	for i := range existing {
		rec := &existing[i]
		if target.ExcludeID != "" && rec.ID == target.ExcludeID {
			continue
		}
		if NormalizeDocNo(rec.DocumentNo) == docNo {
			sameDoc = append(sameDoc, rec)
		}
	}
	if len(sameDoc) == 0 {
		return Allow
	}

	for _, rec := range sameDoc {
		if rec.Status.IsLocked() {
			return Reject(RejectLocked)
		}
	}
	for _, rec := range sameDoc {
		if rec.ProductKey() == productKey {
			return Reject(RejectDuplicate)
		}
	}

	// Same document, different product: the supported one-document-many-items
	// case.
	return Allow
}
