package returns

import (
	"strings"

	"github.com/returns/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DocumentType distinguishes the two record families that share the pipeline
type DocumentType string

const (
	DocumentTypeLogistics DocumentType = "LOGISTICS"
	DocumentTypeNCR       DocumentType = "NCR"
)

// Disposition is the decided fate of a graded item
type Disposition string

const (
	DispositionRestock     Disposition = "Restock"
	DispositionRTV         Disposition = "RTV"
	DispositionRecycle     Disposition = "Recycle"
	DispositionClaim       Disposition = "Claim"
	DispositionInternalUse Disposition = "InternalUse"
	DispositionPending     Disposition = "Pending"
)

// PlaceholderDocumentNo marks undocumented entries that are exempt from the
// uniqueness rule.
const PlaceholderDocumentNo = "-"

// NCRIDPrefix prefixes ids of return records spawned from an NCR report.
const NCRIDPrefix = "NCR-"

// ReturnRecord is one returned line item moving through the pipeline.
// Several records may share one DocumentNo: one physical shipment, many line
// items. Dates are stored as YYYY-MM-DD strings to match the store documents.
type ReturnRecord struct {
	ID         string `json:"id"`
	DocumentNo string `json:"documentNo,omitempty"`
	RefNo      string `json:"refNo,omitempty"`

	Branch              string `json:"branch"`
	CustomerCode        string `json:"customerCode,omitempty"`
	CustomerName        string `json:"customerName"`
	DestinationCustomer string `json:"destinationCustomer,omitempty"`
	CustomerAddress     string `json:"customerAddress,omitempty"`

	ProductCode string          `json:"productCode"`
	ProductName string          `json:"productName"`
	Category    string          `json:"category,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit,omitempty"`
	PriceBill   decimal.Decimal `json:"priceBill,omitempty"`
	PriceSell   decimal.Decimal `json:"priceSell,omitempty"`
	ExpiryDate  string          `json:"expiryDate,omitempty"`

	Status       ReturnStatus `json:"status"`
	Disposition  Disposition  `json:"disposition,omitempty"`
	DocumentType DocumentType `json:"documentType,omitempty"`

	// Back-links into the NCR and collection-order families
	NCRNumber         string `json:"ncrNumber,omitempty"`
	CollectionOrderID string `json:"collectionOrderId,omitempty"`

	// Timeline: general date plus one stamp per pipeline stage
	Date           string `json:"date"`
	DateRequested  string `json:"dateRequested,omitempty"`
	DateReceived   string `json:"dateReceived,omitempty"`
	DateGraded     string `json:"dateGraded,omitempty"`
	DateDocumented string `json:"dateDocumented,omitempty"`
	DateCompleted  string `json:"dateCompleted,omitempty"`

	// GradeResult keeps the grading outcome so an undo from Documented can
	// return to the state the record actually came from. BypassRoute does the
	// same for records that skipped hub grading.
	GradeResult ReturnStatus `json:"gradeResult,omitempty"`
	BypassRoute ReturnStatus `json:"bypassRoute,omitempty"`

	TransportInfo string `json:"transportInfo,omitempty"`
	Notes         string `json:"notes,omitempty"`
	Reason        string `json:"reason,omitempty"`

	// Problem details carried over from intake or a linked NCR
	ProblemType string `json:"problemType,omitempty"`
	RootCause   string `json:"rootCause,omitempty"`

	// Initial actions decided at intake
	ActionReject     bool `json:"actionReject,omitempty"`
	ActionRejectSort bool `json:"actionRejectSort,omitempty"`
	ActionScrap      bool `json:"actionScrap,omitempty"`

	// Claim routing
	ClaimCompany     string `json:"claimCompany,omitempty"`
	ClaimCoordinator string `json:"claimCoordinator,omitempty"`
	ClaimPhone       string `json:"claimPhone,omitempty"`
}

// NormalizeDocNo trims and lowercases a document number for comparison.
func NormalizeDocNo(docNo string) string {
	return strings.ToLower(strings.TrimSpace(docNo))
}

// HasDocumentNo reports whether the record carries a real document number.
// Empty and placeholder ("-") numbers are exempt from uniqueness.
func (r *ReturnRecord) HasDocumentNo() bool {
	n := NormalizeDocNo(r.DocumentNo)
	return n != "" && n != PlaceholderDocumentNo
}

// ProductKey returns the normalized product identity used by the uniqueness
// rule: the product code, falling back to the product name.
func ProductKey(productCode, productName string) string {
	if key := strings.ToLower(strings.TrimSpace(productCode)); key != "" {
		return key
	}
	return strings.ToLower(strings.TrimSpace(productName))
}

// ProductKey returns the record's normalized product identity.
func (r *ReturnRecord) ProductKey() string {
	return ProductKey(r.ProductCode, r.ProductName)
}

// IsNCRItem reports whether the record belongs to the NCR family, either by
// document type, an explicit back-link, or an NCR-prefixed id.
func (r *ReturnRecord) IsNCRItem() bool {
	return r.DocumentType == DocumentTypeNCR ||
		r.NCRNumber != "" ||
		strings.HasPrefix(r.ID, NCRIDPrefix)
}

// Advance moves the record forward to target, stamping the matching timeline
// field with the supplied date.
func (r *ReturnRecord) Advance(target ReturnStatus, date string) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown target status: "+target.String())
	}
	if !r.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot transition from "+r.Status.String()+" to "+target.String())
	}
	if target.IsGrading() {
		r.GradeResult = target
	}
	if target == StatusDirectReturn || target == StatusReturnToSupplier {
		r.BypassRoute = target
	}
	r.Status = target
	r.stamp(target, date)
	return nil
}

// Cancel soft-deletes the record. The record stays in the store for audit.
func (r *ReturnRecord) Cancel() error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot cancel a record in "+r.Status.String()+" status")
	}
	r.Status = StatusCanceled
	return nil
}

// PreviousStatus resolves the state an undo returns the record to: exactly
// one step back, to the state it logically came from, never skipping states.
func (r *ReturnRecord) PreviousStatus() (ReturnStatus, error) {
	switch r.Status {
	case StatusCanceled:
		return "", shared.NewDomainError("INVALID_STATE", "Cannot step back a canceled record")
	case StatusDraft:
		return "", shared.NewDomainError("INVALID_STATE", "Record is already at the first step")
	case StatusCompleted:
		// Completed is reached from Documented or from a bypass route.
		if r.DateDocumented == "" && (r.BypassRoute == StatusDirectReturn || r.BypassRoute == StatusReturnToSupplier) {
			return r.BypassRoute, nil
		}
		return StatusDocumented, nil
	case StatusDocumented:
		if r.GradeResult.IsGrading() {
			return r.GradeResult, nil
		}
		return StatusGraded, nil
	}
	prev, ok := predecessors[r.Status]
	if !ok {
		return "", shared.NewDomainError("INVALID_STATE",
			"No previous step for "+r.Status.String())
	}
	return prev, nil
}

// StepBack moves the record exactly one step back, clearing the timeline
// stamp of the stage being left. Callers must authorize this first.
func (r *ReturnRecord) StepBack() error {
	prev, err := r.PreviousStatus()
	if err != nil {
		return err
	}
	r.stamp(r.Status, "")
	if r.Status.IsGrading() {
		r.GradeResult = ""
	}
	r.Status = prev
	return nil
}

// stamp writes (or clears) the timeline field belonging to a status.
func (r *ReturnRecord) stamp(s ReturnStatus, date string) {
	switch s {
	case StatusRequested:
		r.DateRequested = date
	case StatusBranchReceived, StatusHubReceived:
		r.DateReceived = date
	case StatusQCPassed, StatusQCFailed, StatusGraded:
		r.DateGraded = date
	case StatusDocumented:
		r.DateDocumented = date
	case StatusCompleted:
		r.DateCompleted = date
	}
}
