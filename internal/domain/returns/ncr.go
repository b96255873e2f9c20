package returns

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NCRStatus is the lifecycle state of a non-conformance report
type NCRStatus string

const (
	NCRStatusOpen     NCRStatus = "Open"
	NCRStatusClosed   NCRStatus = "Closed"
	NCRStatusCanceled NCRStatus = "Canceled"
)

// NCRItem is the product line embedded in each NCR row.
type NCRItem struct {
	Branch              string          `json:"branch"`
	RefNo               string          `json:"refNo,omitempty"`
	ProductCode         string          `json:"productCode"`
	ProductName         string          `json:"productName"`
	CustomerName        string          `json:"customerName,omitempty"`
	DestinationCustomer string          `json:"destinationCustomer,omitempty"`
	Quantity            decimal.Decimal `json:"quantity"`
	Unit                string          `json:"unit,omitempty"`
	PriceBill           decimal.Decimal `json:"priceBill,omitempty"`
	ExpiryDate          string          `json:"expiryDate,omitempty"`
	ProblemSource       string          `json:"problemSource,omitempty"`
	HasCost             bool            `json:"hasCost,omitempty"`
	CostAmount          decimal.Decimal `json:"costAmount,omitempty"`
	CostResponsible     string          `json:"costResponsible,omitempty"`
}

// NCRRecord is one line item of a non-conformance report. Many records share
// one NcrNo; the report header is duplicated onto each item row. That
// denormalization is deliberate: the store holds flat documents and every row
// must print standalone.
type NCRRecord struct {
	ID    string `json:"id"` // composite: {ncrNo}-{itemID}
	NcrNo string `json:"ncrNo"`

	// Header
	ToDept  string `json:"toDept,omitempty"`
	Date    string `json:"date"`
	CopyTo  string `json:"copyTo,omitempty"`
	Founder string `json:"founder,omitempty"`
	PoNo    string `json:"poNo,omitempty"`

	Item NCRItem `json:"item"`

	// Problem section
	ProblemDamaged     bool   `json:"problemDamaged,omitempty"`
	ProblemLost        bool   `json:"problemLost,omitempty"`
	ProblemMixed       bool   `json:"problemMixed,omitempty"`
	ProblemWrongInv    bool   `json:"problemWrongInv,omitempty"`
	ProblemLate        bool   `json:"problemLate,omitempty"`
	ProblemDuplicate   bool   `json:"problemDuplicate,omitempty"`
	ProblemWrong       bool   `json:"problemWrong,omitempty"`
	ProblemIncomplete  bool   `json:"problemIncomplete,omitempty"`
	ProblemOther       bool   `json:"problemOther,omitempty"`
	ProblemOtherText   string `json:"problemOtherText,omitempty"`
	ProblemShortExpiry bool   `json:"problemShortExpiry,omitempty"`
	ProblemDetail      string `json:"problemDetail,omitempty"`

	// Action section
	ActionReject            bool            `json:"actionReject,omitempty"`
	ActionRejectQty         decimal.Decimal `json:"actionRejectQty,omitempty"`
	ActionRejectSort        bool            `json:"actionRejectSort,omitempty"`
	ActionRejectSortQty     decimal.Decimal `json:"actionRejectSortQty,omitempty"`
	ActionRework            bool            `json:"actionRework,omitempty"`
	ActionReworkQty         decimal.Decimal `json:"actionReworkQty,omitempty"`
	ActionReworkMethod      string          `json:"actionReworkMethod,omitempty"`
	ActionSpecialAccept     bool            `json:"actionSpecialAccept,omitempty"`
	ActionSpecialAcceptQty  decimal.Decimal `json:"actionSpecialAcceptQty,omitempty"`
	ActionSpecialAcceptNote string          `json:"actionSpecialAcceptReason,omitempty"`
	ActionScrap             bool            `json:"actionScrap,omitempty"`
	ActionScrapQty          decimal.Decimal `json:"actionScrapQty,omitempty"`
	ActionReplace           bool            `json:"actionReplace,omitempty"`
	ActionReplaceQty        decimal.Decimal `json:"actionReplaceQty,omitempty"`
	DueDate                 string          `json:"dueDate,omitempty"`
	Approver                string          `json:"approver,omitempty"`
	ApproverPosition        string          `json:"approverPosition,omitempty"`
	ApproverDate            string          `json:"approverDate,omitempty"`

	// Cause & prevention
	CausePackaging    bool   `json:"causePackaging,omitempty"`
	CauseTransport    bool   `json:"causeTransport,omitempty"`
	CauseOperation    bool   `json:"causeOperation,omitempty"`
	CauseEnv          bool   `json:"causeEnv,omitempty"`
	CauseDetail       string `json:"causeDetail,omitempty"`
	PreventionDetail  string `json:"preventionDetail,omitempty"`
	PreventionDueDate string `json:"preventionDueDate,omitempty"`

	Status NCRStatus `json:"status"`
}

// NCRCompositeID builds the record id for one item row of a report.
func NCRCompositeID(ncrNo, itemID string) string {
	return ncrNo + "-" + itemID
}

// LinkKey is the pair that ties NCR rows to the return records they spawned.
// Sync must always match on the values that originally linked the records,
// so callers capture the key before applying any patch.
type LinkKey struct {
	NcrNo       string
	ProductCode string
}

// LinkKey returns the record's current link key.
func (n *NCRRecord) LinkKey() LinkKey {
	return LinkKey{NcrNo: n.NcrNo, ProductCode: n.Item.ProductCode}
}

// Matches reports whether a return record was spawned from this link key.
func (k LinkKey) Matches(r *ReturnRecord) bool {
	return r.NCRNumber == k.NcrNo && r.ProductCode == k.ProductCode
}

// IsCanceled reports whether the report row has been soft-deleted.
func (n *NCRRecord) IsCanceled() bool {
	return n.Status == NCRStatusCanceled
}

// ProblemSummary joins the ticked problem flags into a single line for the
// return record's problem field.
func (n *NCRRecord) ProblemSummary() string {
	var parts []string
	add := func(on bool, label string) {
		if on {
			parts = append(parts, label)
		}
	}
	add(n.ProblemDamaged, "damaged")
	add(n.ProblemLost, "lost")
	add(n.ProblemMixed, "mixed")
	add(n.ProblemWrongInv, "wrong invoice")
	add(n.ProblemLate, "late")
	add(n.ProblemDuplicate, "duplicate delivery")
	add(n.ProblemWrong, "wrong item")
	add(n.ProblemIncomplete, "incomplete")
	add(n.ProblemShortExpiry, "short expiry")
	if n.ProblemOther && n.ProblemOtherText != "" {
		parts = append(parts, n.ProblemOtherText)
	}
	if n.ProblemDetail != "" {
		parts = append(parts, n.ProblemDetail)
	}
	return strings.Join(parts, ", ")
}

// ReturnPatch is the defined field mapping pushed onto every linked return
// record when the report row changes. It is a merge-patch, not a full
// overwrite: untouched return-record fields survive.
func (n *NCRRecord) ReturnPatch() map[string]any {
	return map[string]any{
		"ncrNumber":           n.NcrNo,
		"date":                n.Date,
		"branch":              n.Item.Branch,
		"refNo":               n.Item.RefNo,
		"productCode":         n.Item.ProductCode,
		"productName":         n.Item.ProductName,
		"customerName":        n.Item.CustomerName,
		"destinationCustomer": n.Item.DestinationCustomer,
		"quantity":            n.Item.Quantity,
		"unit":                n.Item.Unit,
		"priceBill":           n.Item.PriceBill,
		"problemType":         n.ProblemSummary(),
		"rootCause":           n.Item.ProblemSource,
		"actionReject":        n.ActionReject,
		"actionRejectSort":    n.ActionRejectSort,
		"actionScrap":         n.ActionScrap,
	}
}

// SpawnReturn builds a return record linked back to this report row.
func (n *NCRRecord) SpawnReturn(id string) ReturnRecord {
	reason := n.ProblemSummary()
	if n.Item.ProblemSource != "" {
		reason = fmt.Sprintf("%s (%s)", reason, n.Item.ProblemSource)
	}
	return ReturnRecord{
		ID:                  id,
		NCRNumber:           n.NcrNo,
		RefNo:               n.Item.RefNo,
		Branch:              n.Item.Branch,
		CustomerName:        n.Item.CustomerName,
		DestinationCustomer: n.Item.DestinationCustomer,
		ProductCode:         n.Item.ProductCode,
		ProductName:         n.Item.ProductName,
		Quantity:            n.Item.Quantity,
		Unit:                n.Item.Unit,
		PriceBill:           n.Item.PriceBill,
		Date:                n.Date,
		Status:              StatusRequested,
		DateRequested:       n.Date,
		DocumentType:        DocumentTypeNCR,
		Reason:              "NCR: " + reason,
		ProblemType:         n.ProblemSummary(),
		RootCause:           n.Item.ProblemSource,
		ActionReject:        n.ActionReject,
		ActionRejectSort:    n.ActionRejectSort,
		ActionScrap:         n.ActionScrap,
	}
}
