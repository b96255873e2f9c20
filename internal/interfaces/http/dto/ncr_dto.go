package dto

import (
	"github.com/shopspring/decimal"

	domain "github.com/returns/backend/internal/domain/returns"
)

// NCRItemInput is one product line of a report creation request
type NCRItemInput struct {
	Branch              string  `json:"branch" binding:"required"`
	RefNo               string  `json:"refNo"`
	ProductCode         string  `json:"productCode"`
	ProductName         string  `json:"productName" binding:"required"`
	CustomerName        string  `json:"customerName"`
	DestinationCustomer string  `json:"destinationCustomer"`
	Quantity            float64 `json:"quantity" binding:"required,gt=0"`
	Unit                string  `json:"unit"`
	PriceBill           float64 `json:"priceBill" binding:"omitempty,gte=0"`
	ExpiryDate          string  `json:"expiryDate" binding:"omitempty,dateymd"`
	ProblemSource       string  `json:"problemSource"`
	HasCost             bool    `json:"hasCost"`
	CostAmount          float64 `json:"costAmount" binding:"omitempty,gte=0"`
	CostResponsible     string  `json:"costResponsible"`
}

func (i NCRItemInput) toItem() domain.NCRItem {
	return domain.NCRItem{
		Branch:              i.Branch,
		RefNo:               i.RefNo,
		ProductCode:         i.ProductCode,
		ProductName:         i.ProductName,
		CustomerName:        i.CustomerName,
		DestinationCustomer: i.DestinationCustomer,
		Quantity:            decimal.NewFromFloat(i.Quantity),
		Unit:                i.Unit,
		PriceBill:           decimal.NewFromFloat(i.PriceBill),
		ExpiryDate:          i.ExpiryDate,
		ProblemSource:       i.ProblemSource,
		HasCost:             i.HasCost,
		CostAmount:          decimal.NewFromFloat(i.CostAmount),
		CostResponsible:     i.CostResponsible,
	}
}

// CreateReportRequest is the request body for creating a non-conformance
// report. The header fields are duplicated onto every item row.
type CreateReportRequest struct {
	ToDept  string `json:"toDept"`
	Date    string `json:"date" binding:"required,dateymd"`
	CopyTo  string `json:"copyTo"`
	Founder string `json:"founder"`
	PoNo    string `json:"poNo"`

	Items []NCRItemInput `json:"items" binding:"required,min=1,dive"`

	ProblemDamaged     bool   `json:"problemDamaged"`
	ProblemLost        bool   `json:"problemLost"`
	ProblemMixed       bool   `json:"problemMixed"`
	ProblemWrongInv    bool   `json:"problemWrongInv"`
	ProblemLate        bool   `json:"problemLate"`
	ProblemDuplicate   bool   `json:"problemDuplicate"`
	ProblemWrong       bool   `json:"problemWrong"`
	ProblemIncomplete  bool   `json:"problemIncomplete"`
	ProblemOther       bool   `json:"problemOther"`
	ProblemOtherText   string `json:"problemOtherText"`
	ProblemShortExpiry bool   `json:"problemShortExpiry"`
	ProblemDetail      string `json:"problemDetail"`

	CausePackaging    bool   `json:"causePackaging"`
	CauseTransport    bool   `json:"causeTransport"`
	CauseOperation    bool   `json:"causeOperation"`
	CauseEnv          bool   `json:"causeEnv"`
	CauseDetail       string `json:"causeDetail"`
	PreventionDetail  string `json:"preventionDetail"`
	PreventionDueDate string `json:"preventionDueDate" binding:"omitempty,dateymd"`
}

// ToTemplate builds the row template the report items are stamped from
func (r CreateReportRequest) ToTemplate() domain.NCRRecord {
	return domain.NCRRecord{
		ToDept:             r.ToDept,
		Date:               r.Date,
		CopyTo:             r.CopyTo,
		Founder:            r.Founder,
		PoNo:               r.PoNo,
		ProblemDamaged:     r.ProblemDamaged,
		ProblemLost:        r.ProblemLost,
		ProblemMixed:       r.ProblemMixed,
		ProblemWrongInv:    r.ProblemWrongInv,
		ProblemLate:        r.ProblemLate,
		ProblemDuplicate:   r.ProblemDuplicate,
		ProblemWrong:       r.ProblemWrong,
		ProblemIncomplete:  r.ProblemIncomplete,
		ProblemOther:       r.ProblemOther,
		ProblemOtherText:   r.ProblemOtherText,
		ProblemShortExpiry: r.ProblemShortExpiry,
		ProblemDetail:      r.ProblemDetail,
		CausePackaging:     r.CausePackaging,
		CauseTransport:     r.CauseTransport,
		CauseOperation:     r.CauseOperation,
		CauseEnv:           r.CauseEnv,
		CauseDetail:        r.CauseDetail,
		PreventionDetail:   r.PreventionDetail,
		PreventionDueDate:  r.PreventionDueDate,
	}
}

// ToItems converts the request items into domain items
func (r CreateReportRequest) ToItems() []domain.NCRItem {
	items := make([]domain.NCRItem, 0, len(r.Items))
	for _, in := range r.Items {
		items = append(items, in.toItem())
	}
	return items
}

// CreateReportResponse returns the issued number and the created rows
type CreateReportResponse struct {
	NcrNo string             `json:"ncrNo"`
	Rows  []domain.NCRRecord `json:"rows"`
}

// UpdateItemResponse reports how far an item patch cascaded
type UpdateItemResponse struct {
	Row           domain.NCRRecord `json:"row"`
	SyncedRecords int              `json:"syncedRecords"`
}

// CancelReportResponse reports the blast radius of a report cancel
type CancelReportResponse struct {
	CanceledRows    int `json:"canceledRows"`
	CanceledRecords int `json:"canceledRecords"`
}
