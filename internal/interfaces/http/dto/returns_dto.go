package dto

import (
	"github.com/shopspring/decimal"

	domain "github.com/returns/backend/internal/domain/returns"
)

// RecordRequest is the request body for creating or replacing a return
// record. Dates are YYYY-MM-DD strings.
type RecordRequest struct {
	DocumentNo string `json:"documentNo"`
	RefNo      string `json:"refNo"`

	Branch              string `json:"branch" binding:"required"`
	CustomerCode        string `json:"customerCode"`
	CustomerName        string `json:"customerName" binding:"required"`
	DestinationCustomer string `json:"destinationCustomer"`
	CustomerAddress     string `json:"customerAddress"`

	ProductCode string  `json:"productCode"`
	ProductName string  `json:"productName" binding:"required"`
	Category    string  `json:"category"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	Unit        string  `json:"unit"`
	PriceBill   float64 `json:"priceBill" binding:"omitempty,gte=0"`
	PriceSell   float64 `json:"priceSell" binding:"omitempty,gte=0"`
	ExpiryDate  string  `json:"expiryDate" binding:"omitempty,dateymd"`

	Status       string `json:"status"`
	Disposition  string `json:"disposition"`
	DocumentType string `json:"documentType" binding:"omitempty,oneof=LOGISTICS NCR"`

	Date          string `json:"date" binding:"required,dateymd"`
	TransportInfo string `json:"transportInfo"`
	Notes         string `json:"notes"`
	Reason        string `json:"reason"`

	ProblemType string `json:"problemType"`
	RootCause   string `json:"rootCause"`

	ClaimCompany     string `json:"claimCompany"`
	ClaimCoordinator string `json:"claimCoordinator"`
	ClaimPhone       string `json:"claimPhone"`
}

// ToRecord converts the request into a domain record. The id is supplied by
// the caller: empty for creates, the path id for updates.
func (r RecordRequest) ToRecord(id string) domain.ReturnRecord {
	return domain.ReturnRecord{
		ID:                  id,
		DocumentNo:          r.DocumentNo,
		RefNo:               r.RefNo,
		Branch:              r.Branch,
		CustomerCode:        r.CustomerCode,
		CustomerName:        r.CustomerName,
		DestinationCustomer: r.DestinationCustomer,
		CustomerAddress:     r.CustomerAddress,
		ProductCode:         r.ProductCode,
		ProductName:         r.ProductName,
		Category:            r.Category,
		Quantity:            decimal.NewFromFloat(r.Quantity),
		Unit:                r.Unit,
		PriceBill:           decimal.NewFromFloat(r.PriceBill),
		PriceSell:           decimal.NewFromFloat(r.PriceSell),
		ExpiryDate:          r.ExpiryDate,
		Status:              domain.ReturnStatus(r.Status),
		Disposition:         domain.Disposition(r.Disposition),
		DocumentType:        domain.DocumentType(r.DocumentType),
		Date:                r.Date,
		TransportInfo:       r.TransportInfo,
		Notes:               r.Notes,
		Reason:              r.Reason,
		ProblemType:         r.ProblemType,
		RootCause:           r.RootCause,
		ClaimCompany:        r.ClaimCompany,
		ClaimCoordinator:    r.ClaimCoordinator,
		ClaimPhone:          r.ClaimPhone,
	}
}

// Merge builds the replacement record for an update: the request fields laid
// over the current record, keeping everything the request cannot express
// (lifecycle state, timeline stamps, back-links).
func (r RecordRequest) Merge(current domain.ReturnRecord) domain.ReturnRecord {
	rec := r.ToRecord(current.ID)
	if r.RefNo == "" {
		rec.RefNo = current.RefNo
	}
	if r.Status == "" {
		rec.Status = current.Status
	}
	if r.Disposition == "" {
		rec.Disposition = current.Disposition
	}
	if r.DocumentType == "" {
		rec.DocumentType = current.DocumentType
	}
	rec.NCRNumber = current.NCRNumber
	rec.CollectionOrderID = current.CollectionOrderID
	rec.DateRequested = current.DateRequested
	rec.DateReceived = current.DateReceived
	rec.DateGraded = current.DateGraded
	rec.DateDocumented = current.DateDocumented
	rec.DateCompleted = current.DateCompleted
	rec.GradeResult = current.GradeResult
	rec.BypassRoute = current.BypassRoute
	return rec
}

// AdvanceRequest moves a record one stage forward
type AdvanceRequest struct {
	Status string `json:"status" binding:"required"`
	Date   string `json:"date" binding:"required,dateymd"`
}

// SupervisorRequest carries the credential for a supervisor-gated action
type SupervisorRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// CreateOrderRequest is the request body for creating a collection order
type CreateOrderRequest struct {
	Branch    string   `json:"branch"`
	Date      string   `json:"date" binding:"required,dateymd"`
	RecordIDs []string `json:"recordIds" binding:"required,min=1"`
	Notes     string   `json:"notes"`
}

// OrderStatusRequest updates a collection order's status
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Open Dispatched Closed Canceled"`
}
