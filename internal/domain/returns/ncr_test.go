package returns

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func sampleNCR() NCRRecord {
	return NCRRecord{
		ID:    NCRCompositeID("NCR-2026-0001", "a1"),
		NcrNo: "NCR-2026-0001",
		Date:  "2026-08-10",
		Item: NCRItem{
			Branch:        "Phitsanulok",
			ProductCode:   "X",
			ProductName:   "Widget",
			CustomerName:  "Acme",
			Quantity:      decimal.NewFromInt(3),
			Unit:          "pcs",
			ProblemSource: "transport",
		},
		ProblemDamaged: true,
		ProblemDetail:  "crushed carton",
		ActionReject:   true,
		Status:         NCRStatusOpen,
	}
}

func TestNCRCompositeID(t *testing.T) {
	assert.Equal(t, "NCR-2026-0001-a1", NCRCompositeID("NCR-2026-0001", "a1"))
}

func TestLinkKeyMatches(t *testing.T) {
	n := sampleNCR()
	key := n.LinkKey()

	linked := ReturnRecord{NCRNumber: "NCR-2026-0001", ProductCode: "X"}
	other := ReturnRecord{NCRNumber: "NCR-2026-0001", ProductCode: "Y"}
	unrelated := ReturnRecord{NCRNumber: "NCR-2026-0002", ProductCode: "X"}

	assert.True(t, key.Matches(&linked))
	assert.False(t, key.Matches(&other))
	assert.False(t, key.Matches(&unrelated))
}

func TestLinkKeyCapturedBeforePatch(t *testing.T) {
	// The key must reflect the values that originally linked the records,
	// even after the report row's product code changes.
	n := sampleNCR()
	key := n.LinkKey()

	n.Item.ProductCode = "Y"

	linked := ReturnRecord{NCRNumber: "NCR-2026-0001", ProductCode: "X"}
	assert.True(t, key.Matches(&linked), "pre-patch key must keep matching")
	assert.False(t, n.LinkKey().Matches(&linked))
}

func TestReturnPatchMapping(t *testing.T) {
	n := sampleNCR()
	patch := n.ReturnPatch()

	assert.Equal(t, "NCR-2026-0001", patch["ncrNumber"])
	assert.Equal(t, "X", patch["productCode"])
	assert.Equal(t, "Widget", patch["productName"])
	assert.Equal(t, "Phitsanulok", patch["branch"])
	assert.Equal(t, true, patch["actionReject"])
	assert.Contains(t, patch["problemType"], "damaged")
	assert.Contains(t, patch["problemType"], "crushed carton")
	assert.Equal(t, "transport", patch["rootCause"])
}

func TestSpawnReturn(t *testing.T) {
	n := sampleNCR()
	r := n.SpawnReturn("NCR-2026-0001-a1-r")

	assert.Equal(t, "NCR-2026-0001", r.NCRNumber)
	assert.Equal(t, DocumentTypeNCR, r.DocumentType)
	assert.Equal(t, StatusRequested, r.Status)
	assert.Equal(t, n.Date, r.DateRequested)
	assert.True(t, r.Quantity.Equal(decimal.NewFromInt(3)))
	assert.True(t, r.IsNCRItem())
}

func TestProblemSummary(t *testing.T) {
	n := NCRRecord{ProblemLost: true, ProblemOther: true, ProblemOtherText: "mislabeled"}
	s := n.ProblemSummary()
	assert.Contains(t, s, "lost")
	assert.Contains(t, s, "mislabeled")

	assert.Empty(t, (&NCRRecord{}).ProblemSummary())
}
