package returns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rec(id, docNo, productCode, productName string, status ReturnStatus) ReturnRecord {
	return ReturnRecord{
		ID:          id,
		DocumentNo:  docNo,
		ProductCode: productCode,
		ProductName: productName,
		Status:      status,
	}
}

func TestCheckWrite(t *testing.T) {
	t.Run("allows first record for a fresh document number", func(t *testing.T) {
		d := CheckWrite(WriteTarget{DocumentNo: "R-100", ProductName: "Widget"}, nil)
		assert.True(t, d.Allowed)
	})

	t.Run("allows same document with a different product", func(t *testing.T) {
		existing := []ReturnRecord{rec("1", "R-100", "", "Widget", StatusDraft)}
		d := CheckWrite(WriteTarget{DocumentNo: "R-100", ProductName: "Gadget"}, existing)
		assert.True(t, d.Allowed)
	})

	t.Run("rejects exact duplicate with reason duplicate", func(t *testing.T) {
		existing := []ReturnRecord{
			rec("1", "R-100", "", "Widget", StatusDraft),
			rec("2", "R-100", "", "Gadget", StatusDraft),
		}
		d := CheckWrite(WriteTarget{DocumentNo: "R-100", ProductName: "Widget"}, existing)
		assert.False(t, d.Allowed)
		assert.Equal(t, RejectDuplicate, d.Reason)
	})

	t.Run("rejects any product once the document is locked", func(t *testing.T) {
		existing := []ReturnRecord{
			rec("1", "R-100", "", "Widget", StatusInTransit),
			rec("2", "R-100", "", "Gadget", StatusDraft),
		}
		d := CheckWrite(WriteTarget{DocumentNo: "R-100", ProductName: "Gizmo"}, existing)
		assert.False(t, d.Allowed)
		assert.Equal(t, RejectLocked, d.Reason)
	})

	t.Run("lock wins over duplicate", func(t *testing.T) {
		existing := []ReturnRecord{rec("1", "R-100", "", "Widget", StatusCompleted)}
		d := CheckWrite(WriteTarget{DocumentNo: "R-100", ProductName: "Widget"}, existing)
		assert.Equal(t, RejectLocked, d.Reason)
	})

	t.Run("placeholder and empty document numbers always pass", func(t *testing.T) {
		existing := []ReturnRecord{
			rec("1", "", "", "Widget", StatusCompleted),
			rec("2", "-", "", "Widget", StatusCompleted),
			rec("3", " - ", "", "Widget", StatusCompleted),
		}
		for _, docNo := range []string{"", "-", "  ", " - "} {
			d := CheckWrite(WriteTarget{DocumentNo: docNo, ProductName: "Widget"}, existing)
			assert.True(t, d.Allowed, "docNo %q should bypass uniqueness", docNo)
		}
	})

	t.Run("matching is case and whitespace insensitive", func(t *testing.T) {
		existing := []ReturnRecord{rec("1", " r-100 ", "", "WIDGET", StatusDraft)}
		d := CheckWrite(WriteTarget{DocumentNo: "R-100", ProductName: " widget "}, existing)
		assert.Equal(t, RejectDuplicate, d.Reason)
	})

	t.Run("product code takes precedence over product name", func(t *testing.T) {
		existing := []ReturnRecord{rec("1", "R-100", "SKU-1", "Widget", StatusDraft)}

		d := CheckWrite(WriteTarget{DocumentNo: "R-100", ProductCode: "SKU-1", ProductName: "Renamed"}, existing)
		assert.Equal(t, RejectDuplicate, d.Reason)

		d = CheckWrite(WriteTarget{DocumentNo: "R-100", ProductCode: "SKU-2", ProductName: "Widget"}, existing)
		assert.True(t, d.Allowed)
	})

	t.Run("update excludes the record being edited", func(t *testing.T) {
		existing := []ReturnRecord{rec("1", "R-100", "", "Widget", StatusDraft)}
		d := CheckWrite(WriteTarget{DocumentNo: "R-100", ProductName: "Widget", ExcludeID: "1"}, existing)
		assert.True(t, d.Allowed)
	})

	t.Run("update still collides with other records", func(t *testing.T) {
		existing := []ReturnRecord{
			rec("1", "R-100", "", "Widget", StatusDraft),
			rec("2", "R-100", "", "Gadget", StatusDraft),
		}
		d := CheckWrite(WriteTarget{DocumentNo: "R-100", ProductName: "Gadget", ExcludeID: "1"}, existing)
		assert.Equal(t, RejectDuplicate, d.Reason)
	})
}
