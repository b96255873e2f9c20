package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/spreadsheet"
)

// Class is the reconciliation verdict for one parsed row.
type Class string

const (
	// ClassNew has no counterpart in the record set.
	ClassNew Class = "new"
	// ClassUpdate matches an editable existing record; the candidate
	// carries that record's id.
	ClassUpdate Class = "update"
	// ClassLocked matches a record whose document has progressed past
	// intake. Blocked unless force-updated.
	ClassLocked Class = "locked"
	// ClassDuplicateInFile repeats an earlier row of the same file.
	ClassDuplicateInFile Class = "inFileDuplicate"
)

// Conflicting reports whether the class blocks a plain commit.
func (c Class) Conflicting() bool {
	return c == ClassLocked || c == ClassDuplicateInFile
}

// Policy resolves conflicting candidates in one batch decision.
type Policy string

const (
	// PolicyForceUpdate converts conflicts into updates of the records
	// they collided with.
	PolicyForceUpdate Policy = "forceUpdate"
	// PolicyRemove drops conflicting candidates from the batch.
	PolicyRemove Policy = "remove"
)

// Candidate is one spreadsheet row reconciled against the record set.
type Candidate struct {
	Row        int // 1-based row in the source sheet
	Class      Class
	ExistingID string
	Record     returns.ReturnRecord
}

// Options tune the reconciler.
type Options struct {
	// SourceCustomer, when set, forces every imported record's customer
	// to this value and shifts the sheet's customer column into
	// DestinationCustomer. Logistics sheets name the receiving shop in
	// their customer column; the sender is always the company itself.
	SourceCustomer string

	// BranchRules override the shipped branch inference table. Defaults
	// to DefaultBranchRules.
	BranchRules []BranchRule

	// Now stamps the import date. Defaults to time.Now.
	Now func() time.Time
}

// Reconciler turns a spreadsheet grid into classified import candidates.
type Reconciler struct {
	opts   Options
	logger *zap.Logger
}

func NewReconciler(opts Options, logger *zap.Logger) *Reconciler {
	if opts.BranchRules == nil {
		opts.BranchRules = DefaultBranchRules()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{opts: opts, logger: logger}
}

// Reconcile parses the grid and classifies every data row against the
// caller's current snapshot of the record set. The returned candidates keep
// sheet order.
func (r *Reconciler) Reconcile(grid spreadsheet.Grid, existing []returns.ReturnRecord) ([]Candidate, error) {
	headerIdx := detectHeaderRow(grid)
	columns := mapColumns(grid, headerIdx)
	if len(columns) == 0 {
		return nil, shared.NewDomainError("NO_HEADER",
			"No recognizable header row (expected columns like Doc No, Product, Qty)")
	}

	today := r.opts.Now().Format("2006-01-02")
	fileKeys := make(map[string]bool)
	var candidates []Candidate

	for i := headerIdx + 1; i < len(grid); i++ {
		rec, ok := r.parseRow(grid[i], columns)
		if !ok {
			continue
		}

		if rec.Branch == "" && rec.CustomerAddress != "" {
			rec.Branch = InferBranch(r.opts.BranchRules, rec.CustomerAddress)
		}
		if r.opts.SourceCustomer != "" {
			if rec.CustomerName != "" {
				rec.DestinationCustomer = rec.CustomerName
			}
			rec.CustomerName = r.opts.SourceCustomer
		}
		rec.Date = today

		cand := Candidate{Row: i + 1, Class: ClassNew, Record: rec}
		key := importKey(rec.DocumentNo, rec.ProductName)

		if match := findByImportKey(existing, key); match != nil {
			if importLocked(match.Status) {
				cand.Class = ClassLocked
				cand.ExistingID = match.ID
			} else {
				// Draft, Requested and canceled records may be
				// re-imported as updates.
				cand.Class = ClassUpdate
				cand.ExistingID = match.ID
				cand.Record.ID = match.ID
			}
		} else if fileKeys[key] {
			cand.Class = ClassDuplicateInFile
		}

		if returns.NormalizeDocNo(rec.DocumentNo) != "" {
			fileKeys[key] = true
		}
		candidates = append(candidates, cand)
	}

	r.logger.Info("spreadsheet reconciled",
		zap.Int("rows", len(candidates)),
		zap.Int("header_row", headerIdx+1))
	return candidates, nil
}

// ApplyPolicy resolves conflicting candidates. PolicyForceUpdate turns them
// into updates of the record they collided with (or plain creates when the
// collision was file-internal); PolicyRemove drops them.
func ApplyPolicy(candidates []Candidate, policy Policy, existing []returns.ReturnRecord) ([]Candidate, error) {
	switch policy {
	case PolicyForceUpdate:
		out := make([]Candidate, 0, len(candidates))
		for _, cand := range candidates {
			if cand.Class.Conflicting() {
				if cand.ExistingID == "" {
					key := importKey(cand.Record.DocumentNo, cand.Record.ProductName)
					if match := findByImportKey(existing, key); match != nil {
						cand.ExistingID = match.ID
					}
				}
				if cand.ExistingID != "" {
					cand.Class = ClassUpdate
					cand.Record.ID = cand.ExistingID
				} else {
					cand.Class = ClassNew
				}
			}
			out = append(out, cand)
		}
		return out, nil
	case PolicyRemove:
		out := make([]Candidate, 0, len(candidates))
		for _, cand := range candidates {
			if !cand.Class.Conflicting() {
				out = append(out, cand)
			}
		}
		return out, nil
	default:
		return nil, shared.NewDomainError("INVALID_POLICY", "Unknown conflict policy: "+string(policy))
	}
}

// detectHeaderRow finds the first row hitting at least one keyword bucket.
// Falls back to the first row, matching how hand-made sheets usually look.
func detectHeaderRow(grid spreadsheet.Grid) int {
	for i, row := range grid {
		var parts []string
		for _, cell := range row {
			parts = append(parts, strings.ToLower(cell.Text))
		}
		if headerScore(strings.Join(parts, " ")) >= 1 {
			return i
		}
	}
	return 0
}

// mapColumns resolves header cells to candidate fields via the alias table.
func mapColumns(grid spreadsheet.Grid, headerIdx int) map[int]string {
	columns := make(map[int]string)
	if headerIdx >= len(grid) {
		return columns
	}
	for col, cell := range grid[headerIdx] {
		normalized := normalizeHeader(cell.Text)
		if normalized == "" {
			continue
		}
		for field, aliases := range fieldAliases {
			for _, alias := range aliases {
				if normalizeHeader(alias) == normalized {
					columns[col] = field
					break
				}
			}
			if _, done := columns[col]; done {
				break
			}
		}
	}
	return columns
}

// parseRow assembles one ReturnRecord from a data row. Returns false when
// the row carries no mapped data at all.
func (r *Reconciler) parseRow(row []spreadsheet.Cell, columns map[int]string) (returns.ReturnRecord, bool) {
	rec := returns.ReturnRecord{
		DocumentType: returns.DocumentTypeLogistics,
		Status:       returns.StatusDraft,
	}
	hasData := false
	var tmNo, controlDate string

	for col, field := range columns {
		if col >= len(row) {
			continue
		}
		cell := row[col]
		if cell.Kind == spreadsheet.KindEmpty {
			continue
		}
		text := strings.TrimSpace(cell.Text)
		if text == "" {
			continue
		}
		hasData = true

		switch field {
		case "documentNo":
			rec.DocumentNo = text
		case "date":
			rec.Date = coerceDate(cell)
		case "customerCode":
			rec.CustomerCode = text
		case "customerName":
			rec.CustomerName = text
		case "destinationCustomer":
			rec.DestinationCustomer = text
		case "customerAddress":
			rec.CustomerAddress = text
		case "productCode":
			rec.ProductCode = text
		case "productName":
			rec.ProductName = text
		case "quantity":
			rec.Quantity = parseQuantity(cell)
		case "unit":
			rec.Unit = text
		case "tmNo":
			tmNo = text
		case "controlDate":
			controlDate = coerceDate(cell)
		case "notes":
			rec.Notes = text
		}
	}

	if tmNo != "" {
		rec.TransportInfo = tmNo
		if controlDate != "" {
			rec.TransportInfo = fmt.Sprintf("%s (%s)", tmNo, controlDate)
		}
	}
	return rec, hasData
}

// coerceDate normalizes a date cell to YYYY-MM-DD. Native date cells carry
// their parsed time; DD/MM/YYYY text is rearranged; anything else passes
// through untouched. The all-digit guard keeps formatted date-time strings
// like "8/5/26 00:00" from being reassembled into garbage.
func coerceDate(cell spreadsheet.Cell) string {
	if cell.Kind == spreadsheet.KindDate {
		return cell.Time.Format("2006-01-02")
	}
	text := strings.TrimSpace(cell.Text)
	parts := strings.Split(text, "/")
	if len(parts) == 3 && allDigits(parts) {
		return parts[2] + "-" + pad2(parts[1]) + "-" + pad2(parts[0])
	}
	return text
}

func allDigits(parts []string) bool {
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func parseQuantity(cell spreadsheet.Cell) decimal.Decimal {
	if cell.Kind == spreadsheet.KindNumber {
		return decimal.NewFromFloat(cell.Number)
	}
	if d, err := decimal.NewFromString(strings.ReplaceAll(cell.Text, ",", "")); err == nil {
		return d
	}
	return decimal.Zero
}

// importKey is the match identity: normalized document number plus
// normalized product name. Product code is deliberately not used here;
// sheets frequently omit it.
func importKey(docNo, productName string) string {
	return returns.NormalizeDocNo(docNo) + "|" + strings.ToLower(strings.TrimSpace(productName))
}

func findByImportKey(existing []returns.ReturnRecord, key string) *returns.ReturnRecord {
	for i := range existing {
		if importKey(existing[i].DocumentNo, existing[i].ProductName) == key {
			return &existing[i]
		}
	}
	return nil
}

// importLocked decides whether a matched record blocks re-import. Canceled
// records do not: a canceled entry is dead weight the new row may replace.
func importLocked(s returns.ReturnStatus) bool {
	return s.IsLocked() && s != returns.StatusCanceled
}
