package dto

import (
	"github.com/returns/backend/internal/application/importer"
	domain "github.com/returns/backend/internal/domain/returns"
)

// ImportRowView is one classified sheet row in a preview response
type ImportRowView struct {
	Row        int                 `json:"row"`
	Class      string              `json:"class"`
	ExistingID string              `json:"existingId,omitempty"`
	Record     domain.ReturnRecord `json:"record"`
}

// ImportPreviewResponse summarizes a parsed sheet before anything is written
type ImportPreviewResponse struct {
	Rows       []ImportRowView `json:"rows"`
	New        int             `json:"new"`
	Updates    int             `json:"updates"`
	Locked     int             `json:"locked"`
	Duplicates int             `json:"duplicates"`
}

// NewImportPreviewResponse builds the preview view from reconciled candidates
func NewImportPreviewResponse(candidates []importer.Candidate) ImportPreviewResponse {
	resp := ImportPreviewResponse{Rows: make([]ImportRowView, 0, len(candidates))}
	for _, cand := range candidates {
		resp.Rows = append(resp.Rows, ImportRowView{
			Row:        cand.Row,
			Class:      string(cand.Class),
			ExistingID: cand.ExistingID,
			Record:     cand.Record,
		})
		switch cand.Class {
		case importer.ClassNew:
			resp.New++
		case importer.ClassUpdate:
			resp.Updates++
		case importer.ClassLocked:
			resp.Locked++
		case importer.ClassDuplicateInFile:
			resp.Duplicates++
		}
	}
	return resp
}

// ImportCommitResponse reports what a committed import wrote
type ImportCommitResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}
