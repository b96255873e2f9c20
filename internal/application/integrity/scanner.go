package integrity

import (
	"context"
	"strings"

	"go.uber.org/zap"

	appreturns "github.com/returns/backend/internal/application/returns"
	domain "github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/auth"
)

// Scan finds return records claiming NCR parentage that no live report
// backs: the claimed report is missing entirely, or every row of it has
// been canceled. Pure function over the two snapshots.
func Scan(records []domain.ReturnRecord, reports []domain.NCRRecord) []domain.ReturnRecord {
	// A claim counts as backed only while at least one row of the report
	// is not canceled. Missing parents and all-canceled parents are both
	// orphans.
	live := make(map[string]bool)
	for _, row := range reports {
		if !row.IsCanceled() {
			live[row.NcrNo] = true
			live[row.ID] = true
		}
	}

	var orphans []domain.ReturnRecord
	for _, rec := range records {
		claim := rec.NCRNumber
		if claim == "" {
			if !strings.HasPrefix(rec.ID, domain.NCRIDPrefix) {
				continue
			}
			claim = rec.ID
		}
		if live[claim] {
			continue
		}
		orphans = append(orphans, rec)
	}
	return orphans
}

// Service runs integrity scans over the live snapshots and sweeps the
// orphans it finds.
type Service struct {
	records     domain.ReturnRecordRepository
	recordCache *appreturns.Cache[domain.ReturnRecord]
	reportCache *appreturns.Cache[domain.NCRRecord]
	authz       auth.Authorizer
	logger      *zap.Logger
}

func NewService(
	records domain.ReturnRecordRepository,
	recordCache *appreturns.Cache[domain.ReturnRecord],
	reportCache *appreturns.Cache[domain.NCRRecord],
	authz auth.Authorizer,
	logger *zap.Logger,
) *Service {
	return &Service{
		records:     records,
		recordCache: recordCache,
		reportCache: reportCache,
		authz:       authz,
		logger:      logger,
	}
}

// Scan reports the current orphans without touching anything.
func (s *Service) Scan() []domain.ReturnRecord {
	return Scan(s.recordCache.All(), s.reportCache.All())
}

// Sweep hard-deletes every orphan the scan finds. One failed delete is
// logged and skipped; the sweep finishes the rest. Returns the number of
// records actually deleted. Requires a supervisor credential.
func (s *Service) Sweep(ctx context.Context, credential string) (int, error) {
	if !s.authz.Authorize(auth.ActionSweepOrphans, credential) {
		return 0, shared.ErrUnauthorized
	}

	orphans := s.Scan()
	deleted := 0
	for _, rec := range orphans {
		if err := s.records.Delete(ctx, rec.ID); err != nil {
			s.logger.Warn("orphan delete failed",
				zap.String("id", rec.ID),
				zap.String("ncr_no", rec.NCRNumber),
				zap.Error(err))
			continue
		}
		deleted++
	}
	s.logger.Info("orphan sweep finished",
		zap.Int("found", len(orphans)),
		zap.Int("deleted", deleted))
	return deleted, nil
}
