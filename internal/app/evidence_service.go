package app

import (
	"context"
	"fmt"

	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/logger"
)

// EvidenceService handles evidence file operations.
type EvidenceService struct {
	evidenceRepo report.EvidenceRepository
	reportRepo   report.Repository
	resolver     *rbac.Resolver
	clock        shared.Clock
	logger       *logger.Logger
}

// NewEvidenceService creates a new EvidenceService.
func NewEvidenceService(
	evidenceRepo report.EvidenceRepository,
	reportRepo report.Repository,
	resolver *rbac.Resolver,
	clock shared.Clock,
	log *logger.Logger,
) *EvidenceService {
	return &EvidenceService{
		evidenceRepo: evidenceRepo,
		reportRepo:   reportRepo,
		resolver:     resolver,
		clock:        clock,
		logger:       log.With("service", "evidence"),
	}
}

// UploadEvidenceInput represents the input for uploading evidence.
type UploadEvidenceInput struct {
	ReportID string `validate:"required,uuid"`
	Filename string `validate:"required,min=1,max=255"`
	Mimetype string `validate:"max=255"`
	Data     []byte `validate:"required"`
}

// UploadEvidence attaches a file to a report. The actor must be able
// to read the report; anonymous actors cannot upload.
func (s *EvidenceService) UploadEvidence(ctx context.Context, actorID shared.ID, input UploadEvidenceInput) (*report.EvidenceFile, error) {
	r, p, err := s.load(ctx, actorID, input.ReportID)
	if err != nil {
		return nil, err
	}

	if p.IsAnonymous() || !report.CanReadReport(p, r) {
		return nil, shared.ErrForbidden
	}

	file, err := report.NewEvidenceFile(r.ID(), actorID, input.Filename, input.Mimetype, input.Data, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.evidenceRepo.Create(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to store evidence: %w", err)
	}

	s.logger.Info("evidence uploaded",
		"evidence_id", file.ID().String(),
		"report_id", input.ReportID,
		"size", file.Size(),
	)
	return file, nil
}

// GetEvidence retrieves an evidence file with its contents.
func (s *EvidenceService) GetEvidence(ctx context.Context, actorID shared.ID, evidenceID string) (*report.EvidenceFile, error) {
	id, err := shared.IDFromString(evidenceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid evidence id format", shared.ErrValidation)
	}

	file, err := s.evidenceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r, p, err := s.load(ctx, actorID, file.ReportID().String())
	if err != nil {
		return nil, err
	}

	if !report.CanReadReport(p, r) {
		return nil, shared.ErrForbidden
	}

	return file, nil
}

// ListEvidence returns evidence metadata for a report. File contents
// are not loaded.
func (s *EvidenceService) ListEvidence(ctx context.Context, actorID shared.ID, reportID string) ([]*report.EvidenceFile, error) {
	r, p, err := s.load(ctx, actorID, reportID)
	if err != nil {
		return nil, err
	}

	if !report.CanReadReport(p, r) {
		return nil, shared.ErrForbidden
	}

	return s.evidenceRepo.ListByReport(ctx, r.ID())
}

// DeleteEvidence removes an evidence file. Allowed for responders and
// the reporter who uploaded it.
func (s *EvidenceService) DeleteEvidence(ctx context.Context, actorID shared.ID, evidenceID string) error {
	id, err := shared.IDFromString(evidenceID)
	if err != nil {
		return fmt.Errorf("%w: invalid evidence id format", shared.ErrValidation)
	}

	file, err := s.evidenceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	r, p, err := s.load(ctx, actorID, file.ReportID().String())
	if err != nil {
		return err
	}

	if !report.CanDeleteEvidence(p, r, file) {
		return shared.ErrForbidden
	}

	if err := s.evidenceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete evidence: %w", err)
	}

	s.logger.Info("evidence deleted", "evidence_id", evidenceID)
	return nil
}

func (s *EvidenceService) load(ctx context.Context, actorID shared.ID, reportID string) (*report.Report, rbac.Principal, error) {
	id, err := shared.IDFromString(reportID)
	if err != nil {
		return nil, rbac.Principal{}, fmt.Errorf("%w: invalid report id format", shared.ErrValidation)
	}

	r, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, rbac.Principal{}, err
	}

	p, err := s.resolver.ResolvePrincipal(ctx, actorID)
	if err != nil {
		return nil, rbac.Principal{}, fmt.Errorf("failed to resolve principal: %w", err)
	}

	return r, p, nil
}
