package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/serolab/serolab/internal/logging"
)

// AnalysisSummary identifies one stored analysis for the selection list.
type AnalysisSummary struct {
	ID            uuid.UUID `json:"id"`
	Spendernummer string    `json:"spendernummer"`
	LotNumber     string    `json:"lot_number"`
	Timestamp     time.Time `json:"timestamp"`
}

// AnalysisSource is the read side of the persistence collaborator. The
// import workflow only ever lists prior analyses and fetches one stored
// table; it never writes through this interface.
type AnalysisSource interface {
	ListAnalyses(ctx context.Context) ([]AnalysisSummary, error)
	AnalysisTable(ctx context.Context, id uuid.UUID) (*Dataset, error)
}

// Service orchestrates the import workflow: extraction, confidence
// scoring, and comparison against a stored analysis. Collaborators are
// injected; the service holds no ambient state.
type Service struct {
	extractor *Extractor
	analyses  AnalysisSource
}

// NewService wires up an import service. analyses may be nil when no
// database is configured; comparisons then always report nothing to
// compare.
func NewService(extractor *Extractor, analyses AnalysisSource) *Service {
	return &Service{
		extractor: extractor,
		analyses:  analyses,
	}
}

// HandleUpload runs one upload through extraction and scoring.
//
// On success it returns the normalized dataset, its confidence, and a
// nil message. Every failure is converted to a fixed user-facing
// message with a zero score; no error escapes. Failures outside the
// extraction taxonomy are logged with their technical detail, then
// reported to the user as if no table was found.
func (s *Service) HandleUpload(ctx context.Context, data []byte, filename string) (*Dataset, float64, *UserMessage) {
	log := logging.FromContext(ctx)

	dataset, err := s.extractor.Extract(data, filename)
	if err != nil {
		msg := MapError(err)
		if isExtractionFailure(err) {
			log.Warn("upload rejected", slog.String("filename", filename),
				slog.String("reason", FormatUserError(err)))
		} else {
			log.Error("unexpected extraction failure",
				slog.String("filename", filename),
				slog.String("error", err.Error()),
			)
			msg = msgNoTableFound
		}
		return nil, 0, &msg
	}

	dataset = Prepare(dataset)
	confidence := Score(dataset)

	log.Info("upload extracted",
		slog.String("filename", filename),
		slog.Int("rows", len(dataset.Rows)),
		slog.Int("columns", len(dataset.Columns)),
		slog.Float64("confidence", confidence),
	)

	return dataset, confidence, nil
}

// Compare builds the reconciliation view for an imported dataset against
// the stored analysis identified by id.
func (s *Service) Compare(ctx context.Context, imported *Dataset, id uuid.UUID, confidence float64) (Comparison, error) {
	if s.analyses == nil {
		return Comparison{Empty: true, Notice: EmptyComparisonNotice}, nil
	}
	current, err := s.analyses.AnalysisTable(ctx, id)
	if err != nil {
		return Comparison{}, NewUserError(fmt.Errorf("load analysis %s: %w", id, err))
	}
	return BuildComparison(imported, current, confidence), nil
}

// PriorAnalyses lists the stored analyses, most recent first.
func (s *Service) PriorAnalyses(ctx context.Context) ([]AnalysisSummary, error) {
	if s.analyses == nil {
		return nil, nil
	}
	return s.analyses.ListAnalyses(ctx)
}

// isExtractionFailure reports whether err belongs to the extraction
// failure taxonomy, as opposed to an unexpected internal error.
func isExtractionFailure(err error) bool {
	return errors.Is(err, ErrNoTableFound) ||
		errors.Is(err, ErrNotImplemented) ||
		errors.Is(err, ErrUnsupportedFormat)
}
