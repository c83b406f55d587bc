package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/serolab/serolab/internal/core"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Analysis is one stored antigen analysis: the confirmed panel plus the
// exclusion outcome and the user's antigen selection at save time.
type Analysis struct {
	ID             uuid.UUID                     `json:"id"`
	Spendernummer  string                        `json:"spendernummer"`
	LotNumber      string                        `json:"lot_number"`
	CreatedAt      time.Time                     `json:"created_at"`
	Panel          *core.Dataset                 `json:"panel"`
	Statuses       map[string]core.AntigenStatus `json:"statuses"`
	UserSelections []string                      `json:"user_selections"`
}

// EnsureDonor upserts a donor record. Name and notes are only written
// when the donor is new; existing donors keep their data.
func (s *Store) EnsureDonor(ctx context.Context, spendernummer, name, notes string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO donors (spendernummer, name, notes)
		VALUES ($1, $2, $3)
		ON CONFLICT (spendernummer) DO NOTHING`,
		spendernummer, name, notes,
	)
	if err != nil {
		return fmt.Errorf("ensure donor %q: %w", spendernummer, err)
	}
	return nil
}

// SaveAnalysis stores an analysis, creating its donor on the fly. A zero
// ID and CreatedAt are filled in.
func (s *Store) SaveAnalysis(ctx context.Context, a *Analysis) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	if err := s.EnsureDonor(ctx, a.Spendernummer, "", ""); err != nil {
		return err
	}

	panel, err := json.Marshal(a.Panel)
	if err != nil {
		return fmt.Errorf("encode panel: %w", err)
	}
	statuses, err := json.Marshal(a.Statuses)
	if err != nil {
		return fmt.Errorf("encode statuses: %w", err)
	}
	selections, err := json.Marshal(a.UserSelections)
	if err != nil {
		return fmt.Errorf("encode selections: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO analyses (id, spendernummer, created_at, lot_number, panel, statuses, user_selections)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Spendernummer, a.CreatedAt, a.LotNumber, panel, statuses, selections,
	)
	if err != nil {
		return fmt.Errorf("insert analysis %s: %w", a.ID, err)
	}
	return nil
}

// ListAnalyses returns summaries of all stored analyses, most recent
// first.
func (s *Store) ListAnalyses(ctx context.Context) ([]core.AnalysisSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, spendernummer, lot_number, created_at
		FROM analyses
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []core.AnalysisSummary
	for rows.Next() {
		var sum core.AnalysisSummary
		if err := rows.Scan(&sum.ID, &sum.Spendernummer, &sum.LotNumber, &sum.Timestamp); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return out, nil
}

// GetAnalysis loads one stored analysis in full.
func (s *Store) GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	var (
		a          Analysis
		panel      []byte
		statuses   []byte
		selections []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, spendernummer, lot_number, created_at, panel, statuses, user_selections
		FROM analyses
		WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Spendernummer, &a.LotNumber, &a.CreatedAt, &panel, &statuses, &selections)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis %s: %w", id, err)
	}

	if err := json.Unmarshal(panel, &a.Panel); err != nil {
		return nil, fmt.Errorf("decode panel: %w", err)
	}
	if err := json.Unmarshal(statuses, &a.Statuses); err != nil {
		return nil, fmt.Errorf("decode statuses: %w", err)
	}
	if err := json.Unmarshal(selections, &a.UserSelections); err != nil {
		return nil, fmt.Errorf("decode selections: %w", err)
	}
	return &a, nil
}

// AnalysisTable loads only the stored panel of an analysis. Together
// with ListAnalyses this satisfies core.AnalysisSource.
func (s *Store) AnalysisTable(ctx context.Context, id uuid.UUID) (*core.Dataset, error) {
	var panel []byte
	err := s.db.QueryRow(ctx,
		`SELECT panel FROM analyses WHERE id = $1`, id,
	).Scan(&panel)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis table %s: %w", id, err)
	}

	var d core.Dataset
	if err := json.Unmarshal(panel, &d); err != nil {
		return nil, fmt.Errorf("decode panel: %w", err)
	}
	return &d, nil
}
