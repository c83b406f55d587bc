package core

// Confidence thresholds driving the comparison mode. Fixed design
// constants, deliberately not configurable.
const (
	highConfidence   = 0.7
	mediumConfidence = 0.4
)

// comparisonPageSize caps the visible rows per table. The full dataset
// is retained; only the rendered page is limited.
const comparisonPageSize = 10

// ConfidenceTier classifies a score for display.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// Accent is the visual color class paired with a tier.
type Accent string

const (
	AccentSuccess Accent = "success"
	AccentWarning Accent = "warning"
	AccentDanger  Accent = "danger"
)

// EmptyComparisonNotice is shown when there is nothing to compare.
const EmptyComparisonNotice = "Keine Daten zum Vergleichen vorhanden"

// TableDescriptor tells the front-end how to render one side of the
// comparison: the data itself plus editability and paging hints.
type TableDescriptor struct {
	Title    string     `json:"title"`
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
	Editable bool       `json:"editable"`
	PageSize int        `json:"page_size"`
}

// Comparison is the presentation payload for the reconciliation screen:
// the imported table next to the stored one, with the mode and color
// tier derived from the confidence score. When Empty is set the other
// fields are zero and Notice carries the placeholder text.
type Comparison struct {
	Empty      bool            `json:"empty"`
	Notice     string          `json:"notice,omitempty"`
	Confidence float64         `json:"confidence"`
	Tier       ConfidenceTier  `json:"tier,omitempty"`
	Accent     Accent          `json:"accent,omitempty"`
	Editable   bool            `json:"editable"`
	Imported   TableDescriptor `json:"imported"`
	Current    TableDescriptor `json:"current"`
}

// BuildComparison pairs a freshly imported dataset with the stored
// current one. Confidence at or above 0.7 yields a read-only view with
// a success accent; between 0.4 and 0.7 an editable view with a warning
// accent; below 0.4 an editable view with a danger accent. In editable
// mode only the imported side may be edited; the stored side stays
// fixed. Neither input is mutated.
func BuildComparison(imported, current *Dataset, confidence float64) Comparison {
	if imported.Empty() || current.Empty() {
		return Comparison{Empty: true, Notice: EmptyComparisonNotice}
	}

	var (
		tier     ConfidenceTier
		accent   Accent
		editable bool
	)
	switch {
	case confidence >= highConfidence:
		tier, accent, editable = TierHigh, AccentSuccess, false
	case confidence >= mediumConfidence:
		tier, accent, editable = TierMedium, AccentWarning, true
	default:
		tier, accent, editable = TierLow, AccentDanger, true
	}

	return Comparison{
		Confidence: confidence,
		Tier:       tier,
		Accent:     accent,
		Editable:   editable,
		Imported:   describeTable("Importierte Daten", imported, editable),
		Current:    describeTable("Aktuelle Tabelle", current, false),
	}
}

// describeTable snapshots a dataset into a rendering descriptor. Rows
// are deep-copied so downstream edits never reach the source dataset.
func describeTable(title string, d *Dataset, editable bool) TableDescriptor {
	c := d.Clone()
	return TableDescriptor{
		Title:    title,
		Columns:  c.Columns,
		Rows:     c.Rows,
		Editable: editable,
		PageSize: comparisonPageSize,
	}
}
