package core

// ExpectedColumns are the headers an extracted serology table must carry
// to be trusted without review.
var ExpectedColumns = []string{ColSpNr, ColSpender, ColLISS}

// Confidence weighting: column presence dominates, value validity
// refines. The two terms sum to at most 1.0.
const (
	columnWeight   = 0.6
	validityWeight = 0.4
)

// Score computes a trust score in [0, 1] for an extracted dataset.
// It is pure and deterministic: a nil or empty dataset scores 0, each
// expected column present contributes columnWeight/3, and the fraction
// of LISS cells holding a recognised reaction strength contributes up
// to validityWeight. A missing LISS column contributes nothing to the
// validity term.
func Score(d *Dataset) float64 {
	if d.Empty() {
		return 0
	}

	present := 0
	for _, col := range ExpectedColumns {
		if d.HasColumn(col) {
			present++
		}
	}
	score := columnWeight * float64(present) / float64(len(ExpectedColumns))

	if liss := d.Column(ColLISS); liss != nil {
		valid := 0
		for _, v := range liss {
			if IsValidLISS(v) {
				valid++
			}
		}
		if len(liss) > 0 {
			score += validityWeight * float64(valid) / float64(len(liss))
		}
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
