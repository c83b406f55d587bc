// Package admin provides administrative operations for database management.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/serolab/serolab/internal/store"
)

// ResetTimeout is the maximum duration for database reset operations.
const ResetTimeout = 30 * time.Second

// Resetter wipes all stored serology data. This is destructive and
// intended for test instances and fresh deployments only.
type Resetter struct {
	DB store.DBTX
}

// ResetAll truncates every data table. Analyses go first so the donor
// foreign key never blocks the wipe.
func (r *Resetter) ResetAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	for _, table := range []string{"analyses", "donors"} {
		if _, err := r.DB.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}
