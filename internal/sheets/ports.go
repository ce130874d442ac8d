package sheets

import (
	"context"

	"nutrihelper/internal/core"
)

// Ports for outbound adapters.
type (
	// TotalsExporter publishes a user's daily totals for one month. Exporting
	// the same month again replaces the user's previous rows.
	TotalsExporter interface {
		ExportMonth(ctx context.Context, user string, ov core.MonthOverview) error
	}
)
