package sheets

import (
	"context"

	"grana/internal/core"
)

// SummaryWriter is the outbound port for the monthly summary export.
type SummaryWriter interface {
	AppendMonthlySummary(ctx context.Context, month core.MonthKey, stats core.DashboardStats) (rowRef string, err error)
}
