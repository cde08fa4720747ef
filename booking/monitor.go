package booking

import (
	"context"
	"fmt"
	"log/slog"
	"stall-booking/common"
	"stall-booking/common/constant"
	"stall-booking/common/vars"
	"stall-booking/model"
	"stall-booking/outbound/notifier"
	"stall-booking/outbound/postgres"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/spf13/viper"
)

type MonitorStore interface {
	CountStuckPendingOrders(ctx context.Context, before pgtype.Timestamp) (int64, error)
	WebhookDeliveryStats(ctx context.Context, since pgtype.Timestamp) (postgres.WebhookDeliveryStatsRow, error)
}

// HealthMonitor sweeps order state on its own schedule, independent of the
// request path. It only reads: the report goes to the injected notifier and
// into the vars snapshot for the diagnostic endpoint.
type HealthMonitor struct {
	Cfg      *viper.Viper
	Querier  MonitorStore
	Notifier notifier.Notifier

	TimeNow func() time.Time
}

func (m *HealthMonitor) Start(ctx context.Context) {
	sweepTicker := time.NewTicker(m.Cfg.GetDuration("monitor.interval"))
	defer sweepTicker.Stop()

	// Run initial sweep
	m.Sweep(ctx)

	slog.Info("health monitor started")

	// Block in the main function, not in a goroutine
	for {
		select {
		case <-sweepTicker.C:
			m.Sweep(ctx)
		case <-ctx.Done():
			slog.Info("health monitor stopped")
			return
		}
	}
}

func (m *HealthMonitor) Sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.Cfg.GetDuration("monitor.timeout"))
	defer cancel()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	now := m.TimeNow()

	stuck, err := m.Querier.CountStuckPendingOrders(ctx, timestamp(now.Add(-m.Cfg.GetDuration("monitor.stuck_after"))))
	if err != nil {
		slog.ErrorContext(ctx, "failed to count stuck orders", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	stats, err := m.Querier.WebhookDeliveryStats(ctx, timestamp(now.Add(-m.Cfg.GetDuration("monitor.window"))))
	if err != nil {
		slog.ErrorContext(ctx, "failed to read webhook stats", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	successRate := 1.0
	if stats.Total > 0 {
		successRate = float64(stats.Received) / float64(stats.Total)
	}

	report := model.HealthReport{
		Status:             m.classify(stuck, successRate),
		StuckOrders:        stuck,
		WebhookSuccessRate: successRate,
		WindowOrders:       stats.Total,
		CheckedAt:          now.Format(time.RFC3339),
	}

	vars.SetHealthReport(report)

	slog.InfoContext(ctx, "health sweep finished", traceIdAttr,
		slog.String("status", report.Status),
		slog.Int64("stuck_orders", stuck),
		slog.Float64("webhook_success_rate", successRate))

	if report.Status == constant.HealthStatusHealthy {
		return
	}

	body := fmt.Sprintf(constant.EmailHealthAlertTemplate,
		report.Status, report.StuckOrders, report.WebhookSuccessRate*100, report.WindowOrders, report.CheckedAt)

	if err := m.Notifier.Alert(ctx, fmt.Sprintf("Booking platform %s", report.Status), body); err != nil {
		slog.ErrorContext(ctx, "failed to send health alert", traceIdAttr, slog.Any(constant.LogFieldErr, err))
	}
}

func (m *HealthMonitor) classify(stuck int64, successRate float64) string {
	switch {
	case stuck > m.Cfg.GetInt64("monitor.stuck_critical"):
		return constant.HealthStatusCritical
	case successRate < m.Cfg.GetFloat64("monitor.webhook_rate_warning"):
		return constant.HealthStatusWarning
	default:
		return constant.HealthStatusHealthy
	}
}
