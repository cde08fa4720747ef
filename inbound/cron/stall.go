package cron

import (
	"context"
	"fmt"
	"log/slog"
	"stall-booking/common"
	"stall-booking/common/constant"
	"stall-booking/common/vars"
	"stall-booking/model"
	"stall-booking/outbound/postgres"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

type StallStore interface {
	ListStalls(ctx context.Context) ([]postgres.StallRow, error)
}

// StallCron refreshes the public stall-listing snapshot and the per-exhibition
// availability counters in the cache. The booking path never reads these; they
// only feed the listing endpoint.
type StallCron struct {
	Cfg     *viper.Viper
	Cache   *redis.Client
	Querier StallStore

	TimeNow func() time.Time
}

func (in StallCron) Start(ctx context.Context) {
	refreshTicker := time.NewTicker(in.Cfg.GetDuration("cron.stall.refresh.interval"))
	defer refreshTicker.Stop()

	// Run initial refresh
	in.Refresh(ctx)

	slog.Info("stall cron started")

	// Block in the main function, not in a goroutine
	for {
		select {
		case <-refreshTicker.C:
			in.Refresh(ctx)
		case <-ctx.Done():
			slog.Info("stall cron stopped")
			return
		}
	}
}

func (in StallCron) Refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, in.Cfg.GetDuration("cron.stall.refresh.timeout"))
	defer cancel()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	slog.DebugContext(ctx, "refreshing stall snapshot", traceIdAttr)

	rows, err := in.Querier.ListStalls(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list stalls", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	now := in.TimeNow()
	snapshot := make(map[int64][]model.StallResponse)
	availableCounts := make(map[int64]int64)

	for _, row := range rows {
		status := row.Status
		// An expired hold counts as available, same rule the reserve
		// statement applies.
		if status == constant.StallStatusReserved && row.ReserveExpiresAt.Valid && row.ReserveExpiresAt.Time.Before(now) {
			status = constant.StallStatusAvailable
		}

		if status == constant.StallStatusAvailable {
			availableCounts[row.ExhibitionID]++
		}

		snapshot[row.ExhibitionID] = append(snapshot[row.ExhibitionID], model.StallResponse{
			Id:     row.ID,
			Number: row.Number,
			Status: status,
			Price:  row.Price,
		})
	}

	pipeline := in.Cache.Pipeline()
	for exhibitionId := range snapshot {
		pipeline.Set(ctx, fmt.Sprintf(constant.ExhibitionAvailableStallsKey, exhibitionId), availableCounts[exhibitionId], 0)
	}

	if _, err := pipeline.Exec(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to cache availability counts", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	vars.SetStalls(snapshot)

	slog.DebugContext(ctx, "stall snapshot refreshed successfully", traceIdAttr)
}
