package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"stall-booking/common"
	"stall-booking/common/constant"
	"stall-booking/common/errs"
	"stall-booking/common/vars"
	"stall-booking/model"
	"strconv"

	"github.com/jackc/pgx/v5"
)

type CounterStore interface {
	FindCounterLastValue(ctx context.Context, exhibitionID int64) (int64, error)
}

// CounterHttp serves the operational diagnostics: the per-exhibition receipt
// counter and the latest health sweep report.
type CounterHttp struct {
	Querier CounterStore
}

func RegisterCounterHttp(mux *http.ServeMux, querier CounterStore) *CounterHttp {
	in := &CounterHttp{Querier: querier}

	mux.HandleFunc("GET /api/counters/{exhibitionId}/status", in.status)
	mux.HandleFunc("GET /api/health/report", in.healthReport)

	return in
}

func (in *CounterHttp) status(w http.ResponseWriter, r *http.Request) {
	exhibitionId, err := strconv.ParseInt(r.PathValue("exhibitionId"), 10, 64)
	if err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid exhibition id"})
		return
	}

	lastIssued, err := in.Querier.FindCounterLastValue(r.Context(), exhibitionId)
	if errors.Is(err, pgx.ErrNoRows) {
		// Counters are created lazily; no orders yet means zero issued.
		lastIssued = 0
	} else if err != nil {
		slog.ErrorContext(r.Context(), "failed to read counter",
			common.ExtractTraceIDFromCtx(r.Context()), slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, model.CounterStatusResponse{
		ExhibitionId: exhibitionId,
		LastIssued:   lastIssued,
	})
}

func (in *CounterHttp) healthReport(w http.ResponseWriter, r *http.Request) {
	report := vars.GetHealthReport()
	if report == nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusNotFound, Message: "No health sweep completed yet"})
		return
	}

	writeJSONResponse(w, http.StatusOK, report)
}
