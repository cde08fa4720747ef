package http

import (
	"fmt"
	"net/http"
	"stall-booking/common/constant"
	"stall-booking/common/errs"
	"stall-booking/common/vars"
	"stall-booking/model"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type StallHttp struct {
	Cache *redis.Client
}

func RegisterStallHttp(mux *http.ServeMux, cache *redis.Client) *StallHttp {
	in := &StallHttp{Cache: cache}

	mux.HandleFunc("GET /api/exhibitions/{id}/stalls", in.list)

	return in
}

func (in *StallHttp) list(w http.ResponseWriter, r *http.Request) {
	exhibitionId, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid exhibition id"})
		return
	}

	stalls := vars.GetStalls(exhibitionId)
	if stalls == nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusNotFound, Message: "Exhibition not found"})
		return
	}

	availableCount, _ := in.Cache.Get(r.Context(), fmt.Sprintf(constant.ExhibitionAvailableStallsKey, exhibitionId)).Int64()

	writeJSONResponse(w, http.StatusOK, model.ListStallsResponse{
		ExhibitionId:   exhibitionId,
		AvailableCount: availableCount,
		Stalls:         stalls,
	})
}
