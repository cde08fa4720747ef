package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"stall-booking/common/errs"
	"stall-booking/model"

	"github.com/go-playground/validator/v10"
)

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeErrorResponse(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")

	var message string
	var data any

	var httpErr *errs.HttpError
	var validationErr validator.ValidationErrors
	var conflictErr *errs.StallConflictError
	var gatewayErr *errs.GatewayError

	switch {
	case errors.As(err, &httpErr):
		message = httpErr.Message
		data = httpErr.Data
		w.WriteHeader(httpErr.Code)
	case errors.As(err, &validationErr):
		message = "Validation failed"
		w.WriteHeader(http.StatusBadRequest)

		validationErrors := make(map[string]string)
		for _, fieldErr := range validationErr {
			fieldName := fieldErr.Field()
			validationErrors[fieldName] = fieldErr.Tag()
		}

		data = validationErrors
	case errors.As(err, &conflictErr):
		message = "Stalls unavailable"
		data = map[string]any{"unavailable_stalls": conflictErr.Unavailable}
		w.WriteHeader(http.StatusConflict)
	case errors.As(err, &gatewayErr):
		message = "Payment could not be initiated, please try again later"
		w.WriteHeader(http.StatusBadGateway)
	case errors.Is(err, errs.ErrStorageUnavailable):
		message = "Service temporarily unavailable"
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		message = "Internal Server Error"
		w.WriteHeader(500)
	}

	errorResponse := model.ErrorResponse{Error: message, Data: data}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
