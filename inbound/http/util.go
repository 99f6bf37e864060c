package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"qr-checkin/common/errs"
	"qr-checkin/model"

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
	var notFound *errs.NotFoundError
	var ambiguous *errs.AmbiguousMatchError
	var network *errs.NetworkError
	var updateFailed *errs.UpdateFailedError
	var validationErr validator.ValidationErrors

	switch {
	case errors.As(err, &httpErr):
		message = httpErr.Message
		data = httpErr.Data
		w.WriteHeader(httpErr.Code)
	case errors.As(err, &notFound):
		message = "Ticket not found"
		data = map[string]string{"identifier": notFound.Identifier}
		w.WriteHeader(http.StatusNotFound)
	case errors.As(err, &ambiguous):
		message = "Multiple tickets match, enter a longer number"
		data = map[string]any{"suffix": ambiguous.Suffix, "count": ambiguous.Count}
		w.WriteHeader(http.StatusConflict)
	case errors.As(err, &network):
		message = "Upstream unavailable, try again"
		w.WriteHeader(http.StatusBadGateway)
	case errors.As(err, &updateFailed):
		message = "Entry update failed, try again"
		data = map[string]string{"ticket_number": updateFailed.TicketNumber}
		w.WriteHeader(http.StatusBadGateway)
	case errors.As(err, &validationErr):
		message = "Validation failed"
		w.WriteHeader(http.StatusBadRequest)

		validationErrors := make(map[string]string)
		for _, fieldErr := range validationErr {
			fieldName := fieldErr.Field()
			validationErrors[fieldName] = fieldErr.Tag()
		}

		data = validationErrors
	default:
		message = "Internal Server Error"
		w.WriteHeader(500)
	}

	errorResponse := model.ErrorResponse{Error: message, Data: data}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
