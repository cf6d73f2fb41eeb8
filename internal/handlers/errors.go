package handlers

import (
	"errors"
	"net/http"

	"github.com/opscore/orderflow/internal/httpx"
	"github.com/opscore/orderflow/internal/repository"
	"github.com/opscore/orderflow/internal/services"
)

// writeServiceError maps the lifecycle error taxonomy onto HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	var te *services.TransitionError
	var se *services.SourceStateError
	var od *services.OverDeliveryError
	var re *repository.Error
	switch {
	case errors.Is(err, repository.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.As(err, &od):
		httpx.JSONError(w, http.StatusUnprocessableEntity, "over_delivery", map[string]any{
			"sales_order_item_id": od.SalesOrderItemID,
			"requested":           od.Requested,
			"remaining":           od.Remaining,
		})
	case errors.As(err, &te):
		httpx.JSONError(w, http.StatusConflict, "illegal_transition", map[string]string{
			"document": te.Document, "from": te.From, "to": te.To,
		})
	case errors.As(err, &se):
		httpx.JSONError(w, http.StatusConflict, "invalid_source_state", map[string]string{
			"document": se.Document, "status": se.Status,
		})
	case errors.Is(err, services.ErrSchemeNotFound):
		httpx.JSONError(w, http.StatusInternalServerError, "numbering_not_provisioned", nil)
	case errors.As(err, &re):
		httpx.JSONError(w, http.StatusInternalServerError, "repository_error", nil)
	default:
		httpx.JSONError(w, http.StatusBadRequest, "request_failed", err.Error())
	}
}
