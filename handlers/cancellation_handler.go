package handlers

import (
	"net/http"

	"github.com/Temirlan00/league-system/middleware"
	"github.com/Temirlan00/league-system/services"
)

type CancellationHandler struct {
	cancellationService services.CancellationService
}

func NewCancellationHandler(cs services.CancellationService) *CancellationHandler {
	return &CancellationHandler{cancellationService: cs}
}

// ListPendingHandler обрабатывает GET /api/admin/cancellations/pending
func (h *CancellationHandler) ListPendingHandler(w http.ResponseWriter, r *http.Request) {
	cancellations, err := h.cancellationService.ListPendingCancellations(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusOK, cancellations)
}

// FlagHandler обрабатывает POST /api/admin/matches/{matchID}/cancellations
func (h *CancellationHandler) FlagHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input services.FlagCancellationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	cancellation, err := h.cancellationService.FlagLateCancellation(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusCreated, cancellation)
}

// ReviewHandler обрабатывает POST /api/admin/cancellations/{cancellationID}/review
func (h *CancellationHandler) ReviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "cancellationID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	admin, err := middleware.GetAdminFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, "authentication required to review cancellation")
		return
	}

	var input services.ReviewCancellationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	cancellation, err := h.cancellationService.ReviewCancellation(r.Context(), admin, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusOK, cancellation)
}
