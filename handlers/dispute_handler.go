package handlers

import (
	"net/http"

	"github.com/Temirlan00/league-system/middleware"
	"github.com/Temirlan00/league-system/models"
	"github.com/Temirlan00/league-system/services"
)

type DisputeHandler struct {
	disputeService services.DisputeService
}

func NewDisputeHandler(ds services.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeService: ds}
}

// ListHandler обрабатывает GET /api/admin/disputes
func (h *DisputeHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter models.DisputeFilter
	query := r.URL.Query()

	if statusStr := query.Get("status"); statusStr != "" {
		status := models.DisputeStatus(statusStr)
		if !status.Valid() {
			badRequestResponse(w, errInvalidQueryParam("status"))
			return
		}
		filter.Status = &status
	}
	if priorityStr := query.Get("priority"); priorityStr != "" {
		priority := models.DisputePriority(priorityStr)
		if !priority.Valid() {
			badRequestResponse(w, errInvalidQueryParam("priority"))
			return
		}
		filter.Priority = &priority
	}
	if matchID, ok, err := intQueryParam(query.Get("matchId"), "matchId"); err != nil {
		badRequestResponse(w, err)
		return
	} else if ok {
		filter.MatchID = &matchID
	}
	var err error
	filter.Page, filter.Limit, err = pagingParams(query)
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	response, err := h.disputeService.ListDisputes(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusOK, response)
}

// GetByIDHandler обрабатывает GET /api/admin/disputes/{disputeID}
func (h *DisputeHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "disputeID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	dispute, err := h.disputeService.GetDispute(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusOK, dispute)
}

// OpenHandler обрабатывает POST /api/admin/matches/{matchID}/disputes
func (h *DisputeHandler) OpenHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input services.OpenDisputeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	dispute, err := h.disputeService.OpenDispute(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusCreated, dispute)
}

// ResolveHandler обрабатывает POST /api/admin/disputes/{disputeID}/resolve
func (h *DisputeHandler) ResolveHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "disputeID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	admin, err := middleware.GetAdminFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, "authentication required to resolve dispute")
		return
	}

	var input services.ResolveDisputeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	dispute, err := h.disputeService.ResolveDispute(r.Context(), admin, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusOK, dispute)
}

// AddNoteHandler обрабатывает POST /api/admin/disputes/{disputeID}/notes
func (h *DisputeHandler) AddNoteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "disputeID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	admin, err := middleware.GetAdminFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, "authentication required to add dispute note")
		return
	}

	var input services.AddNoteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	note, err := h.disputeService.AddNote(r.Context(), admin, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusCreated, note)
}
