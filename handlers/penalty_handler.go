package handlers

import (
	"errors"
	"net/http"

	"github.com/Temirlan00/league-system/middleware"
	"github.com/Temirlan00/league-system/services"
)

type PenaltyHandler struct {
	penaltyService services.PenaltyService
}

func NewPenaltyHandler(ps services.PenaltyService) *PenaltyHandler {
	return &PenaltyHandler{penaltyService: ps}
}

// ApplyHandler обрабатывает POST /api/admin/penalties
func (h *PenaltyHandler) ApplyHandler(w http.ResponseWriter, r *http.Request) {
	admin, err := middleware.GetAdminFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, "authentication required to apply penalty")
		return
	}

	var input services.ApplyPenaltyInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	penalty, err := h.penaltyService.ApplyPenalty(r.Context(), admin, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusCreated, penalty)
}

// PlayerHistoryHandler обрабатывает GET /api/admin/players/{userID}/penalties
func (h *PenaltyHandler) PlayerHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	penalties, err := h.penaltyService.GetPlayerPenalties(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusOK, penalties)
}

// UploadEvidenceHandler обрабатывает POST /api/admin/penalties/evidence
func (h *PenaltyHandler) UploadEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequestResponse(w, errors.New("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("evidence")
	if err != nil {
		badRequestResponse(w, errors.New("evidence file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, errors.New("content type required for evidence file"))
		return
	}

	url, err := h.penaltyService.UploadEvidence(r.Context(), contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusCreated, map[string]string{"evidence_url": url})
}
