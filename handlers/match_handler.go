package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/Temirlan00/league-system/middleware"
	"github.com/Temirlan00/league-system/models"
	"github.com/Temirlan00/league-system/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// ListHandler обрабатывает GET /api/admin/matches
func (h *MatchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter models.MatchFilter
	query := r.URL.Query()

	for _, p := range []struct {
		name string
		dst  **int
	}{
		{"leagueId", &filter.LeagueID},
		{"seasonId", &filter.SeasonID},
		{"divisionId", &filter.DivisionID},
	} {
		if id, ok, err := intQueryParam(query.Get(p.name), p.name); err != nil {
			badRequestResponse(w, err)
			return
		} else if ok {
			value := id
			*p.dst = &value
		}
	}

	// status принимает список через запятую: status=completed,disputed
	if statusStr := query.Get("status"); statusStr != "" {
		for _, raw := range strings.Split(statusStr, ",") {
			status := models.MatchStatus(strings.TrimSpace(raw))
			if !status.Valid() {
				badRequestResponse(w, errInvalidQueryParam("status"))
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"startDate", &filter.StartDate},
		{"endDate", &filter.EndDate},
	} {
		if raw := query.Get(p.name); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				badRequestResponse(w, errInvalidQueryParam(p.name))
				return
			}
			*p.dst = &parsed
		}
	}

	filter.Search = strings.TrimSpace(query.Get("search"))

	for _, p := range []struct {
		name string
		dst  **bool
	}{
		{"isDisputed", &filter.IsDisputed},
		{"hasLateCancellation", &filter.HasLateCancellation},
	} {
		if raw := query.Get(p.name); raw != "" {
			switch raw {
			case "true":
				value := true
				*p.dst = &value
			case "false":
				value := false
				*p.dst = &value
			default:
				badRequestResponse(w, errInvalidQueryParam(p.name))
				return
			}
		}
	}

	var err error
	filter.Page, filter.Limit, err = pagingParams(query)
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	response, err := h.matchService.ListMatches(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusOK, response)
}

// GetByIDHandler обрабатывает GET /api/admin/matches/{matchID}
func (h *MatchHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusOK, match)
}

// EditResultHandler обрабатывает PUT /api/admin/matches/{matchID}/result
func (h *MatchHandler) EditResultHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	admin, err := middleware.GetAdminFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, "authentication required to edit match result")
		return
	}

	var input services.EditMatchResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.EditMatchResult(r.Context(), admin, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusOK, match)
}

// VoidHandler обрабатывает POST /api/admin/matches/{matchID}/void
func (h *MatchHandler) VoidHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	admin, err := middleware.GetAdminFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, "authentication required to void match")
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.VoidMatch(r.Context(), admin, id, input.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusOK, match)
}

// AuditHandler обрабатывает GET /api/admin/matches/{matchID}/audit
func (h *MatchHandler) AuditHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	entries, err := h.matchService.GetMatchAudit(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusOK, entries)
}
