package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Temirlan00/league-system/services"
)

// Единый конверт ответа: {success, data?, message?, error?}.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Машиночитаемые коды ошибок.
const (
	codeValidation   = "VALIDATION_ERROR"
	codeUnauthorized = "UNAUTHORIZED"
	codeNotFound     = "NOT_FOUND"
	codeConflict     = "CONFLICT"
	codeInternal     = "INTERNAL_ERROR"
)

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // Ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	js, err := json.Marshal(env)
	if err != nil {
		slog.Error("failed to marshal response envelope", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(js); err != nil {
		slog.Error("failed to write response", slog.Any("error", err))
	}
}

func dataResponse(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func errorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Success: false, Error: &apiError{Code: code, Message: message}})
}

func badRequestResponse(w http.ResponseWriter, err error) {
	errorResponse(w, http.StatusBadRequest, codeValidation, err.Error())
}

func notFoundResponse(w http.ResponseWriter, err error) {
	errorResponse(w, http.StatusNotFound, codeNotFound, err.Error())
}

func conflictResponse(w http.ResponseWriter, err error) {
	errorResponse(w, http.StatusConflict, codeConflict, err.Error())
}

func unauthorizedResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusUnauthorized, codeUnauthorized, message)
}

func serverErrorResponse(w http.ResponseWriter, err error) {
	slog.Error("internal server error", slog.Any("error", err))
	errorResponse(w, http.StatusInternalServerError, codeInternal, "the server encountered a problem and could not process your request")
}

func getIDFromURL(r *http.Request, param string) (int, error) {
	idStr := chi.URLParam(r, param)
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s URL parameter", param)
	}
	return id, nil
}

// mapServiceErrorToHTTP переводит ошибки сервисного слоя в коды таксономии.
// Сырые ошибки хранилища наружу не утекают.
func mapServiceErrorToHTTP(w http.ResponseWriter, err error) {
	switch {
	// Не найдено
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrDisputeNotFound),
		errors.Is(err, services.ErrCancellationNotFound),
		errors.Is(err, services.ErrUserNotFound):
		notFoundResponse(w, err)

	// Конфликты состояния
	case errors.Is(err, services.ErrDisputeAlreadyResolved),
		errors.Is(err, services.ErrDisputeAlreadyOpen),
		errors.Is(err, services.ErrCancellationReviewed),
		errors.Is(err, services.ErrMatchModifiedConcurrently):
		conflictResponse(w, err)

	// Валидация и бизнес-правила
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrReasonRequired),
		errors.Is(err, services.ErrInvalidDisputeAction),
		errors.Is(err, services.ErrFinalScoreRequired),
		errors.Is(err, services.ErrInvalidSetScores),
		errors.Is(err, services.ErrInvalidOutcome),
		errors.Is(err, services.ErrInvalidPenaltyType),
		errors.Is(err, services.ErrInvalidPenaltySeverity),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrNothingToUpdate),
		errors.Is(err, services.ErrCancellationNotLate):
		badRequestResponse(w, err)

	// Аутентификация
	case errors.Is(err, services.ErrAuthInvalidCredentials),
		errors.Is(err, services.ErrAdminRequired):
		unauthorizedResponse(w, err.Error())

	default:
		serverErrorResponse(w, err)
	}
}

func errInvalidQueryParam(name string) error {
	return fmt.Errorf("invalid %s query parameter", name)
}

// intQueryParam парсит необязательный положительный int. ok=false, если параметр пуст.
func intQueryParam(raw, name string) (int, bool, error) {
	if raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, false, errInvalidQueryParam(name)
	}
	return value, true, nil
}

func pagingParams(query url.Values) (page, limit int, err error) {
	page = 1
	limit = 20
	if raw := query.Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil || page <= 0 {
			return 0, 0, errInvalidQueryParam("page")
		}
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit <= 0 || limit > 100 {
			return 0, 0, errInvalidQueryParam("limit")
		}
	}
	return page, limit, nil
}
