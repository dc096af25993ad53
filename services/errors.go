package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed        = errors.New("validation failed")
	ErrReasonRequired          = errors.New("reason is required")
	ErrInvalidDisputeAction    = errors.New("invalid dispute resolution action")
	ErrFinalScoreRequired      = errors.New("final score is required for a custom score resolution")
	ErrInvalidSetScores        = errors.New("set scores do not form a valid match score")
	ErrInvalidOutcome          = errors.New("invalid match outcome")
	ErrInvalidPenaltyType      = errors.New("invalid penalty type")
	ErrInvalidPenaltySeverity  = errors.New("invalid penalty severity")
	ErrInvalidPriority         = errors.New("invalid dispute priority")
	ErrNothingToUpdate         = errors.New("no result fields supplied for update")
	ErrCancellationNotLate     = errors.New("cancellation is outside the late-cancellation window")

	// Ошибки конфликтов (неверное текущее состояние)
	ErrDisputeAlreadyResolved    = errors.New("dispute has already been resolved or closed")
	ErrDisputeAlreadyOpen        = errors.New("match already has an active dispute")
	ErrCancellationReviewed      = errors.New("late cancellation has already been reviewed")
	ErrMatchModifiedConcurrently = errors.New("match was modified concurrently, retry the operation")

	// Ошибки аутентификации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAdminRequired          = errors.New("operation requires an admin identity")

	// Ошибки, специфичные для сущностей
	ErrMatchNotFound        = errors.New("match not found")
	ErrDisputeNotFound      = errors.New("dispute not found")
	ErrCancellationNotFound = errors.New("late cancellation not found")
	ErrUserNotFound         = errors.New("user not found")
)
