package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/backoffice_ledger/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnbalancedTransaction), errors.Is(err, apperrors.ErrUnknownAccount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrAccountInUse), errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrConcurrentBalanceConflict):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err as a JSON error body. Client errors carry the service
// message; server errors only carry failMsg.
func respondError(c *gin.Context, logger *slog.Logger, err error, failMsg string) {
	status := statusForError(err)
	switch {
	case status == http.StatusInternalServerError:
		logger.Error(failMsg, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": failMsg})
	case status == http.StatusServiceUnavailable:
		logger.Warn(failMsg, slog.String("error", err.Error()))
		c.Header("Retry-After", "1")
		c.JSON(status, gin.H{"error": "Ledger is busy, please retry"})
	default:
		logger.Warn(failMsg, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": err.Error()})
	}
}
