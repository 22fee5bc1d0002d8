package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// postingHandler exposes the business-event helpers of the posting façade.
type postingHandler struct {
	postingService portssvc.PostingSvcFacade
}

func registerPostingRoutes(rg *gin.RouterGroup, postingService portssvc.PostingSvcFacade) {
	h := &postingHandler{postingService: postingService}

	postings := rg.Group("/postings")
	{
		postings.POST("/expenses", bindAndRecord(h.postingService.RecordExpense, "expense"))
		postings.POST("/supplier-payments", bindAndRecord(h.postingService.RecordSupplierPayment, "supplier payment"))
		postings.POST("/purchases", bindAndRecord(h.postingService.RecordPurchase, "purchase"))
		postings.POST("/sales", bindAndRecord(h.postingService.RecordSale, "sale"))
	}
}

// bindAndRecord binds the event body and hands it to record. Every event answers
// 201 with the posted transaction.
func bindAndRecord[E any](record func(context.Context, E) (*domain.Transaction, error), event string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("event", event))

		var ev E
		if err := c.ShouldBindJSON(&ev); err != nil {
			logger.Warn("Failed to bind JSON for event", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}

		txn, err := record(c.Request.Context(), ev)
		if err != nil {
			respondError(c, logger, err, "Failed to record "+event)
			return
		}

		logger.Info("Event recorded", slog.Int64("transaction_id", txn.TransactionID))
		c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
	}
}
