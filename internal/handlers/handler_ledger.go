package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/dto"
	"github.com/SscSPs/backoffice_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := &ledgerHandler{ledgerService: ledgerService}

	txns := rg.Group("/transactions")
	{
		txns.POST("", h.postTransaction)
		txns.GET("", h.listTransactionsByReference)
		txns.GET("/:transactionID", h.getTransaction)
		txns.POST("/:transactionID/reverse", h.reverseTransaction)
	}
	rg.GET("/ledger/verify", h.verifyBalances)
}

// postTransaction godoc
// @Summary Post a balanced transaction
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   transaction body dto.PostTransactionRequest true "Reference and entries"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 422 {object} map[string]string "Unbalanced transaction or unknown account"
// @Failure 503 {object} map[string]string "Balance conflict, retry later"
// @Router /transactions [post]
func (h *ledgerHandler) postTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("reference_type", req.ReferenceType), slog.String("reference_id", req.ReferenceID))
	txn, err := h.ledgerService.Post(c.Request.Context(), req.ReferenceType, req.ReferenceID, dto.ToEntryInputs(req.Entries))
	if err != nil {
		respondError(c, logger, err, "Failed to post transaction")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// getTransaction godoc
// @Summary Get a transaction with its entries
// @Tags ledger
// @Produce  json
// @Param   transactionID path int true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Router /transactions/{transactionID} [get]
func (h *ledgerHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	id, ok := parseTransactionID(c, logger)
	if !ok {
		return
	}

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve transaction")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// listTransactionsByReference godoc
// @Summary List transactions recorded for a business reference
// @Tags ledger
// @Produce  json
// @Param   referenceType query string true "Reference type"
// @Param   referenceID query string true "Reference ID"
// @Success 200 {array} dto.TransactionResponse
// @Router /transactions [get]
func (h *ledgerHandler) listTransactionsByReference(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	txns, err := h.ledgerService.ListTransactionsByReference(c.Request.Context(), params.ReferenceType, params.ReferenceID)
	if err != nil {
		respondError(c, logger, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponses(txns))
}

// reverseTransaction godoc
// @Summary Reverse a posted transaction
// @Description Posts a new transaction with every debit and credit swapped
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   transactionID path int true "Transaction ID"
// @Param   body body dto.ReverseTransactionRequest false "Narration"
// @Success 201 {object} dto.TransactionResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Already reversed"
// @Router /transactions/{transactionID}/reverse [post]
func (h *ledgerHandler) reverseTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	id, ok := parseTransactionID(c, logger)
	if !ok {
		return
	}

	var req dto.ReverseTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to bind JSON for ReverseTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.ledgerService.Reverse(c.Request.Context(), id, req.Narration)
	if err != nil {
		respondError(c, logger, err, "Failed to reverse transaction")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// verifyBalances godoc
// @Summary Replay every entry and compare with stored balances
// @Tags ledger
// @Produce  json
// @Success 200 {object} dto.VerificationResponse
// @Router /ledger/verify [get]
func (h *ledgerHandler) verifyBalances(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	report, err := h.ledgerService.VerifyBalances(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to verify balances")
		return
	}

	c.JSON(http.StatusOK, dto.ToVerificationResponse(report))
}

func parseTransactionID(c *gin.Context, logger *slog.Logger) (int64, bool) {
	raw := c.Param("transactionID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("Invalid transaction ID", slog.String("transaction_id", raw))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction ID"})
		return 0, false
	}
	return id, true
}
