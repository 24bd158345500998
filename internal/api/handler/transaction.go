package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/linkboard/internal/runtime"
	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/txn"
	"go.uber.org/zap"
)

// txProcessor is satisfied by *runtime.Processor.
type txProcessor interface {
	Process(ctx context.Context, tx *txn.Transaction) (*runtime.Receipt, error)
}

// TransactionHandler accepts signed transactions.
type TransactionHandler struct {
	proc   txProcessor
	logger *zap.Logger
}

// NewTransactionHandler creates a TransactionHandler.
func NewTransactionHandler(proc txProcessor, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{proc: proc, logger: logger}
}

// Register mounts the transaction routes on the given router group.
func (h *TransactionHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/transactions", h.Submit)
}

type submitRequest struct {
	Message    messageRequest      `json:"message"`
	Signatures []address.Signature `json:"signatures" validate:"required,min=1,max=16"`
}

type messageRequest struct {
	ProgramID address.Address   `json:"program_id"`
	Accounts  []txn.AccountMeta `json:"accounts" validate:"required,min=1,max=32"`
	Data      []byte            `json:"data" validate:"max=16384"`
	Nonce     uint64            `json:"nonce"`
}

// Submit handles POST /transactions: verifies and applies one transaction.
func (h *TransactionHandler) Submit(c *gin.Context) {
	var req submitRequest
	if !bindJSON(c, &req) {
		return
	}

	tx := &txn.Transaction{
		Message: txn.Message{
			ProgramID: req.Message.ProgramID,
			Accounts:  req.Message.Accounts,
			Data:      req.Message.Data,
			Nonce:     req.Message.Nonce,
		},
		Signatures: req.Signatures,
	}

	receipt, err := h.proc.Process(c.Request.Context(), tx)
	if err != nil {
		writeProcessError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, receipt)
}
