package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/linkboard/internal/auth"
	"github.com/jmerrifield20/linkboard/internal/runtime"
	"github.com/jmerrifield20/linkboard/pkg/address"
	"go.uber.org/zap"
)

// airdropper is satisfied by *runtime.Processor.
type airdropper interface {
	Airdrop(ctx context.Context, to address.Address, lamports uint64) (*runtime.Receipt, uint64, error)
}

// AdminHandler serves the faucet and the admin token exchange.
type AdminHandler struct {
	faucet airdropper
	issuer *auth.Issuer
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(faucet airdropper, issuer *auth.Issuer, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{faucet: faucet, issuer: issuer, logger: logger}
}

// Register mounts the admin routes on the given router group.
func (h *AdminHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/admin-token", h.IssueToken)
	rg.POST("/airdrop", auth.RequireAdmin(h.issuer), h.Airdrop)
}

type adminTokenRequest struct {
	Secret string `json:"secret" validate:"required"`
}

// IssueToken handles POST /auth/admin-token: exchanges the admin secret for
// a short-lived bearer token.
func (h *AdminHandler) IssueToken(c *gin.Context) {
	var req adminTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if !h.issuer.CheckSecret(req.Secret) {
		h.logger.Warn("admin token refused", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid admin secret"})
		return
	}

	token, err := h.issuer.Issue()
	if err != nil {
		h.logger.Error("issue admin token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(h.issuer.TTL().Seconds()),
	})
}

type airdropRequest struct {
	Address  address.Address `json:"address" validate:"required"`
	Lamports uint64          `json:"lamports" validate:"gt=0"`
}

// Airdrop handles POST /airdrop: credits lamports to an address.
func (h *AdminHandler) Airdrop(c *gin.Context) {
	var req airdropRequest
	if !bindJSON(c, &req) {
		return
	}

	receipt, balance, err := h.faucet.Airdrop(c.Request.Context(), req.Address, req.Lamports)
	if err != nil {
		writeProcessError(c, err, h.logger)
		return
	}

	var subject string
	if claims := auth.ClaimsFromCtx(c); claims != nil {
		subject = claims.ID
	}
	h.logger.Debug("airdrop granted",
		zap.String("to", req.Address.String()),
		zap.String("token_id", subject),
	)
	c.JSON(http.StatusOK, gin.H{
		"signature": receipt.Signature,
		"slot":      receipt.Slot,
		"balance":   balance,
	})
}
