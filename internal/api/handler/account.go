package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/linkboard/internal/accounts"
	"github.com/jmerrifield20/linkboard/internal/runtime"
	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/board"
	"go.uber.org/zap"
)

// maxRentSpace is the largest account size /rent will quote.
const maxRentSpace = 10 << 20

// rentSource is satisfied by *runtime.Processor.
type rentSource interface {
	Rent() runtime.Rent
}

// AccountView is the JSON form of a stored account.
type AccountView struct {
	Address  address.Address `json:"address"`
	Owner    address.Address `json:"owner"`
	Lamports uint64          `json:"lamports"`
	Data     []byte          `json:"data"`
	Space    int             `json:"space"`
}

// BoardView is the JSON form of a decoded board account.
type BoardView struct {
	Address      address.Address `json:"address"`
	TotalEntries uint64          `json:"total_entries"`
	Entries      []board.Entry   `json:"entries"`
}

// AccountHandler serves read-only account state.
type AccountHandler struct {
	store  accounts.Store
	rent   rentSource
	logger *zap.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(store accounts.Store, rent rentSource, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{store: store, rent: rent, logger: logger}
}

// Register mounts the account routes on the given router group.
func (h *AccountHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/accounts/:address", h.GetAccount)
	b := rg.Group("/boards/:address")
	{
		b.GET("", h.GetBoard)
		b.GET("/entries/:idx", h.GetEntry)
	}
	rg.GET("/rent", h.MinimumBalance)
}

// load parses the :address param and fetches the account. It writes the
// error response and returns nil on failure.
func (h *AccountHandler) load(c *gin.Context) *accounts.Account {
	addr, err := address.Parse(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address: " + err.Error()})
		return nil
	}
	acct, err := h.store.Get(c.Request.Context(), addr)
	if errors.Is(err, accounts.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return nil
	}
	if err != nil {
		h.logger.Error("account Get", zap.String("address", addr.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
		return nil
	}
	return acct
}

// loadBoard is load plus board decoding.
func (h *AccountHandler) loadBoard(c *gin.Context) (*accounts.Account, *board.Board) {
	acct := h.load(c)
	if acct == nil {
		return nil, nil
	}
	if acct.Owner != board.ProgramID {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "account is not owned by the board program",
			"code":  board.ErrAccountOwnedByWrongProgram.Code,
			"name":  board.ErrAccountOwnedByWrongProgram.Name,
		})
		return nil, nil
	}
	b, err := board.Unmarshal(acct.Data)
	if err != nil {
		writeProcessError(c, err, h.logger)
		return nil, nil
	}
	return acct, b
}

// GetAccount handles GET /accounts/:address.
func (h *AccountHandler) GetAccount(c *gin.Context) {
	acct := h.load(c)
	if acct == nil {
		return
	}
	c.JSON(http.StatusOK, AccountView{
		Address:  acct.Address,
		Owner:    acct.Owner,
		Lamports: acct.Lamports,
		Data:     acct.Data,
		Space:    len(acct.Data),
	})
}

// GetBoard handles GET /boards/:address: the decoded board.
func (h *AccountHandler) GetBoard(c *gin.Context) {
	acct, b := h.loadBoard(c)
	if b == nil {
		return
	}
	entries := b.Entries
	if entries == nil {
		entries = []board.Entry{}
	}
	c.JSON(http.StatusOK, BoardView{
		Address:      acct.Address,
		TotalEntries: b.TotalEntries,
		Entries:      entries,
	})
}

// GetEntry handles GET /boards/:address/entries/:idx.
func (h *AccountHandler) GetEntry(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idx must be a non-negative integer"})
		return
	}
	_, b := h.loadBoard(c)
	if b == nil {
		return
	}
	if idx >= len(b.Entries) {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}
	c.JSON(http.StatusOK, b.Entries[idx])
}

// MinimumBalance handles GET /rent?space=N.
func (h *AccountHandler) MinimumBalance(c *gin.Context) {
	space, err := strconv.ParseUint(c.Query("space"), 10, 64)
	if err != nil || space > maxRentSpace {
		c.JSON(http.StatusBadRequest, gin.H{"error": "space must be an integer between 0 and " + strconv.Itoa(maxRentSpace)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"space":    space,
		"lamports": h.rent.Rent().MinimumBalance(space),
	})
}
