package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "brandnft/internal/errors"
	"brandnft/internal/models"
	"brandnft/internal/services"
)

// ShareLedgerHandler exposes the share ledgers created by fractionalization.
type ShareLedgerHandler struct {
	ledgerService services.ShareLedgerServicer
	auditService  services.AuditServicer
}

// NewShareLedgerHandler creates a new ShareLedgerHandler.
func NewShareLedgerHandler(ledgerService services.ShareLedgerServicer, auditService services.AuditServicer) *ShareLedgerHandler {
	return &ShareLedgerHandler{ledgerService: ledgerService, auditService: auditService}
}

// ShareTransferRequest moves shares from the caller to another holder.
type ShareTransferRequest struct {
	To    string `json:"to" binding:"required,eth_address"`
	Units uint64 `json:"units" binding:"required,gt=0" example:"5"`
}

// ShareMintRequest asks for new shares. Supply is fixed, so it always fails.
type ShareMintRequest struct {
	To    string `json:"to" binding:"required,eth_address"`
	Units uint64 `json:"units" binding:"required,gt=0"`
}

// GetLedger returns a share ledger
// @Summary     Get share ledger
// @Description Name, symbol, total supply and owner of a share ledger
// @Tags        share-ledgers
// @Produce     json
// @Param       address path string true "Share ledger address"
// @Success     200 {object} models.ShareLedger "Share ledger"
// @Failure     400 {object} ErrorResponse "Invalid address"
// @Failure     404 {object} ErrorResponse "Share ledger not found"
// @Router      /share-ledgers/{address} [get]
func (h *ShareLedgerHandler) GetLedger(c *gin.Context) {
	ledgerAddress, err := parseAddressParam(c, "address")
	if err != nil {
		respondWithError(c, err)
		return
	}

	ledger, err := h.ledgerService.GetLedger(ledgerAddress)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"share_ledger": ledger})
}

// GetBalance returns one holder's units
// @Summary     Share balance
// @Description Units of a share ledger held by an address
// @Tags        share-ledgers
// @Produce     json
// @Param       address path string true "Share ledger address"
// @Param       holder  path string true "Holder address"
// @Success     200 {object} map[string]interface{} "Balance"
// @Failure     400 {object} ErrorResponse "Invalid address"
// @Failure     404 {object} ErrorResponse "Share ledger not found"
// @Router      /share-ledgers/{address}/balances/{holder} [get]
func (h *ShareLedgerHandler) GetBalance(c *gin.Context) {
	ledgerAddress, err := parseAddressParam(c, "address")
	if err != nil {
		respondWithError(c, err)
		return
	}
	holder, err := parseAddressParam(c, "holder")
	if err != nil {
		respondWithError(c, err)
		return
	}

	units, err := h.ledgerService.BalanceOf(ledgerAddress, holder)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ledger": ledgerAddress, "holder": holder, "units": units})
}

// ListBalances returns every holder of a share ledger
// @Summary     Share holders
// @Description Non-empty balances of a share ledger, largest first
// @Tags        share-ledgers
// @Produce     json
// @Param       address path string true "Share ledger address"
// @Success     200 {array} models.ShareBalance "Balances"
// @Failure     400 {object} ErrorResponse "Invalid address"
// @Failure     404 {object} ErrorResponse "Share ledger not found"
// @Router      /share-ledgers/{address}/balances [get]
func (h *ShareLedgerHandler) ListBalances(c *gin.Context) {
	ledgerAddress, err := parseAddressParam(c, "address")
	if err != nil {
		respondWithError(c, err)
		return
	}

	balances, err := h.ledgerService.ListBalances(ledgerAddress)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if balances == nil {
		balances = []models.ShareBalance{}
	}
	c.JSON(http.StatusOK, gin.H{"ledger": ledgerAddress, "balances": balances})
}

// Transfer moves shares held by the caller
// @Summary     Transfer shares
// @Description Move units of the caller's shares to another address
// @Tags        share-ledgers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       address path string               true "Share ledger address"
// @Param       request body ShareTransferRequest true "Recipient and units"
// @Success     200 {object} map[string]interface{} "Transfer result"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient shares"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Custody shares are sold only through purchases"
// @Failure     404 {object} ErrorResponse "Share ledger not found"
// @Router      /share-ledgers/{address}/transfers [post]
func (h *ShareLedgerHandler) Transfer(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	ledgerAddress, err := parseAddressParam(c, "address")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ShareTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.ledgerService.Transfer(caller, ledgerAddress, req.To, req.Units); err != nil {
		respondWithError(c, err)
		return
	}

	userID, _ := getUserID(c)
	h.auditService.Log(userID, "TRANSFER_SHARES", "share_ledger", ledgerAddress, c.ClientIP(),
		map[string]interface{}{"to": req.To, "units": req.Units})

	c.JSON(http.StatusOK, gin.H{"ledger": ledgerAddress, "from": caller, "to": req.To, "units": req.Units})
}

// Mint is rejected for every caller since share supply is fixed
// @Summary     Mint shares
// @Description Always fails: a share ledger's supply is fixed when the asset is fractionalized
// @Tags        share-ledgers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       address path string           true "Share ledger address"
// @Param       request body ShareMintRequest true "Recipient and units"
// @Failure     403 {object} ErrorResponse "Not the ledger owner"
// @Failure     409 {object} ErrorResponse "Supply is fixed"
// @Router      /share-ledgers/{address}/mint [post]
func (h *ShareLedgerHandler) Mint(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	ledgerAddress, err := parseAddressParam(c, "address")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ShareMintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.ledgerService.Mint(caller, ledgerAddress, req.To, req.Units); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
