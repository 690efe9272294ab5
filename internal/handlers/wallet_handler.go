package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "brandnft/internal/errors"
	"brandnft/internal/money"
	"brandnft/internal/services"
)

// WalletHandler serves native-value balances and the treasury endpoints.
type WalletHandler struct {
	walletService services.WalletServicer
	auditService  services.AuditServicer
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService services.WalletServicer, auditService services.AuditServicer) *WalletHandler {
	return &WalletHandler{walletService: walletService, auditService: auditService}
}

// DepositRequest credits native value to an address.
type DepositRequest struct {
	Address string `json:"address" binding:"required,eth_address"`
	Amount  string `json:"amount" binding:"required,positive_amount" example:"10"`
}

// SetBlockedRequest toggles whether a wallet refuses incoming value.
type SetBlockedRequest struct {
	Blocked *bool `json:"blocked" binding:"required"`
}

// GetMyWallet returns the caller's wallet
// @Summary     My wallet
// @Description Native-value balance of the authenticated user's address
// @Tags        wallets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Wallet "Wallet"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /wallet [get]
func (h *WalletHandler) GetMyWallet(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.walletService.GetWallet(caller)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// GetWallet returns any address's wallet
// @Summary     Get wallet
// @Description Native-value balance of an address
// @Tags        wallets
// @Produce     json
// @Param       address path string true "Address"
// @Success     200 {object} models.Wallet "Wallet"
// @Failure     400 {object} ErrorResponse "Invalid address"
// @Router      /wallets/{address} [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	addr, err := parseAddressParam(c, "address")
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.walletService.GetWallet(addr)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// Deposit credits value to an address
// @Summary     Treasury deposit
// @Description Credit native value to an address. Requires the treasury API key.
// @Tags        treasury
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body DepositRequest true "Address and amount"
// @Success     200 {object} models.Wallet "Updated wallet"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     502 {object} ErrorResponse "Wallet refuses value"
// @Failure     503 {object} ErrorResponse "Treasury not configured"
// @Router      /treasury/deposits [post]
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	amount, err := money.ParsePositive(req.Amount)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	wallet, err := h.walletService.Deposit(req.Address, amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("", "DEPOSIT", "wallet", wallet.Address, c.ClientIP(),
		map[string]interface{}{"amount": amount.String()})

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// SetBlocked marks a wallet as refusing incoming value
// @Summary     Block or unblock a wallet
// @Description A blocked wallet rejects every incoming transfer. Requires the treasury API key.
// @Tags        treasury
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       address path string            true "Address"
// @Param       request body SetBlockedRequest true "Blocked flag"
// @Success     200 {object} models.Wallet "Updated wallet"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /treasury/wallets/{address}/blocked [put]
func (h *WalletHandler) SetBlocked(c *gin.Context) {
	addr, err := parseAddressParam(c, "address")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetBlockedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	wallet, err := h.walletService.SetBlocked(addr, *req.Blocked)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("", "SET_WALLET_BLOCKED", "wallet", wallet.Address, c.ClientIP(),
		map[string]interface{}{"blocked": *req.Blocked})

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}
