package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "brandnft/internal/errors"
	"brandnft/internal/money"
	"brandnft/internal/pagination"
	"brandnft/internal/services"
)

// FractionHandler serves the fractional sale of assets.
type FractionHandler struct {
	fractionService services.FractionalizationServicer
	auditService    services.AuditServicer
}

// NewFractionHandler creates a new FractionHandler.
func NewFractionHandler(fractionService services.FractionalizationServicer, auditService services.AuditServicer) *FractionHandler {
	return &FractionHandler{fractionService: fractionService, auditService: auditService}
}

// FractionalizeRequest is the payload for splitting an asset into shares.
type FractionalizeRequest struct {
	ShareUnits uint64 `json:"share_units" binding:"required,gt=0" example:"100"`
}

// BuySharesRequest is the payload for buying shares. Payment is the value
// attached to the purchase; any excess over units*share_value is refunded.
type BuySharesRequest struct {
	Units   uint64 `json:"units" binding:"required,gt=0" example:"10"`
	Payment string `json:"payment" binding:"required,amount" example:"0.1"`
}

// Fractionalize splits an asset into shares
// @Summary     Fractionalize an asset
// @Description Lock a whole asset into a fixed pool of shares held in custody. Only the owner may call this.
// @Tags        fractions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                  true "Asset ID"
// @Param       request body FractionalizeRequest true "Share units"
// @Success     200 {object} models.Asset "Fractionalized asset"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not the asset owner"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     409 {object} ErrorResponse "Asset not whole or sale disabled"
// @Router      /assets/{id}/fractionalize [post]
func (h *FractionHandler) Fractionalize(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parseAssetID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req FractionalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	asset, err := h.fractionService.Fractionalize(caller, id, req.ShareUnits)
	if err != nil {
		respondWithError(c, err)
		return
	}

	userID, _ := getUserID(c)
	h.auditService.Log(userID, "FRACTIONALIZE", "asset", strconv.FormatUint(id, 10), c.ClientIP(),
		map[string]interface{}{
			"share_units":  req.ShareUnits,
			"share_value":  asset.ShareValue.String(),
			"share_ledger": *asset.ShareLedgerAddress,
		})

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// DisableFractionalSale rules out fractionalizing an asset
// @Summary     Disable fractional sale
// @Description Permanently prevent a whole asset from being fractionalized. Only the owner may call this.
// @Tags        fractions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Success     200 {object} models.Asset "Asset"
// @Failure     403 {object} ErrorResponse "Not the asset owner"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     409 {object} ErrorResponse "Asset already fractionalized"
// @Router      /assets/{id}/disable-fractional-sale [post]
func (h *FractionHandler) DisableFractionalSale(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parseAssetID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	asset, err := h.fractionService.DisableFractionalSale(caller, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	userID, _ := getUserID(c)
	h.auditService.Log(userID, "DISABLE_FRACTIONAL_SALE", "asset", strconv.FormatUint(id, 10), c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// SharesAvailable returns the shares left in custody
// @Summary     Shares available
// @Description Units of the asset's shares still held in custody
// @Tags        fractions
// @Produce     json
// @Param       id path int true "Asset ID"
// @Success     200 {object} map[string]interface{} "Available units"
// @Failure     404 {object} ErrorResponse "Token does not exist"
// @Router      /assets/{id}/shares/available [get]
func (h *FractionHandler) SharesAvailable(c *gin.Context) {
	id, err := parseAssetID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	available, err := h.fractionService.SharesAvailable(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset_id": id, "available": available})
}

// BuyShares buys shares from custody
// @Summary     Buy shares
// @Description Buy units of an asset's shares. The payment is debited from the caller's wallet, the exact price is forwarded to the owner and any excess is refunded.
// @Tags        fractions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int              true "Asset ID"
// @Param       request body BuySharesRequest true "Units and payment"
// @Success     201 {object} models.SharePurchase "Purchase receipt"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     402 {object} ErrorResponse "Insufficient funds"
// @Failure     404 {object} ErrorResponse "Token does not exist"
// @Failure     409 {object} ErrorResponse "Exceeds available shares"
// @Failure     502 {object} ErrorResponse "Value transfer failed"
// @Router      /assets/{id}/shares/buy [post]
func (h *FractionHandler) BuyShares(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parseAssetID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BuySharesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	payment, err := money.Parse(req.Payment)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	purchase, err := h.fractionService.BuyShares(services.BuyRequest{
		Caller:  caller,
		AssetID: id,
		Units:   req.Units,
		Payment: payment,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	userID, _ := getUserID(c)
	h.auditService.Log(userID, "BUY_SHARES", "share_purchase", purchase.ID, c.ClientIP(),
		map[string]interface{}{
			"asset_id":  id,
			"units":     req.Units,
			"payment":   payment.String(),
			"forwarded": purchase.Forwarded.String(),
			"refunded":  purchase.Refunded.String(),
		})

	c.JSON(http.StatusCreated, gin.H{"purchase": purchase})
}

// GetShareLedger returns the share ledger address of an asset
// @Summary     Share ledger of an asset
// @Description Address of the share ledger created when the asset was fractionalized
// @Tags        fractions
// @Produce     json
// @Param       id path int true "Asset ID"
// @Success     200 {object} map[string]interface{} "Share ledger address"
// @Failure     404 {object} ErrorResponse "Token does not exist"
// @Router      /assets/{id}/share-ledger [get]
func (h *FractionHandler) GetShareLedger(c *gin.Context) {
	id, err := parseAssetID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ledgerAddress, err := h.fractionService.ShareLedgerAddressFor(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset_id": id, "share_ledger": ledgerAddress})
}

// GetPurchases lists the purchase receipts of an asset
// @Summary     Share purchases
// @Description List share purchases of an asset, oldest first
// @Tags        fractions
// @Produce     json
// @Param       id        path  int true  "Asset ID"
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.SharePurchase] "Purchases"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Router      /assets/{id}/purchases [get]
func (h *FractionHandler) GetPurchases(c *gin.Context) {
	id, err := parseAssetID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.fractionService.GetPurchases(id, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
