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

// AssetHandler serves the asset registry and owner index.
type AssetHandler struct {
	assetService services.AssetServicer
	auditService services.AuditServicer
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService services.AssetServicer, auditService services.AuditServicer) *AssetHandler {
	return &AssetHandler{assetService: assetService, auditService: auditService}
}

// MintRequest is the payload for minting an asset. Price is a decimal string.
type MintRequest struct {
	Price string `json:"price" binding:"required,positive_amount" example:"1.5"`
}

// SetBaseURIRequest is the payload for changing the metadata prefix.
type SetBaseURIRequest struct {
	BaseURI string `json:"base_uri" binding:"max=2048" example:"ipfs://bafy.../"`
}

// GetCollection returns the collection metadata
// @Summary     Get collection
// @Description Get the collection name, symbol, base URI, owner, custody address and minted count
// @Tags        collection
// @Produce     json
// @Success     200 {object} models.Collection "Collection"
// @Failure     404 {object} ErrorResponse "Collection not created"
// @Router      /collection [get]
func (h *AssetHandler) GetCollection(c *gin.Context) {
	collection, err := h.assetService.GetCollection()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collection": collection})
}

// SetBaseURI changes the metadata prefix
// @Summary     Set base URI
// @Description Replace the token URI prefix. Only the collection owner may call this.
// @Tags        collection
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SetBaseURIRequest true "New base URI"
// @Success     200 {object} models.Collection "Updated collection"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the collection owner"
// @Router      /collection/base-uri [put]
func (h *AssetHandler) SetBaseURI(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetBaseURIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	collection, err := h.assetService.SetBaseURI(caller, req.BaseURI)
	if err != nil {
		respondWithError(c, err)
		return
	}

	userID, _ := getUserID(c)
	h.auditService.Log(userID, "SET_BASE_URI", "collection", collection.Address, c.ClientIP(),
		map[string]interface{}{"base_uri": req.BaseURI})

	c.JSON(http.StatusOK, gin.H{"collection": collection})
}

// Mint creates a new asset owned by the caller
// @Summary     Mint an asset
// @Description Mint the next asset at the given price, owned by the authenticated user
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MintRequest true "Asset price"
// @Success     201 {object} models.Asset "Minted asset"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets [post]
func (h *AssetHandler) Mint(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	price, err := money.ParsePositive(req.Price)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	asset, err := h.assetService.Mint(caller, price)
	if err != nil {
		respondWithError(c, err)
		return
	}

	userID, _ := getUserID(c)
	h.auditService.Log(userID, "MINT_ASSET", "asset", strconv.FormatUint(asset.ID, 10), c.ClientIP(),
		map[string]interface{}{"price": price.String()})

	c.JSON(http.StatusCreated, gin.H{"asset": asset})
}

// ListAssets returns a page of assets
// @Summary     List assets
// @Description List minted assets in minting order
// @Tags        assets
// @Produce     json
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.Asset] "Assets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /assets [get]
func (h *AssetHandler) ListAssets(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.assetService.ListAssets(page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Count returns the number of minted assets
// @Summary     Count assets
// @Description Number of assets minted so far
// @Tags        assets
// @Produce     json
// @Success     200 {object} map[string]uint64 "Count"
// @Router      /assets/count [get]
func (h *AssetHandler) Count(c *gin.Context) {
	count, err := h.assetService.Count()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GetAsset returns one asset
// @Summary     Get asset
// @Description Get an asset's owner, price, state, share ledger and share value
// @Tags        assets
// @Produce     json
// @Param       id path int true "Asset ID"
// @Success     200 {object} models.Asset "Asset"
// @Failure     400 {object} ErrorResponse "Invalid asset ID"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Router      /assets/{id} [get]
func (h *AssetHandler) GetAsset(c *gin.Context) {
	id, err := parseAssetID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	asset, err := h.assetService.GetAsset(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// GetFractionsOf lists every asset an address has minted
// @Summary     Fractions of an owner
// @Description List, in minting order, every asset the address minted with a snapshot of its current state
// @Tags        owners
// @Produce     json
// @Param       address path string true "Owner address"
// @Success     200 {array} services.Fraction "Fractions"
// @Failure     400 {object} ErrorResponse "Invalid address"
// @Router      /owners/{address}/fractions [get]
func (h *AssetHandler) GetFractionsOf(c *gin.Context) {
	owner, err := parseAddressParam(c, "address")
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.respondFractions(c, owner)
}

// GetMyFractions lists every asset the caller has minted
// @Summary     My fractions
// @Description List, in minting order, every asset the authenticated user minted
// @Tags        owners
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.Fraction "Fractions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /fractions [get]
func (h *AssetHandler) GetMyFractions(c *gin.Context) {
	caller, err := getCaller(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.respondFractions(c, caller)
}

func (h *AssetHandler) respondFractions(c *gin.Context, owner string) {
	fractions, err := h.assetService.FractionsOf(owner)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": owner, "fractions": fractions})
}
