package menu

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"canteen/internal/catalog"
	"canteen/internal/core"
	"canteen/internal/selection"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Handler struct {
	service *Service
}

type VendorHandler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func NewVendorHandler(service *Service) *VendorHandler {
	return &VendorHandler{service: service}
}

// --------------------------------------------------
// Customer opens an item
// --------------------------------------------------
func (h *Handler) GetItem(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}

	item, err := h.service.ResolveMenuItemForCustomer(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// --------------------------------------------------
// Customer checks a selection
// --------------------------------------------------
func (h *Handler) Validate(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}

	var tree selection.Tree
	if err := c.ShouldBindJSON(&tree); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.service.ValidateSelection(c.Request.Context(), itemID, tree)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// --------------------------------------------------
// Customer adds an item to the cart
// --------------------------------------------------
func (h *Handler) CartItem(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}

	var req struct {
		Selection selection.Tree `json:"selection"`
		Quantity  int            `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	payload, err := h.service.BuildOrderItem(c.Request.Context(), itemID, req.Selection, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payload)
}

// --------------------------------------------------
// Customer checks a pickup time
// --------------------------------------------------
func (h *Handler) ScheduleCheck(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}

	var req struct {
		ScheduledFor time.Time      `json:"scheduled_for" binding:"required"`
		Selection    selection.Tree `json:"selection"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_for must be an RFC3339 time"})
		return
	}

	res, err := h.service.ValidateScheduledDateTime(c.Request.Context(), itemID, req.ScheduledFor, req.Selection)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// --------------------------------------------------
// VENDOR: category-wide price adjustment
// --------------------------------------------------
func (h *VendorHandler) CategoryAdjustmentCheck(c *gin.Context) {
	var req struct {
		CategoryIDs     []int64         `json:"category_ids" binding:"required"`
		PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	warnings, err := h.service.CheckCategoryAdjustment(c.Request.Context(), req.CategoryIDs, req.PriceAdjustment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"warnings":              nonNil(warnings),
		"requires_confirmation": len(warnings) > 0,
	})
}

// --------------------------------------------------
// VENDOR: variation group draft
// --------------------------------------------------
func (h *VendorHandler) VariationGroupCheck(c *gin.Context) {
	var item catalog.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	warnings, err := h.service.CheckMenuItemConfig(c.Request.Context(), item)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"warnings":              nonNil(warnings),
		"requires_confirmation": len(warnings) > 0,
	})
}

func itemParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid menu item id"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	status := core.HTTPStatus(err)

	if ve, ok := core.AsValidation(err); ok {
		c.JSON(status, gin.H{"error": "validation failed", "fields": ve.Fields})
		return
	}
	if status == http.StatusInternalServerError {
		log.Printf("[MENU] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func nonNil(w []core.ConfigWarning) []core.ConfigWarning {
	if w == nil {
		return []core.ConfigWarning{}
	}
	return w
}
