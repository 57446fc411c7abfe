package order

import (
	"log"
	"net/http"

	"canteen/internal/core"
	"canteen/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// --------------------------------------------------
// POST /orders
// --------------------------------------------------
func (h *Handler) Create(c *gin.Context) {
	userID := c.GetString(middleware.KeyUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	o, err := h.service.CreateOrder(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, o)
}

// --------------------------------------------------
// GET /orders/:id
// --------------------------------------------------
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	o, err := h.service.GetOrder(
		c.Request.Context(),
		id,
		c.GetString(middleware.KeyUserID),
		c.GetString(middleware.KeyUserRole),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

func respondError(c *gin.Context, err error) {
	status := core.HTTPStatus(err)

	if ve, ok := core.AsValidation(err); ok {
		c.JSON(status, gin.H{"error": "validation failed", "fields": ve.Fields})
		return
	}
	if status == http.StatusInternalServerError {
		log.Printf("[ORDER] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": core.ErrOrderNotPersisted.Error()})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
