package router

import (
	"net/http"
	"time"

	"canteen/internal/auth"
	"canteen/internal/menu"
	"canteen/internal/middleware"
	"canteen/internal/order"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Tokens       *auth.Tokens
	Menu         *menu.Service
	Orders       *order.Service
	AllowOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()

	if len(d.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	menuHandler := menu.NewHandler(d.Menu)
	vendorHandler := menu.NewVendorHandler(d.Menu)
	orderHandler := order.NewHandler(d.Orders)

	// ───────────────────────── CUSTOMER MENU ─────────────────────────
	items := r.Group("/menu-items")
	{
		items.GET("/:id", menuHandler.GetItem)
		items.POST("/:id/validate", menuHandler.Validate)
		items.POST("/:id/schedule-check", menuHandler.ScheduleCheck)
	}

	// ───────────────────────── CART + ORDERS ─────────────────────────
	customer := r.Group("")
	customer.Use(middleware.AuthMiddleware(d.Tokens))
	{
		customer.POST("/menu-items/:id/cart-item", menuHandler.CartItem)
		customer.POST("/orders", orderHandler.Create)
		customer.GET("/orders/:id", orderHandler.Get)
	}

	// ───────────────────────── VENDOR ─────────────────────────
	vendor := r.Group("/vendor")
	vendor.Use(
		middleware.AuthMiddleware(d.Tokens),
		middleware.RequireRole(auth.RoleVendor),
	)
	{
		vendor.POST("/categories/adjustment-check", vendorHandler.CategoryAdjustmentCheck)
		vendor.POST("/variation-groups/check", vendorHandler.VariationGroupCheck)
	}

	return r
}
