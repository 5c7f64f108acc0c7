package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"room-service/controllers"
	"room-service/middleware"
	"room-service/services"
)

// Deps holds everything the router hands out to handlers.
type Deps struct {
	Menu        *controllers.MenuController
	Orders      *controllers.OrderController
	Bills       *controllers.BillController
	Auth        *controllers.AuthController
	AuthSvc     middleware.TokenParser
	OrderLimit  *middleware.IPRateLimiter
	CorsOrigins []string
	UploadDir   string
}

// UploadsPath is where menu photos are served from.
const UploadsPath = "/uploads"

func corsConfig(origins []string) cors.Config {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}
}

// SetupRouter wires guest and staff endpoints.
func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())
	r.Use(cors.New(corsConfig(d.CorsOrigins)))
	if d.UploadDir != "" {
		r.Static(UploadsPath, d.UploadDir)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", d.Auth.Login)
		}

		api.GET("/menu", d.Menu.GetMenu)

		orders := api.Group("/orders")
		{
			if d.OrderLimit != nil {
				orders.POST("", middleware.RateLimit(d.OrderLimit), d.Orders.CreateOrder)
			} else {
				orders.POST("", d.Orders.CreateOrder)
			}
			orders.GET("", d.Orders.GetOrders)
			orders.GET("/:id", d.Orders.GetOrder)
		}

		api.GET("/customers/:mobile/summary", d.Bills.CustomerSummary)

		staff := api.Group("/staff", middleware.RequireRole(d.AuthSvc, services.RoleStaff))
		{
			menu := staff.Group("/menu")
			{
				menu.GET("", d.Menu.GetStaffMenu)
				menu.POST("", d.Menu.CreateMenuItem)
				menu.PUT("/:id", d.Menu.UpdateMenuItem)
				menu.PATCH("/:id/disabled", d.Menu.SetMenuItemDisabled)
				menu.DELETE("/:id", d.Menu.DeleteMenuItem)
			}

			staffOrders := staff.Group("/orders")
			{
				staffOrders.GET("", d.Orders.ListStaffOrders)
				// must stay before /:id routes
				staffOrders.GET("/stream", d.Orders.StreamOrders)
				staffOrders.PATCH("/:id/status", d.Orders.AdvanceStatus)
			}

			bills := staff.Group("/bills")
			{
				bills.GET("", d.Bills.ListBills)
				bills.POST("/recalculate", d.Bills.Recalculate)
				bills.GET("/:id", d.Bills.GetBill)
				bills.PATCH("/:id/paid", d.Bills.SetPaid)
			}
		}
	}

	return r
}
