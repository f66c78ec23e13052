package server

import (
	"agrivet-checkout/internal/handler"
	"agrivet-checkout/internal/middleware"
	"agrivet-checkout/internal/service"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
	adminHandler    *handler.AdminHandler
	adminJWTSecret  string
}

func NewServer(checkoutService service.CheckoutService, adminService service.AdminService, baseURL, adminJWTSecret string) *Server {
	e := echo.New()

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:            e,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService, baseURL),
		adminHandler:    handler.NewAdminHandler(adminService),
		adminJWTSecret:  adminJWTSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- card (paymob hosted iframe) --------
	paymob := api.Group("/paymob")
	paymob.POST("/session", s.checkoutHandler.CreateCardSession)
	paymob.POST("/callback", s.checkoutHandler.PaymobCallback)

	// -------- paypal --------
	paypal := api.Group("/paypal")
	paypal.POST("/session", s.checkoutHandler.CreatePaypalSession)
	paypal.GET("/success", s.checkoutHandler.PaypalSuccess)
	paypal.GET("/cancel", s.checkoutHandler.PaypalCancel)

	// -------- cod + attempt lifecycle --------
	co := api.Group("/checkout")
	co.POST("/cod", s.checkoutHandler.CheckoutCOD)
	co.POST("/:attemptID/cancel", s.checkoutHandler.CancelAttempt)
	co.POST("/:attemptID/retry", s.checkoutHandler.RetryFinalize)

	// -------- admin dashboard --------
	admin := api.Group("/admin", middleware.AdminAuth(s.adminJWTSecret))
	admin.GET("/orders", s.adminHandler.ListOrders)
	admin.GET("/orders/:id", s.adminHandler.GetOrder)
	admin.PATCH("/orders/:id/status", s.adminHandler.UpdateStatus)
	admin.POST("/orders/:id/comments", s.adminHandler.AddComment)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
