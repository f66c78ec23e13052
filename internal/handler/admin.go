package handler

import (
	"errors"
	"net/http"
	"strconv"

	"agrivet-checkout/internal/dto"
	"agrivet-checkout/internal/middleware"
	"agrivet-checkout/internal/model"
	"agrivet-checkout/internal/service"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	status := model.OrderStatus(c.QueryParam("status"))

	orders, err := h.adminService.ListOrders(ctx, status, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *AdminHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	details, err := h.adminService.GetOrder(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(http.StatusOK, details)
}

func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	err := h.adminService.UpdateStatus(ctx, c.Param("id"), model.OrderStatus(req.Status), req.Note, middleware.Actor(c))
	if err != nil {
		if errors.Is(err, service.ErrIllegalStatusChange) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) AddComment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "comment text is required")
	}

	err := h.adminService.AddComment(ctx, c.Param("id"), req.Text, middleware.Actor(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return err
	}

	return c.NoContent(http.StatusCreated)
}
