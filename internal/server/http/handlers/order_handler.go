package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/channelpass/internal/domain/errors"
	"github.com/polkiloo/channelpass/internal/domain/model"
	"github.com/polkiloo/channelpass/internal/server/http/dto"
)

// OrderHandler serves the audit views of orders.
type OrderHandler struct {
	orders OrderLister
	logger *slog.Logger
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders OrderLister, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// List handles GET /api/orders/:userID.
func (h *OrderHandler) List(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil || userID <= 0 {
		c.Status(http.StatusBadRequest)
		return
	}

	orders, err := h.orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list orders failed",
			slog.Int64("user_id", userID),
			slog.String("request_id", RequestID(c)),
			slog.String("error", err.Error()),
		)
		c.Status(http.StatusInternalServerError)
		return
	}

	h.logger.Info("orders audited",
		slog.String("auditor", CurrentAuditor(c)),
		slog.Int64("user_id", userID),
		slog.Int("count", len(orders)),
	)

	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/orders/by-id/:orderID.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		c.Status(http.StatusBadRequest)
		return
	}

	order, err := h.orders.OrderByID(c.Request.Context(), orderID)
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		c.Status(http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("get order failed",
			slog.Int64("order_id", orderID),
			slog.String("request_id", RequestID(c)),
			slog.String("error", err.Error()),
		)
		c.Status(http.StatusInternalServerError)
		return
	}

	h.logger.Info("order audited",
		slog.String("auditor", CurrentAuditor(c)),
		slog.Int64("order_id", orderID),
	)

	c.JSON(http.StatusOK, toOrderResponse(*order))
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:             order.ID,
		UserID:         order.UserID,
		PlanID:         order.PlanID,
		DurationMonths: order.DurationMonths,
		Price:          order.Price,
		Status:         string(order.Status),
		HasGrant:       order.GrantRef != "",
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
		ConfirmedAt:    order.ConfirmedAt,
		ExpiresAt:      order.ExpiresAt,
	}
}
