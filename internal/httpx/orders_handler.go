package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/verkstad/shop-orders/internal/checkout"
	"github.com/verkstad/shop-orders/internal/redisx"
	"github.com/verkstad/shop-orders/internal/shop"
)

type CheckoutService interface {
	Checkout(ctx context.Context, req checkout.Request) (*checkout.Result, error)
}

type OrderGetter interface {
	Get(ctx context.Context, id string) (*shop.Order, error)
}

type OrdersHandler struct {
	Checkout CheckoutService
	Orders   OrderGetter
	Redis    *redis.Client
	Logger   *zap.Logger
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.checkout)
	r.Get("/orders/{id}", h.getOrder)
}

type checkoutReq struct {
	Order struct {
		Payment      string `json:"payment"`
		Delivery     string `json:"delivery"`
		DeliveryCost int64  `json:"delivery_cost"`
		Name         string `json:"name"`
		Company      string `json:"company"`
		Address      string `json:"address"`
		Zip          string `json:"zip"`
		City         string `json:"city"`
		Email        string `json:"email"`
		Phone        string `json:"phone"`
	} `json:"order"`
	Cart []struct {
		ID       string `json:"id"`
		Quantity int    `json:"number"`
	} `json:"cart"`
}

type orderSummary struct {
	ID     string           `json:"id"`
	Number string           `json:"number"`
	Status shop.OrderStatus `json:"status"`
}

type checkoutResp struct {
	Order   orderSummary         `json:"order"`
	Payment checkout.PaymentInfo `json:"payment"`
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	cart := make([]shop.CartLine, 0, len(req.Cart))
	for _, l := range req.Cart {
		cart = append(cart, shop.CartLine{ProductID: l.ID, Quantity: l.Quantity})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.Checkout.Checkout(ctx, checkout.Request{
		Information: shop.OrderInformation{
			Name:    req.Order.Name,
			Company: req.Order.Company,
			Address: req.Order.Address,
			Zip:     req.Order.Zip,
			City:    req.Order.City,
			Email:   req.Order.Email,
			Phone:   req.Order.Phone,
		},
		Cart:         cart,
		Delivery:     req.Order.Delivery,
		DeliveryCost: req.Order.DeliveryCost,
		Payment:      req.Order.Payment,
		TraceID:      middleware.GetReqID(r.Context()),
	})
	if err != nil {
		if shop.HTTPStatus(err) == http.StatusInternalServerError {
			h.Logger.Error("checkout failed", zap.Error(err))
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, checkoutResp{
		Order: orderSummary{
			ID:     res.Order.ID,
			Number: res.Order.Number,
			Status: res.Order.Status,
		},
		Payment: res.Payment,
	})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	o, err := h.Orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, shop.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		h.Logger.Error("order lookup failed", zap.String("order_id", orderID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	body := orderSummary{ID: o.ID, Number: o.Number, Status: o.Status}
	if h.Redis != nil {
		if b, err := json.Marshal(body); err == nil {
			_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
		}
	}
	writeJSON(w, http.StatusOK, body)
}
