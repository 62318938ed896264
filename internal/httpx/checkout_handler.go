package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/eddiefio/guestify-checkout/internal/accounts"
	"github.com/eddiefio/guestify-checkout/internal/checkout"
	"github.com/eddiefio/guestify-checkout/internal/inventory"
	kafkax "github.com/eddiefio/guestify-checkout/internal/kafka"
	"github.com/eddiefio/guestify-checkout/internal/order"
	"github.com/eddiefio/guestify-checkout/internal/redisx"
	"github.com/eddiefio/guestify-checkout/internal/retry"
)

type CheckoutService interface {
	Checkout(ctx context.Context, propertyID string, cart []checkout.Line) (checkout.Result, error)
}

type OrderStore interface {
	GetByID(ctx context.Context, orderID string) (*order.Order, error)
	MarkPaid(ctx context.Context, orderID, paymentRef string) error
}

type MenuLister interface {
	ListByProperty(ctx context.Context, propertyID string) ([]inventory.Record, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type AccountStore interface {
	Set(ctx context.Context, propertyID, accountID string) error
	Get(ctx context.Context, propertyID string) (string, error)
}

type Handler struct {
	Checkout      CheckoutService
	Orders        OrderStore
	Inventory     MenuLister
	Accounts      AccountStore
	Redis         *redis.Client
	Producer      Publisher // order.created
	Service       string
	Logger        *log.Logger
	RetryAttempts int
}

func (h *Handler) Register(r *chi.Mux) {
	r.Post("/api/checkout", h.createCheckout)
	r.Post("/api/payments/confirm", h.confirmPayment)
	r.Get("/api/orders/{orderId}", h.getOrder)
	r.Get("/api/orders/{orderId}/status", h.getOrderStatus)
	r.Get("/api/properties/{propertyId}/menu", h.getMenu)
	r.Put("/api/properties/{propertyId}/payout-account", h.setPayoutAccount)
	r.Get("/api/properties/{propertyId}/payout-account", h.getPayoutAccount)
}

type checkoutReq struct {
	PropertyID string          `json:"propertyId"`
	Cart       []checkout.Line `json:"cart"`
}

type checkoutResp struct {
	Success    bool    `json:"success"`
	OrderID    string  `json:"orderId"`
	Subtotal   float64 `json:"subtotal"`
	ServiceFee float64 `json:"serviceFee"`
	FinalPrice float64 `json:"finalPrice"`
}

func (h *Handler) createCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Checkout.Checkout(ctx, req.PropertyID, req.Cart)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}

	// cache status so GET /status is cheap right after checkout
	h.cacheSet(ctx, fmt.Sprintf(redisx.KeyOrderStatus, res.OrderID),
		`{"paymentStatus":"pending"}`, redisx.TTLStatusCache)

	h.publishOrderCreated(req, res, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusOK, checkoutResp{
		Success:    true,
		OrderID:    res.OrderID,
		Subtotal:   checkout.Dollars(res.SubtotalCents),
		ServiceFee: checkout.Dollars(res.FeeCents),
		FinalPrice: checkout.Dollars(res.TotalCents),
	})
}

func writeCheckoutError(w http.ResponseWriter, err error) {
	var cerr *checkout.Error
	if !errors.As(err, &cerr) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "checkout failed", "details": err.Error(),
		})
		return
	}

	body := map[string]any{"error": cerr.Error(), "code": cerr.Code}
	if cerr.ProductID != "" {
		body["productId"] = cerr.ProductID
	}
	if cerr.Code == checkout.CodeInsufficientStock {
		body["requested"] = cerr.Requested
		body["available"] = cerr.Available
	}
	if cerr.Code.ClientError() {
		writeJSON(w, http.StatusBadRequest, body)
		return
	}
	if cerr.Err != nil {
		body["details"] = cerr.Err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

func (h *Handler) publishOrderCreated(req checkoutReq, res checkout.Result, traceID string) {
	if h.Producer == nil {
		return
	}
	items := make([]order.ItemPrice, 0, len(req.Cart))
	for _, l := range req.Cart {
		items = append(items, order.ItemPrice{
			ProductID:  l.ProductID,
			Qty:        l.Quantity,
			PriceCents: checkout.Cents(l.Price),
		})
	}
	ev := order.Envelope{
		EventID:       uuid.NewString(),
		EventType:     order.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: res.OrderID,
		Payload: kafkax.MustMarshal(order.OrderCreatedPayload{
			OrderID:       res.OrderID,
			PropertyID:    req.PropertyID,
			Items:         items,
			SubtotalCents: res.SubtotalCents,
			FeeCents:      res.FeeCents,
			TotalCents:    res.TotalCents,
		}),
	}
	h.Producer.Publish(order.PartitionKey(res.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(order.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

type confirmReq struct {
	OrderID         string `json:"orderId"`
	PaymentIntentID string `json:"paymentIntentId"`
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.OrderID == "" || req.PaymentIntentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := retry.Do(ctx, h.RetryAttempts, func() error {
		err := h.Orders.MarkPaid(ctx, req.OrderID, req.PaymentIntentID)
		if errors.Is(err, order.ErrNotFound) || errors.Is(err, order.ErrConflict) {
			return retry.Permanent(err)
		}
		return err
	})
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	case errors.Is(err, order.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order is not pending"})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.cacheSet(ctx, fmt.Sprintf(redisx.KeyOrderStatus, req.OrderID),
		`{"paymentStatus":"completed"}`, redisx.TTLStatusCache)

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orderId": req.OrderID})
}

type orderItemResp struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type orderResp struct {
	OrderID       string          `json:"orderId"`
	PropertyID    string          `json:"propertyId"`
	Subtotal      float64         `json:"subtotal"`
	ServiceFee    float64         `json:"serviceFee"`
	FinalPrice    float64         `json:"finalPrice"`
	PaymentStatus order.Status    `json:"paymentStatus"`
	OrderDate     time.Time       `json:"orderDate"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	Items         []orderItemResp `json:"items"`
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing orderId"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var o *order.Order
	err := retry.Do(ctx, h.RetryAttempts, func() error {
		var err error
		o, err = h.Orders.GetByID(ctx, orderID)
		if errors.Is(err, order.ErrNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
	if errors.Is(err, order.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	resp := orderResp{
		OrderID:       o.ID,
		PropertyID:    o.PropertyID,
		Subtotal:      checkout.Dollars(o.SubtotalCents),
		ServiceFee:    checkout.Dollars(o.FeeCents),
		FinalPrice:    checkout.Dollars(o.TotalCents),
		PaymentStatus: o.PaymentStatus,
		OrderDate:     o.OrderDate,
		PaidAt:        o.PaidAt,
		Items:         make([]orderItemResp, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResp{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     checkout.Dollars(it.UnitPriceCents),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing orderId"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first, DB as fallback
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, ok := h.cacheGet(ctx, key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	var o *order.Order
	err := retry.Do(ctx, h.RetryAttempts, func() error {
		var err error
		o, err = h.Orders.GetByID(ctx, orderID)
		if errors.Is(err, order.ErrNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
	if errors.Is(err, order.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	body, _ := json.Marshal(map[string]any{"paymentStatus": o.PaymentStatus})
	h.cacheSet(ctx, key, string(body), redisx.TTLStatusCache)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyId")
	if propertyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing propertyId"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyMenu, propertyID)
	if s, ok := h.cacheGet(ctx, key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	var recs []inventory.Record
	err := retry.Do(ctx, h.RetryAttempts, func() error {
		var err error
		recs, err = h.Inventory.ListByProperty(ctx, propertyID)
		return err
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	body, _ := json.Marshal(recs)
	h.cacheSet(ctx, key, string(body), redisx.TTLMenuCache)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type payoutAccountReq struct {
	AccountID string `json:"accountId"`
}

func (h *Handler) setPayoutAccount(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyId")
	var req payoutAccountReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing accountId"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Accounts.Set(ctx, propertyID, req.AccountID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "propertyId": propertyID})
}

func (h *Handler) getPayoutAccount(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	acct, err := h.Accounts.Get(ctx, propertyID)
	if errors.Is(err, accounts.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no payout account for property"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"propertyId": propertyID, "accountId": acct})
}

// cache helpers tolerate a missing Redis client; the store stays the truth.

func (h *Handler) cacheGet(ctx context.Context, key string) (string, bool) {
	if h.Redis == nil {
		return "", false
	}
	s, err := h.Redis.Get(ctx, key).Result()
	return s, err == nil && s != ""
}

func (h *Handler) cacheSet(ctx context.Context, key, val string, ttl time.Duration) {
	if h.Redis == nil {
		return
	}
	_ = h.Redis.Set(ctx, key, val, ttl).Err()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
