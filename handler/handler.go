package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	models "storefront/model"
	"storefront/service"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// Handler is the HTTP layer that talks to service.Service
type Handler struct {
	svc    service.ServiceInterface
	secret []byte
	log    *slog.Logger
}

// NewHandler returns a Handler that verifies bearer tokens with secret.
func NewHandler(s service.ServiceInterface, secret []byte, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: s, secret: secret, log: log}
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Use(h.logRequests)
	r.HandleFunc("/healthz", h.Health).Methods("GET")

	r.HandleFunc("/products/{id:[0-9]+}", h.authed(h.GetProduct)).Methods("GET")

	// Cart
	r.HandleFunc("/cart/add", h.authed(h.AddItem)).Methods("POST")
	r.HandleFunc("/cart/update", h.authed(h.UpdateQuantity)).Methods("POST")
	r.HandleFunc("/cart/remove", h.authed(h.RemoveItem)).Methods("POST")
	r.HandleFunc("/cart/list", h.authed(h.ListCart)).Methods("GET")

	// Checkout
	r.HandleFunc("/checkout/quote", h.authed(h.Quote)).Methods("GET")
	r.HandleFunc("/checkout/order", h.authed(h.CreateOrder)).Methods("POST")

	// Orders
	r.HandleFunc("/orders/list", h.authed(h.ListOrders)).Methods("GET")
	r.HandleFunc("/orders/{id:[0-9]+}", h.authed(h.GetOrder)).Methods("GET")

	// Admin
	r.HandleFunc("/admin/products", h.admin(h.CreateProduct)).Methods("POST")
	r.HandleFunc("/admin/products/stock", h.admin(h.UpdateStock)).Methods("POST")
	r.HandleFunc("/admin/orders/{id:[0-9]+}/status", h.admin(h.UpdateOrderStatus)).Methods("POST")
}

// --- request / response shapes ---
type cartItemReq struct {
	ProductID int64 `json:"product_id"`
	LineID    int64 `json:"line_id"`
	Quantity  int   `json:"quantity,omitempty"` // unused for remove
}

type createProductReq struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Image       string              `json:"image,omitempty"`
	Price       decimal.Decimal     `json:"price"`
	SalePrice   decimal.NullDecimal `json:"sale_price"`
	Stock       int                 `json:"stock"`
}

type updateStockReq struct {
	ProductID int64 `json:"product_id"`
	NewStock  int   `json:"new_stock"`
}

// --- helpers ---
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

// --- Handler ---

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetProduct handles GET /products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// AddItem handles POST /cart/add
// body: { "product_id": 1, "quantity": 2 }
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.AddItem(r.Context(), userID(r), req.ProductID, req.Quantity); err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

// UpdateQuantity handles POST /cart/update
// body: { "line_id": 4, "quantity": 3 }
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.UpdateQuantity(r.Context(), userID(r), req.LineID, req.Quantity); err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// RemoveItem handles POST /cart/remove
// body: { "line_id": 4 }
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.RemoveItem(r.Context(), userID(r), req.LineID); err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ListCart handles GET /cart/list
func (h *Handler) ListCart(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.GetCart(r.Context(), userID(r))
	if err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Quote handles GET /checkout/quote
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Quote(r.Context(), userID(r))
	if err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// CreateOrder handles POST /checkout/order
// body: { "shipping_address": "...", "billing_address": "...", "payment_method": "cod" }
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.OrderRequest
	if !decode(w, r, &req) {
		return
	}
	o, err := h.svc.CreateOrder(r.Context(), userID(r), req)
	if err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// ListOrders handles GET /orders/list
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListOrders(r.Context(), userID(r))
	if err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrder handles GET /orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := h.svc.GetOrder(r.Context(), userID(r), id)
	if err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// CreateProduct handles POST /admin/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if !decode(w, r, &req) {
		return
	}
	id, err := h.svc.CreateProduct(r.Context(), models.Product{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		Price:       req.Price,
		SalePrice:   req.SalePrice,
		Stock:       req.Stock,
	})
	if err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// UpdateStock handles POST /admin/products/stock
// body: { "product_id": 1, "new_stock": 20 }
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var req updateStockReq
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.UpdateStock(r.Context(), req.ProductID, req.NewStock); err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// UpdateOrderStatus handles POST /admin/orders/{id}/status
// body: { "order_status": "shipped", "payment_status": "paid", "tracking_number": "..." }
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req service.StatusRequest
	if !decode(w, r, &req) {
		return
	}
	o, err := h.svc.UpdateOrderStatus(r.Context(), id, req)
	if err != nil {
		h.writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
