package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"foodcourt/app-svc/internal/domain"
	"foodcourt/app-svc/internal/metrics"
	"foodcourt/app-svc/internal/service"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Session *service.SessionManager
	Catalog *service.Catalog
	Cart    *service.Cart
	QR      service.QRGenerator
	Hub     *OrderHub
	Logger  *logrus.Logger
}

func NewHandler(session *service.SessionManager, catalog *service.Catalog, cart *service.Cart, qr service.QRGenerator, hub *OrderHub, logger *logrus.Logger) *Handler {
	return &Handler{
		Session: session,
		Catalog: catalog,
		Cart:    cart,
		QR:      qr,
		Hub:     hub,
		Logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	r.HandleFunc("/api/session", h.getSession).Methods("GET")
	r.HandleFunc("/api/session/signin", h.signIn).Methods("POST")
	r.HandleFunc("/api/session/signup", h.signUp).Methods("POST")
	r.HandleFunc("/api/session/signout", h.signOut).Methods("POST")
	r.HandleFunc("/api/session/profile", h.authed(h.updateProfile)).Methods("PATCH")

	r.HandleFunc("/api/restaurants", h.getRestaurants).Methods("GET")
	r.HandleFunc("/api/restaurants", h.admin(h.createRestaurant)).Methods("POST")
	r.HandleFunc("/api/restaurants/{id}", h.admin(h.updateRestaurant)).Methods("PUT")
	r.HandleFunc("/api/restaurants/{id}", h.admin(h.deleteRestaurant)).Methods("DELETE")
	r.HandleFunc("/api/restaurants/{id}/menu", h.getRestaurantMenu).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}/foods", h.admin(h.createFood)).Methods("POST")

	r.HandleFunc("/api/categories", h.getCategories).Methods("GET")
	r.HandleFunc("/api/categories", h.admin(h.createCategory)).Methods("POST")
	r.HandleFunc("/api/categories/{id}", h.admin(h.updateCategory)).Methods("PUT")
	r.HandleFunc("/api/categories/{id}", h.admin(h.deleteCategory)).Methods("DELETE")

	r.HandleFunc("/api/foods", h.getFoods).Methods("GET")
	r.HandleFunc("/api/foods/{id}", h.admin(h.updateFood)).Methods("PUT")
	r.HandleFunc("/api/foods/{id}", h.admin(h.deleteFood)).Methods("DELETE")
	r.HandleFunc("/api/search", h.search).Methods("GET")

	r.HandleFunc("/api/users", h.admin(h.getUsers)).Methods("GET")
	r.HandleFunc("/api/users/{id}/status", h.admin(h.setUserStatus)).Methods("PATCH")
	r.HandleFunc("/api/dashboard", h.admin(h.getDashboard)).Methods("GET")

	r.HandleFunc("/api/cart", h.getCart).Methods("GET")
	r.HandleFunc("/api/cart", h.clearCart).Methods("DELETE")
	r.HandleFunc("/api/cart/items", h.addCartItem).Methods("POST")
	r.HandleFunc("/api/cart/items/{id}", h.updateCartItem).Methods("PUT")
	r.HandleFunc("/api/cart/items/{id}", h.removeCartItem).Methods("DELETE")
	r.HandleFunc("/api/cart/checkout", h.authed(h.checkout)).Methods("POST")

	r.HandleFunc("/api/orders", h.authed(h.getOrders)).Methods("GET")
	r.HandleFunc("/api/orders/{id}/status", h.admin(h.updateOrderStatus)).Methods("PUT")
	r.HandleFunc("/api/orders/{id}/qrcode", h.authed(h.getOrderQRCode)).Methods("GET")

	if h.Hub != nil {
		r.HandleFunc("/ws/orders", h.authed(h.Hub.HandleWebSocket)).Methods("GET")
	}
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "app-svc",
		"session":   h.Session.State().Status,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAccountDisabled), errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Error("request failed")
	}
	http.Error(w, err.Error(), status)
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(domain.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.Session.Identity() == nil {
			h.writeError(w, r, domain.ErrNotAuthenticated)
			return
		}
		next(w, r)
	}
}

func (h *Handler) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := h.Session.Identity()
		if identity == nil {
			h.writeError(w, r, domain.ErrNotAuthenticated)
			return
		}
		if !identity.IsAdmin() {
			h.writeError(w, r, domain.ErrForbidden)
			return
		}
		next(w, r)
	}
}

type sessionResponse struct {
	service.SessionState
	Redirect string `json:"redirect,omitempty"`
}

// getSession reports the state and, when ?group= is given, where a client
// in that route group must be sent.
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	state := h.Session.State()
	response := sessionResponse{SessionState: state}
	if group := r.URL.Query().Get("group"); group != "" {
		if target, redirect := service.ResolveRoute(state, service.RouteGroup(group)); redirect {
			response.Redirect = target
		}
	}
	writeJSON(w, http.StatusOK, response)
}

type credentialsRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role"`
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Session.SignIn(r.Context(), req.Email, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Session.State())
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Session.SignUp(r.Context(), req.Email, req.Password, req.Name, req.Role); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.Session.State())
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.SignOut(r.Context()); err != nil {
		h.Logger.WithError(err).Warn("sign out")
	}
	writeJSON(w, http.StatusOK, h.Session.State())
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProfilePatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Session.UpdateProfile(r.Context(), patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Session.State())
}

func (h *Handler) getRestaurants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Catalog.Restaurants()))
}

func (h *Handler) getRestaurantMenu(w http.ResponseWriter, r *http.Request) {
	foods, err := h.Catalog.FetchRestaurantMenu(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(foods))
}

// restaurantRequest takes categories as the comma separated text the admin
// form submits.
type restaurantRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Rating       *float64 `json:"rating"`
	Categories   *string  `json:"categories"`
	DeliveryTime *string  `json:"delivery_time"`
	Image        *string  `json:"image"`
	IsActive     *bool    `json:"is_active"`
}

func (req restaurantRequest) patch() domain.RestaurantPatch {
	patch := domain.RestaurantPatch{
		Name:         req.Name,
		Description:  req.Description,
		Rating:       req.Rating,
		DeliveryTime: req.DeliveryTime,
		Image:        req.Image,
		IsActive:     req.IsActive,
	}
	if req.Categories != nil {
		categories := domain.ParseCategories(*req.Categories)
		patch.Categories = &categories
	}
	return patch
}

func (h *Handler) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var req restaurantRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	var rest domain.Restaurant
	req.patch().Apply(&rest)

	id, err := h.Catalog.AddRestaurant(r.Context(), rest)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	var req restaurantRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Catalog.UpdateRestaurant(r.Context(), mux.Vars(r)["id"], req.patch()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteRestaurant(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createFood(w http.ResponseWriter, r *http.Request) {
	var food domain.FoodItem
	if err := decode(r, &food); err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := h.Catalog.AddMenuItem(r.Context(), mux.Vars(r)["id"], food)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) getFoods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Catalog.Foods()))
}

func (h *Handler) updateFood(w http.ResponseWriter, r *http.Request) {
	var patch domain.FoodPatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Catalog.UpdateMenuItem(r.Context(), mux.Vars(r)["id"], patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteFood(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteMenuItem(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Catalog.Categories()))
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var category domain.Category
	if err := decode(r, &category); err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := h.Catalog.AddCategory(r.Context(), category.Name, category.Icon)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var patch domain.CategoryPatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Catalog.UpdateCategory(r.Context(), mux.Vars(r)["id"], patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteCategory(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"restaurants": nonNil(h.Catalog.SearchRestaurants(query)),
		"foods":       nonNil(h.Catalog.SearchFoods(query)),
	})
}

func (h *Handler) getUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Catalog.Users()))
}

func (h *Handler) setUserStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.IsActive == nil {
		http.Error(w, "is_active is required", http.StatusBadRequest)
		return
	}
	if err := h.Catalog.ToggleUserStatus(r.Context(), mux.Vars(r)["id"], *req.IsActive); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.Stats())
}

type cartResponse struct {
	Items       []domain.CartEntry `json:"items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	TotalItems  int                `json:"total_items"`
}

func (h *Handler) cartState() cartResponse {
	return cartResponse{
		Items:       nonNil(h.Cart.Items()),
		TotalAmount: h.Cart.TotalAmount(),
		TotalItems:  h.Cart.TotalItems(),
	}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cartState())
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var entry domain.CartEntry
	if err := decode(r, &entry); err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.Cart.AddItem(entry); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartState())
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Cart.UpdateQuantity(mux.Vars(r)["id"], req.Quantity)
	writeJSON(w, http.StatusOK, h.cartState())
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	h.Cart.RemoveItem(mux.Vars(r)["id"])
	writeJSON(w, http.StatusOK, h.cartState())
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.Cart.ClearCart()
	writeJSON(w, http.StatusOK, h.cartState())
}

type placementResponse struct {
	RestaurantID string `json:"restaurant_id"`
	OrderID      string `json:"order_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

type checkoutResponse struct {
	Processed int                 `json:"processed"`
	Created   int                 `json:"created"`
	Failed    int                 `json:"failed"`
	Results   []placementResponse `json:"results"`
	Cart      cartResponse        `json:"cart"`
}

// checkout answers 201 when every restaurant's order was created and 207
// when only some were.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	results, err := h.Catalog.Checkout(r.Context(), h.Cart)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response := checkoutResponse{Processed: len(results), Results: make([]placementResponse, 0, len(results))}
	for _, result := range results {
		item := placementResponse{RestaurantID: result.RestaurantID, OrderID: result.OrderID}
		if result.OK() {
			response.Created++
		} else {
			response.Failed++
			item.Error = result.Err.Error()
		}
		response.Results = append(response.Results, item)
	}
	response.Cart = h.cartState()

	status := http.StatusCreated
	switch {
	case response.Created == 0:
		status = http.StatusBadGateway
	case response.Failed > 0:
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, response)
}

func (h *Handler) getOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Catalog.Orders()))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	status, err := domain.ParseOrderStatus(strings.TrimSpace(req.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Catalog.UpdateOrderStatus(r.Context(), mux.Vars(r)["id"], status); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getOrderQRCode only serves orders visible to the current identity.
func (h *Handler) getOrderQRCode(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]
	visible := false
	for _, order := range h.Catalog.Orders() {
		if order.ID == orderID {
			visible = true
			break
		}
	}
	if !visible {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	png, err := h.QR.Generate(orderID)
	if err != nil {
		h.Logger.WithError(err).WithField("order_id", orderID).Error("generate qr code")
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// nonNil keeps empty collections encoding as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
