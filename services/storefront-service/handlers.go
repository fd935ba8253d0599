package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/suran0330/kicholgy-sub001/internal/auth"
	"github.com/suran0330/kicholgy-sub001/internal/cart"
	"github.com/suran0330/kicholgy-sub001/internal/catalog"
)

// ---------------------------------------------------------------------------
// Cart
// ---------------------------------------------------------------------------

type addItemRequest struct {
	ProductID string `json:"productId"`
	Handle    string `json:"handle"`
	Quantity  int    `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type cartSummary struct {
	ItemCount         int     `json:"itemCount"`
	Subtotal          float64 `json:"subtotal"`
	FormattedSubtotal string  `json:"formattedSubtotal"`
}

type cartResponse struct {
	Cart    cart.State  `json:"cart"`
	Summary cartSummary `json:"summary"`
}

func summarize(c *cart.Cart) cartSummary {
	subtotal := c.Subtotal()
	return cartSummary{
		ItemCount:         c.ItemCount(),
		Subtotal:          subtotal,
		FormattedSubtotal: catalog.FormatPrice(subtotal),
	}
}

func writeCart(w http.ResponseWriter, code int, c *cart.Cart, st cart.State) {
	writeJSON(w, code, cartResponse{Cart: st, Summary: summarize(c)})
}

func (s *server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c := sessionFrom(r).cart
	writeCart(w, http.StatusOK, c, c.State())
}

func (s *server) handleCartSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, summarize(sessionFrom(r).cart))
}

func (s *server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	c := sessionFrom(r).cart
	writeCart(w, http.StatusOK, c, c.Clear(r.Context()))
}

func (s *server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ProductID) == "" && strings.TrimSpace(req.Handle) == "" {
		writeError(w, http.StatusBadRequest, "productId or handle is required")
		return
	}
	p, err := s.resolveProduct(r.Context(), strings.TrimSpace(req.ProductID), req.Handle)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	c := sessionFrom(r).cart
	writeCart(w, http.StatusOK, c, c.Add(r.Context(), p, req.Quantity))
}

func (s *server) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}
	c := sessionFrom(r).cart
	writeCart(w, http.StatusOK, c, c.SetQuantity(r.Context(), chi.URLParam(r, "id"), *req.Quantity))
}

func (s *server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	c := sessionFrom(r).cart
	writeCart(w, http.StatusOK, c, c.Remove(r.Context(), chi.URLParam(r, "id")))
}

func (s *server) handleCartVisibility(w http.ResponseWriter, r *http.Request) {
	c := sessionFrom(r).cart
	var st cart.State
	switch r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:] {
	case "open":
		st = c.Open(r.Context())
	case "close":
		st = c.Close(r.Context())
	default:
		st = c.Toggle(r.Context())
	}
	writeCart(w, http.StatusOK, c, st)
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (s *server) handleAuthState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).auth.State())
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess := sessionFrom(r).auth
	if err := sess.Login(r.Context(), req.Email, req.Password); err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	sess := sessionFrom(r).auth
	if err := sess.Signup(r.Context(), req.Email, req.Password, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)); err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.State())
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).auth.Logout(r.Context()))
}

// handleUpdateUser replaces the signed-in user's profile. The id and order
// history cannot be changed through it.
func (s *server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r).auth
	current := sess.State()
	if !current.IsAuthenticated() {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	var u auth.User
	if err := decodeJSON(r, &u); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u.ID = current.User.ID
	u.Orders = current.User.Orders
	writeJSON(w, http.StatusOK, sess.UpdateUser(r.Context(), u))
}

func (s *server) handleModal(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r).auth
	ctx := r.Context()
	var st auth.State
	switch chi.URLParam(r, "name") + "/" + chi.URLParam(r, "action") {
	case "login/open":
		st = sess.OpenLogin(ctx)
	case "login/close":
		st = sess.CloseLogin(ctx)
	case "signup/open":
		st = sess.OpenSignup(ctx)
	case "signup/close":
		st = sess.CloseSignup(ctx)
	default:
		writeError(w, http.StatusNotFound, "unknown modal action")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, auth.ErrBusy):
		writeError(w, http.StatusConflict, "authentication already in progress")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusRequestTimeout, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
