// Package controllers translates HTTP requests into service calls and
// service results into response envelopes. No business rules live here.
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/modernhardware/api/app/services"
	"github.com/modernhardware/api/pkg/logger"
	"github.com/modernhardware/api/pkg/response"
)

// paramID reads a numeric URL parameter.
func paramID(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// queryInt reads an integer query parameter with a fallback.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// queryInt64 reads an int64 query parameter with a fallback.
func queryInt64(r *http.Request, name string, def int64) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// fail maps service errors onto the response envelope.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *services.InsufficientStockError
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.NotFound(w)
	case errors.Is(err, services.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrEmailTaken):
		response.Error(w, http.StatusConflict, "Email is already registered")
	case errors.Is(err, services.ErrEmptyCart):
		response.Error(w, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, services.ErrNotMpesaOrder):
		response.Error(w, http.StatusBadRequest, "Order has no M-Pesa payment to verify")
	case errors.As(err, &stockErr):
		response.Error(w, http.StatusBadRequest, stockErr.Error())
	default:
		logger.WithCtx(r.Context()).Error("request failed", "error", err)
		response.Internal(w)
	}
}
