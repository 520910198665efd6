package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/reksie/crosspay-cache/pkg/fxrates"
	"go.uber.org/zap"
)

type handlers struct {
	svc    *fxrates.Service
	logger *zap.Logger
}

type rateBody struct {
	Base  string  `json:"base"`
	Quote string  `json:"quote"`
	Rate  float64 `json:"rate"`
}

type convertBody struct {
	Base   string  `json:"base"`
	Quote  string  `json:"quote"`
	Amount float64 `json:"amount"`
	Result float64 `json:"result"`
}

func (h *handlers) rate(w http.ResponseWriter, r *http.Request) {
	base, quote := r.URL.Query().Get("base"), r.URL.Query().Get("quote")
	rate, err := h.svc.Rate(r.Context(), base, quote)
	if err != nil {
		h.fail(w, err)
		return
	}
	base, _ = fxrates.NormalizeCurrency(base)
	quote, _ = fxrates.NormalizeCurrency(quote)
	writeJSON(w, http.StatusOK, rateBody{Base: base, Quote: quote, Rate: rate})
}

func (h *handlers) convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be a number"})
		return
	}

	result, err := h.svc.Convert(r.Context(), amount, q.Get("base"), q.Get("quote"))
	if err != nil {
		h.fail(w, err)
		return
	}
	base, _ := fxrates.NormalizeCurrency(q.Get("base"))
	quote, _ := fxrates.NormalizeCurrency(q.Get("quote"))
	writeJSON(w, http.StatusOK, convertBody{Base: base, Quote: quote, Amount: amount, Result: result})
}

func (h *handlers) invalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Invalidate(r.Context(), r.URL.Query().Get("base"), r.URL.Query().Get("quote")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) fail(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, fxrates.ErrInvalidCurrency):
		status = http.StatusBadRequest
	case errors.Is(err, fxrates.ErrUnknownPair):
		status = http.StatusNotFound
	default:
		h.logger.Error("rate lookup failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
