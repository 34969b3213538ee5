package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

// TokenExchanger is what the handler needs from the client.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (json.RawMessage, error)
}

type tokenRequest struct {
	Code string `json:"code"`
}

type errorResponse struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}

// TokenHandler proxies the OAuth code exchange for browser clients.
type TokenHandler struct {
	exchanger TokenExchanger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(exchanger TokenExchanger) *TokenHandler {
	return &TokenHandler{exchanger: exchanger}
}

// HandleToken handles POST /api/token
func (h *TokenHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Code is missing"})
		return
	}

	token, err := h.exchanger.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			log.Error().
				Int("status", apiErr.StatusCode).
				RawJSON("details", apiErr.Body).
				Msg("failed to fetch Discord token")
			writeJSON(w, apiErr.StatusCode, errorResponse{
				Error:   "Failed to fetch Discord token",
				Details: apiErr.Body,
			})
			return
		}
		log.Error().Err(err).Msg("internal error during Discord token exchange")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(token); err != nil {
		log.Error().Err(err).Msg("failed to write token response")
	}
}

// RegisterRoutes registers the token route with an HTTP mux
func (h *TokenHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/token", h.HandleToken)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
