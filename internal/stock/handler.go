package stock

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mealkitshop/order-core/internal/domain"
)

type Handler struct {
	ledger *Ledger
	logger *slog.Logger
}

func NewHandler(ledger *Ledger, logger *slog.Logger) *Handler {
	return &Handler{
		ledger: ledger,
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	levels, err := h.ledger.ListLevels(r.Context())
	if err != nil {
		h.logger.Error("failed to list stock", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, levels)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("itemId")
	if itemID == "" {
		h.writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	level, err := h.ledger.GetLevel(r.Context(), itemID)
	if err != nil {
		h.logger.Error("failed to get stock", "error", err, "item_id", itemID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if level == nil {
		h.writeError(w, http.StatusNotFound, "item not found")
		return
	}

	h.writeJSON(w, http.StatusOK, level)
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

// HandleRestock is the administrative entry point for adding stock.
// Decrements have no HTTP surface: they only happen inside the order
// creation transaction.
func (h *Handler) HandleRestock(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("itemId")
	if itemID == "" {
		h.writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Quantity < 1 {
		h.writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	if err := h.ledger.Increase(r.Context(), itemID, req.Quantity); err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			h.writeError(w, http.StatusNotFound, "item not found")
			return
		}
		h.logger.Error("failed to restock", "error", err, "item_id", itemID, "quantity", req.Quantity)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	level, err := h.ledger.GetLevel(r.Context(), itemID)
	if err != nil {
		h.logger.Error("failed to get updated stock", "error", err, "item_id", itemID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("stock increased", "item_id", itemID, "quantity", req.Quantity)
	h.writeJSON(w, http.StatusOK, level)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
