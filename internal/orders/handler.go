package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mealkitshop/order-core/internal/domain"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type createOrderRequest struct {
	MemberID      string               `json:"member_id"`
	CartLineIDs   []string             `json:"cart_line_ids"`
	AddressID     string               `json:"address_id"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MemberID == "" {
		h.writeError(w, http.StatusBadRequest, "missing member id")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), CreateOrderInput{
		MemberID:      req.MemberID,
		CartLineIDs:   req.CartLineIDs,
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.writeServiceError(w, err, "failed to create order")
		return
	}

	h.writeJSON(w, http.StatusCreated, order)
}

type previewRequest struct {
	MemberID    string   `json:"member_id"`
	CartLineIDs []string `json:"cart_line_ids"`
	AddressID   string   `json:"address_id"`
}

func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MemberID == "" {
		h.writeError(w, http.StatusBadRequest, "missing member id")
		return
	}

	preview, err := h.service.PreviewCheckout(r.Context(), req.MemberID, req.CartLineIDs, req.AddressID)
	if err != nil {
		h.writeServiceError(w, err, "failed to preview checkout")
		return
	}

	h.writeJSON(w, http.StatusOK, preview)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	memberID := r.URL.Query().Get("member_id")
	if id == "" || memberID == "" {
		h.writeError(w, http.StatusBadRequest, "missing order or member id")
		return
	}

	order, err := h.service.OrderDetail(r.Context(), id, memberID)
	if err != nil {
		h.writeServiceError(w, err, "failed to get order")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	memberID := r.URL.Query().Get("member_id")
	if memberID == "" {
		h.writeError(w, http.StatusBadRequest, "missing member id")
		return
	}

	var (
		list []domain.Order
		err  error
	)
	switch r.URL.Query().Get("view") {
	case "recent":
		list, err = h.service.RecentOrders(r.Context(), memberID)
	case "canceled":
		list, err = h.service.CanceledOrders(r.Context(), memberID)
	default:
		list, err = h.service.Orders(r.Context(), memberID)
	}
	if err != nil {
		h.writeServiceError(w, err, "failed to list orders")
		return
	}

	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	if err := h.service.ConfirmDeferredPayment(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "failed to confirm payment")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.OrderStatusPreparing)})
}

type cancelRequest struct {
	MemberID string `json:"member_id"`
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MemberID == "" {
		h.writeError(w, http.StatusBadRequest, "missing member id")
		return
	}

	if err := h.service.CancelOrder(r.Context(), id, req.MemberID); err != nil {
		h.writeServiceError(w, err, "failed to cancel order")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.OrderStatusCanceled)})
}

type refundRequest struct {
	MemberID     string              `json:"member_id"`
	ReasonCode   domain.RefundReason `json:"reason_code"`
	ReasonDetail string              `json:"reason_detail"`
}

func (h *Handler) HandleRequestRefund(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MemberID == "" {
		h.writeError(w, http.StatusBadRequest, "missing member id")
		return
	}

	refund, err := h.service.RequestRefund(r.Context(), id, req.MemberID, req.ReasonCode, req.ReasonDetail)
	if err != nil {
		h.writeServiceError(w, err, "failed to request refund")
		return
	}

	h.writeJSON(w, http.StatusCreated, refund)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.SetStatus(r.Context(), id, req.Status); err != nil {
		h.writeServiceError(w, err, "failed to update order status")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

func (h *Handler) HandleListRefunds(w http.ResponseWriter, r *http.Request) {
	memberID := r.URL.Query().Get("member_id")
	if memberID == "" {
		h.writeError(w, http.StatusBadRequest, "missing member id")
		return
	}

	list, err := h.service.Refunds(r.Context(), memberID)
	if err != nil {
		h.writeServiceError(w, err, "failed to list refunds")
		return
	}

	h.writeJSON(w, http.StatusOK, list)
}

// statusForError maps the business error taxonomy onto HTTP statuses:
// validation 400, not found 404, ownership 403, conflicts and illegal
// transitions 409, everything else 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrNoShippingAddress),
		errors.Is(err, domain.ErrUnsupportedPayment),
		errors.Is(err, domain.ErrUnknownRefundReason):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrInsufficientPoints),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, logMessage string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(logMessage, "error", err)
		h.writeError(w, status, "internal server error")
		return
	}
	h.writeError(w, status, err.Error())
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
