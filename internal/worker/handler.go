package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mealkitshop/order-core/internal/domain"
)

// NotificationHandler turns order lifecycle events into member emails.
// It is read-only with respect to the order core: stock and points are
// settled inside the creation/cancel transactions before any event is
// published.
type NotificationHandler struct {
	ordersServiceURL string
	emailServiceURL  string
	httpClient       *http.Client
	logger           *slog.Logger
}

func NewNotificationHandler(ordersServiceURL, emailServiceURL string, client *http.Client, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		ordersServiceURL: ordersServiceURL,
		emailServiceURL:  emailServiceURL,
		httpClient:       client,
		logger:           logger,
	}
}

func (h *NotificationHandler) HandleOrderCreated(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.Info("processing order created event", "order_id", event.OrderID, "member_id", event.MemberID)

	order, err := h.fetchOrder(ctx, event.OrderID, event.MemberID)
	if err != nil {
		return fmt.Errorf("fetch order %s: %w", event.OrderID, err)
	}

	body := fmt.Sprintf("%s, your order %s with %d items was received. Amount due: %d.",
		order.ReceiverName, order.OrderNo, len(order.Lines), order.PayableAmount)
	if event.PaymentMethod.Deferred() {
		body += " We will start preparing it as soon as your payment is confirmed."
	}

	return h.sendEmail(ctx, event.MemberID, "Order received: "+event.OrderNo, body)
}

func (h *NotificationHandler) HandleOrderCanceled(ctx context.Context, payload []byte) error {
	var event domain.OrderCanceledEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order canceled event: %w", err)
	}

	h.logger.Info("processing order canceled event", "order_id", event.OrderID, "member_id", event.MemberID)

	body := fmt.Sprintf("Your order %s has been canceled.", event.OrderNo)
	if event.PointsRefunded > 0 {
		body += fmt.Sprintf(" %d points were returned to your balance.", event.PointsRefunded)
	}

	return h.sendEmail(ctx, event.MemberID, "Order canceled: "+event.OrderNo, body)
}

func (h *NotificationHandler) HandleRefundRequested(ctx context.Context, payload []byte) error {
	var event domain.RefundRequestedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal refund requested event: %w", err)
	}

	h.logger.Info("processing refund requested event", "order_id", event.OrderID, "member_id", event.MemberID)

	body := fmt.Sprintf("We received your refund request for order %s (reason: %s). An administrator will review it shortly.",
		event.OrderNo, event.ReasonCode)

	return h.sendEmail(ctx, event.MemberID, "Refund request received: "+event.OrderNo, body)
}

func (h *NotificationHandler) fetchOrder(ctx context.Context, orderID, memberID string) (*domain.Order, error) {
	url := fmt.Sprintf("%s/orders/%s?member_id=%s", h.ordersServiceURL, orderID, memberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("orders service returned status %d", resp.StatusCode)
	}

	order := &domain.Order{}
	if err := json.NewDecoder(resp.Body).Decode(order); err != nil {
		return nil, err
	}
	return order, nil
}

func (h *NotificationHandler) sendEmail(ctx context.Context, memberID, subject, body string) error {
	payload := map[string]string{
		"to":      memberID + "@example.com",
		"subject": subject,
		"body":    body,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
