package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-qris-orderbot/internal/midtrans"
	"github.com/ariefcatur/go-qris-orderbot/internal/payment"
)

const maxNotificationBytes = 1 << 20

// NotificationProcessor: payment.Service.
type NotificationProcessor interface {
	HandleNotification(ctx context.Context, n midtrans.Notification) (payment.Outcome, error)
}

// WebhookHandler menerima HTTP notification Midtrans.
//
//	403 signature salah
//	400 body bukan JSON
//	500 kegagalan internal (Midtrans akan retry)
//	200 {"status":"ok"} untuk sisanya, termasuk status yang diabaikan
type WebhookHandler struct {
	Payments NotificationProcessor
	Log      *zap.Logger
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/webhook/midtrans", h.midtrans)
}

func (h *WebhookHandler) midtrans(w http.ResponseWriter, r *http.Request) {
	var n midtrans.Notification
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNotificationBytes)).Decode(&n); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
		return
	}

	out, err := h.Payments.HandleNotification(r.Context(), n)
	switch {
	case errors.Is(err, payment.ErrInvalidSignature):
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Invalid signature"})
		return
	case err != nil:
		h.log().Error("webhook processing failed", zap.String("order_id", n.OrderID), zap.Error(err))
		// detail ikut dikirim supaya terlihat di dashboard Midtrans
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	h.log().Debug("webhook processed", zap.String("order_id", n.OrderID), zap.String("outcome", string(out)))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WebhookHandler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}
