package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/joshua-takyi/venuely/internal/invoice"
	"github.com/joshua-takyi/venuely/internal/mailer"
	"github.com/joshua-takyi/venuely/internal/metrics"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/payment"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	invoiceSendTimeout     = time.Minute
	notificationLogTimeout = 5 * time.Second
)

type PaymentSettings struct {
	ServerKey     string
	VerifyWithAPI bool
	Currency      string
}

type PaymentService struct {
	bookingsRepo  models.BookingsRepo
	notifications models.PaymentNotificationRepo
	gateway       payment.Gateway
	mailer        mailer.Mailer
	settings      PaymentSettings
	logger        *slog.Logger
	now           func() time.Time
	wg            sync.WaitGroup
}

// NewPaymentService builds the webhook processor. notifications may be nil
// when no document store is configured.
func NewPaymentService(bookingsRepo models.BookingsRepo, notifications models.PaymentNotificationRepo, gateway payment.Gateway, m mailer.Mailer, settings PaymentSettings, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		bookingsRepo:  bookingsRepo,
		notifications: notifications,
		gateway:       gateway,
		mailer:        m,
		settings:      settings,
		logger:        logger,
		now:           time.Now,
	}
}

// NotificationResult reports what a webhook call did to its booking.
type NotificationResult struct {
	OrderID string               `json:"order_id"`
	Outcome payment.Outcome      `json:"outcome,omitempty"`
	Status  models.BookingStatus `json:"status,omitempty"`
	Changed bool                 `json:"changed"`
	Ignored bool                 `json:"ignored,omitempty"`
}

// HandleNotification verifies and applies one gateway callback. A transition
// into SUCCESS queues the invoice email; its failures are only logged.
func (ps *PaymentService) HandleNotification(ctx context.Context, body []byte) (*NotificationResult, error) {
	var n payment.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, models.NewFieldError("body", "must be a valid payment notification")
	}
	missing := models.FieldErrors{}
	if strings.TrimSpace(n.OrderID) == "" {
		missing["order_id"] = "is required"
	}
	if strings.TrimSpace(n.TransactionStatus) == "" {
		missing["transaction_status"] = "is required"
	}
	if len(missing) > 0 {
		return nil, missing
	}
	if !payment.VerifySignature(n, ps.settings.ServerKey) {
		ps.logger.Warn("payment notification with bad signature", "order_id", n.OrderID)
		return nil, models.ErrInvalidSignature
	}

	var raw bson.M
	_ = json.Unmarshal(body, &raw)
	entry := &models.PaymentNotification{
		OrderID:           n.OrderID,
		TransactionStatus: n.TransactionStatus,
		FraudStatus:       n.FraudStatus,
		Payload:           raw,
		ReceivedAt:        ps.now().UTC(),
	}

	result, err := ps.apply(ctx, n, entry)
	if err != nil {
		entry.Error = err.Error()
	}
	ps.record(ctx, entry)
	return result, err
}

func (ps *PaymentService) apply(ctx context.Context, n payment.Notification, entry *models.PaymentNotification) (*NotificationResult, error) {
	if ps.settings.VerifyWithAPI {
		status, err := ps.gateway.TransactionStatus(ctx, n.OrderID)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "verify transaction status"), models.ErrPaymentGateway)
		}
		n.TransactionStatus = status.TransactionStatus
		n.FraudStatus = status.FraudStatus
		if status.PaymentType != "" {
			n.PaymentType = status.PaymentType
		}
		if status.TransactionID != "" {
			n.TransactionID = status.TransactionID
		}
		entry.TransactionStatus = n.TransactionStatus
		entry.FraudStatus = n.FraudStatus
	}

	result := &NotificationResult{OrderID: n.OrderID}
	outcome, ok := payment.ResolveOutcome(n.TransactionStatus, n.FraudStatus)
	if !ok {
		ps.logger.Info("payment notification ignored",
			"order_id", n.OrderID,
			"transaction_status", n.TransactionStatus,
		)
		result.Ignored = true
		entry.Outcome = "IGNORED"
		return result, nil
	}
	result.Outcome = outcome
	entry.Outcome = string(outcome)

	id, err := uuid.Parse(n.OrderID)
	if err != nil {
		return nil, models.ErrBookingNotFound
	}

	booking, changed, err := ps.bookingsRepo.UpdateBookingStatus(ctx, id, models.BookingStatusUpdate{
		Status:        models.BookingStatus(outcome),
		PaymentType:   n.PaymentType,
		TransactionID: n.TransactionID,
		At:            ps.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	result.Status = booking.Status
	result.Changed = changed
	entry.Changed = changed

	ps.logger.Info("payment notification applied",
		"order_id", n.OrderID,
		"transaction_status", n.TransactionStatus,
		"fraud_status", n.FraudStatus,
		"outcome", outcome,
		"status", booking.Status,
		"changed", changed,
	)

	if changed {
		metrics.IncBookingStatus(string(booking.Status))
		if booking.Status == models.BookingSuccess {
			ps.wg.Add(1)
			go func() {
				defer ps.wg.Done()
				sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invoiceSendTimeout)
				defer cancel()
				ps.sendInvoice(sendCtx, booking)
			}()
		}
	}
	return result, nil
}

// Wait blocks until queued invoice emails are done.
func (ps *PaymentService) Wait() {
	ps.wg.Wait()
}

func (ps *PaymentService) sendInvoice(ctx context.Context, b *models.Booking) {
	err := ps.deliverInvoice(ctx, b)
	metrics.IncEmail("invoice", err)
	if err != nil {
		ps.logger.Error("failed to send invoice", "booking_id", b.ID, "error", err)
		return
	}
	if err := ps.bookingsRepo.MarkInvoiceSent(ctx, b.ID, ps.now().UTC()); err != nil {
		ps.logger.Error("failed to mark invoice as sent", "booking_id", b.ID, "error", err)
		return
	}
	ps.logger.Info("invoice sent", "booking_id", b.ID, "to", b.RenterEmail)
}

func (ps *PaymentService) deliverInvoice(ctx context.Context, b *models.Booking) error {
	inv := bookingInvoice(b, ps.settings.Currency)
	pdf, err := invoice.Render(inv)
	if err != nil {
		return err
	}
	msg, err := invoiceMessage(b, inv, pdf)
	if err != nil {
		return err
	}
	return ps.mailer.Send(ctx, msg)
}

func (ps *PaymentService) record(ctx context.Context, entry *models.PaymentNotification) {
	if ps.notifications == nil {
		return
	}
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationLogTimeout)
	defer cancel()
	if err := ps.notifications.LogPaymentNotification(logCtx, entry); err != nil {
		ps.logger.Warn("failed to log payment notification", "order_id", entry.OrderID, "error", err)
	}
}

// NotificationHistory returns the logged callbacks of one order, newest first.
func (ps *PaymentService) NotificationHistory(ctx context.Context, orderID string, limit int) ([]*models.PaymentNotification, error) {
	if ps.notifications == nil {
		return nil, models.ErrFeatureDisabled
	}
	_, limit = clampPage(0, limit)
	return ps.notifications.ListPaymentNotifications(ctx, orderID, limit)
}
