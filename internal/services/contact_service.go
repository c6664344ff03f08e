package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joshua-takyi/venuely/internal/mailer"
	"github.com/joshua-takyi/venuely/internal/metrics"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/ratelimit"
)

type ContactService struct {
	limiter   ratelimit.Limiter
	mailer    mailer.Mailer
	recipient string
	logger    *slog.Logger
}

func NewContactService(limiter ratelimit.Limiter, m mailer.Mailer, recipient string, logger *slog.Logger) *ContactService {
	return &ContactService{
		limiter:   limiter,
		mailer:    m,
		recipient: recipient,
		logger:    logger,
	}
}

// Send forwards a contact form message to the support inbox. clientKey
// identifies the sender for rate limiting. The limiter fails open.
func (cs *ContactService) Send(ctx context.Context, clientKey string, in models.ContactInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if err := models.ValidateStruct(in); err != nil {
		return err
	}

	allowed, err := cs.limiter.Allow(ctx, clientKey)
	if err != nil {
		cs.logger.Warn("contact rate limiter unavailable", "error", err)
	} else if !allowed {
		return models.ErrRateLimited
	}

	html, err := mailer.RenderContactEmail(mailer.ContactEmail{
		Name:    in.Name,
		Email:   in.Email,
		Subject: in.Subject,
		Message: in.Message,
	})
	if err != nil {
		return err
	}

	err = cs.mailer.Send(ctx, mailer.Message{
		To:      []string{cs.recipient},
		ReplyTo: in.Email,
		Subject: "[Contact] " + in.Subject,
		Text:    fmt.Sprintf("From: %s <%s>\nSubject: %s\n\n%s\n", in.Name, in.Email, in.Subject, in.Message),
		HTML:    html,
	})
	metrics.IncEmail("contact", err)
	if err != nil {
		return errors.Wrap(err, "send contact email")
	}

	cs.logger.Info("contact message sent", "from", in.Email)
	return nil
}
