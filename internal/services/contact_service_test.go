package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func contactInput() models.ContactInput {
	return models.ContactInput{
		Name:    " Putri Ayu ",
		Email:   "putri@example.com",
		Subject: "Corporate event",
		Message: "Do you have a venue for 300 people in Bali next month?",
	}
}

func TestContactSend(t *testing.T) {
	mail := &recordingMailer{}
	cs := NewContactService(ratelimit.NewMemoryLimiter(2, time.Hour), mail, "support@venuely.id", discardLogger())
	ctx := context.Background()

	require.NoError(t, cs.Send(ctx, "10.0.0.1", contactInput()))
	sent := mail.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"support@venuely.id"}, sent[0].To)
	assert.Equal(t, "putri@example.com", sent[0].ReplyTo)
	assert.Equal(t, "[Contact] Corporate event", sent[0].Subject)
	assert.Contains(t, sent[0].Text, "From: Putri Ayu <putri@example.com>")
	assert.Contains(t, sent[0].HTML, "300 people in Bali")

	require.NoError(t, cs.Send(ctx, "10.0.0.1", contactInput()))
	assert.ErrorIs(t, cs.Send(ctx, "10.0.0.1", contactInput()), models.ErrRateLimited)
	assert.NoError(t, cs.Send(ctx, "10.0.0.2", contactInput()), "limits are per client")
}

func TestContactValidation(t *testing.T) {
	mail := &recordingMailer{}
	cs := NewContactService(ratelimit.NewMemoryLimiter(5, time.Hour), mail, "support@venuely.id", discardLogger())

	in := contactInput()
	in.Email = "not-an-email"
	in.Message = "   hi   "
	err := cs.Send(context.Background(), "10.0.0.1", in)
	var fields models.FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "message")
	assert.Empty(t, mail.messages())
}

func TestContactLimiterFailsOpen(t *testing.T) {
	mail := &recordingMailer{}
	cs := NewContactService(brokenLimiter{}, mail, "support@venuely.id", discardLogger())
	require.NoError(t, cs.Send(context.Background(), "10.0.0.1", contactInput()))
	assert.Len(t, mail.messages(), 1)
}

func TestContactMailFailure(t *testing.T) {
	mail := &recordingMailer{err: errors.New("smtp: 421")}
	cs := NewContactService(ratelimit.NewMemoryLimiter(5, time.Hour), mail, "support@venuely.id", discardLogger())
	err := cs.Send(context.Background(), "10.0.0.1", contactInput())
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrRateLimited)
}
