package mailer

import (
	"context"
	"encoding/base64"

	"github.com/cockroachdb/errors"
	"github.com/mailjet/mailjet-apiv3-go"
)

type MailjetMailer struct {
	client   *mailjet.Client
	from     string
	fromName string
}

func NewMailjetMailer(publicKey, privateKey, from, fromName string) *MailjetMailer {
	return &MailjetMailer{
		client:   mailjet.NewMailjetClient(publicKey, privateKey),
		from:     from,
		fromName: fromName,
	}
}

func (m *MailjetMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info := buildMailjetMessage(m.from, m.fromName, msg)
	if _, err := m.client.SendMailV31(&mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{info}}); err != nil {
		return errors.Wrap(err, "mailjet send")
	}
	return nil
}

func buildMailjetMessage(from, fromName string, msg Message) mailjet.InfoMessagesV31 {
	to := make(mailjet.RecipientsV31, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, mailjet.RecipientV31{Email: addr})
	}

	info := mailjet.InfoMessagesV31{
		From:     &mailjet.RecipientV31{Email: from, Name: fromName},
		To:       &to,
		Subject:  msg.Subject,
		TextPart: msg.Text,
		HTMLPart: msg.HTML,
	}
	if msg.ReplyTo != "" {
		info.ReplyTo = &mailjet.RecipientV31{Email: msg.ReplyTo}
	}
	if len(msg.Attachments) > 0 {
		atts := make(mailjet.AttachmentsV31, 0, len(msg.Attachments))
		for _, a := range msg.Attachments {
			atts = append(atts, mailjet.AttachmentV31{
				ContentType:   a.ContentType,
				Filename:      a.Filename,
				Base64Content: base64.StdEncoding.EncodeToString(a.Data),
			})
		}
		info.Attachments = &atts
	}
	return info
}
