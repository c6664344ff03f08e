package mailer

import (
	"bytes"
	"html/template"

	"github.com/cockroachdb/errors"
)

type InvoiceEmail struct {
	RenterName    string
	VenueName     string
	InvoiceNumber string
	Schedule      string
	Total         string
}

type ContactEmail struct {
	Name    string
	Email   string
	Subject string
	Message string
}

var templates = template.Must(template.New("invoice").Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<p>Hi {{.RenterName}},</p>
<p>Thanks for your payment. Your booking at <strong>{{.VenueName}}</strong> is confirmed.</p>
<table cellpadding="4">
<tr><td>Invoice</td><td>{{.InvoiceNumber}}</td></tr>
<tr><td>When</td><td>{{.Schedule}}</td></tr>
<tr><td>Total paid</td><td>{{.Total}}</td></tr>
</table>
<p>The invoice is attached as a PDF.</p>
</body></html>`))

var _ = template.Must(templates.New("contact").Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<p><strong>{{.Name}}</strong> &lt;{{.Email}}&gt; sent a message through the contact form.</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p style="white-space:pre-wrap">{{.Message}}</p>
</body></html>`))

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "render %s email", name)
	}
	return buf.String(), nil
}

func RenderInvoiceEmail(data InvoiceEmail) (string, error) {
	return render("invoice", data)
}

func RenderContactEmail(data ContactEmail) (string, error) {
	return render("contact", data)
}
