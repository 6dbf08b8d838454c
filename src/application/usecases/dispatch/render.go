package dispatch

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

const notificationTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Subject}}</title>
</head>
<body style="margin:0;padding:0;background:#f4f6f8;font-family:Arial,Helvetica,sans-serif;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center" style="padding:24px 12px;">
<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;overflow:hidden;">
<tr><td style="background:#1e3a8a;color:#ffffff;padding:24px;text-align:center;">
<h1 style="margin:0;font-size:22px;">{{.SchoolName}}</h1>
<p style="margin:8px 0 0;font-size:14px;">{{.Subject}}</p>
</td></tr>
<tr><td style="padding:24px;color:#1f2937;font-size:15px;line-height:1.6;">{{.Body}}</td></tr>
<tr><td style="background:#f3f4f6;color:#6b7280;padding:16px;text-align:center;font-size:12px;">
This message was sent by {{.SchoolName}}. Please do not reply to this email.
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>
`

// Renderer produces the HTML document sent to every recipient of a batch
type Renderer struct {
	schoolName string
	tmpl       *template.Template
}

type templateData struct {
	SchoolName string
	Subject    string
	Body       template.HTML
}

func NewRenderer(schoolName string) (*Renderer, error) {
	tmpl, err := template.New("notification").Parse(notificationTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing notification template: %w", err)
	}
	return &Renderer{schoolName: schoolName, tmpl: tmpl}, nil
}

// RenderHTML is pure: the same subject and body always give the same bytes.
// The subject is escaped, the body is trusted markup with newlines turned into <br>.
func (r *Renderer) RenderHTML(subject, body string) (string, error) {
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, templateData{
		SchoolName: r.schoolName,
		Subject:    subject,
		Body:       template.HTML(LineBreaks(body)),
	})
	if err != nil {
		return "", fmt.Errorf("rendering notification: %w", err)
	}
	return buf.String(), nil
}

// LineBreaks converts \n and \r\n to <br>
func LineBreaks(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	return strings.ReplaceAll(body, "\n", "<br>")
}
