package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

// RestaurantApplicationReceived is the notice sent when someone applies to
// list their restaurant.
type RestaurantApplicationReceived struct {
	ApplicantName  string
	Email          string
	RestaurantName string
	Address        string
	Phone          string
	Message        string
	SubmittedAt    time.Time
}

const applicationText = `New restaurant application

Restaurant: {{.RestaurantName}}
Applicant:  {{.ApplicantName}} <{{.Email}}>
{{- if .Phone}}
Phone:      {{.Phone}}
{{- end}}
{{- if .Address}}
Address:    {{.Address}}
{{- end}}
Submitted:  {{.SubmittedAt.Format "2006-01-02 15:04 MST"}}
{{if .Message}}
Message:
{{.Message}}
{{end}}
Review it in the SavedFeast admin panel.
`

const applicationHTML = `<!DOCTYPE html>
<html>
<body>
<h2>New restaurant application</h2>
<table>
<tr><td>Restaurant</td><td>{{.RestaurantName}}</td></tr>
<tr><td>Applicant</td><td>{{.ApplicantName}} &lt;{{.Email}}&gt;</td></tr>
{{- if .Phone}}
<tr><td>Phone</td><td>{{.Phone}}</td></tr>
{{- end}}
{{- if .Address}}
<tr><td>Address</td><td>{{.Address}}</td></tr>
{{- end}}
<tr><td>Submitted</td><td>{{.SubmittedAt.Format "2006-01-02 15:04 MST"}}</td></tr>
</table>
{{- if .Message}}
<p>{{.Message}}</p>
{{- end}}
<p>Review it in the SavedFeast admin panel.</p>
</body>
</html>
`

var (
	applicationTextTmpl = texttemplate.Must(texttemplate.New("application.txt").Parse(applicationText))
	applicationHTMLTmpl = htmltemplate.Must(htmltemplate.New("application.html").Parse(applicationHTML))
)

func (a RestaurantApplicationReceived) Subject() string {
	return "New restaurant application: " + a.RestaurantName
}

// Render builds the message addressed to to.
func (a RestaurantApplicationReceived) Render(to string) (Message, error) {
	var text, html bytes.Buffer
	if err := applicationTextTmpl.Execute(&text, a); err != nil {
		return Message{}, fmt.Errorf("render application text: %w", err)
	}
	if err := applicationHTMLTmpl.Execute(&html, a); err != nil {
		return Message{}, fmt.Errorf("render application html: %w", err)
	}
	return Message{
		To:      to,
		Subject: a.Subject(),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
