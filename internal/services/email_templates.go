package services

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var otpEmailTemplate = template.Must(template.New("otp").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #1e40af;">{{.EventTitle}} Registration</h1>
  <h2>Your Verification Code</h2>
  <p style="font-size: 32px; font-weight: bold; letter-spacing: 3px; color: #1e40af;">{{.Code}}</p>
  <p>Valid for {{.ValidFor}} (until {{.ExpiresAt}}).</p>
  <p><strong>Dear {{.Name}},</strong></p>
  <p>Please use the above verification code to complete your {{.EventTitle}} registration.</p>
  <p>If you didn't request this registration, please ignore this email.</p>
</div>`))

var verificationLinkTemplate = template.Must(template.New("link").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #1e40af;">{{.EventTitle}} Registration</h1>
  <p><strong>Dear {{.Name}},</strong></p>
  <p>You were added to a team registration for <strong>{{.EventName}}</strong>.</p>
  <p><a href="{{.Link}}">Confirm your email address</a></p>
  <p>The link is valid until {{.ExpiresAt}}. The registration is complete once every team member has confirmed.</p>
</div>`))

var textConverter = md.NewConverter("", true, nil)

type otpEmailData struct {
	EventTitle string
	Name       string
	Code       string
	ValidFor   string
	ExpiresAt  string
}

type linkEmailData struct {
	EventTitle string
	EventName  string
	Name       string
	Link       string
	ExpiresAt  string
}

// renderOTPEmail builds the OTP message for one participant
func renderOTPEmail(eventTitle, to, name, code string, ttl time.Duration, expiresAt time.Time) (Message, error) {
	data := otpEmailData{
		EventTitle: eventTitle,
		Name:       name,
		Code:       code,
		ValidFor:   fmt.Sprintf("%d minutes", int(ttl.Minutes())),
		ExpiresAt:  expiresAt.Format("15:04 MST"),
	}
	subject := fmt.Sprintf("%s Registration - OTP Verification", eventTitle)
	return renderMessage(otpEmailTemplate, data, to, subject)
}

// renderVerificationLinkEmail builds the email-link message for direct team registrations
func renderVerificationLinkEmail(eventTitle, eventName, to, name, link string, expiresAt time.Time) (Message, error) {
	data := linkEmailData{
		EventTitle: eventTitle,
		EventName:  eventName,
		Name:       name,
		Link:       link,
		ExpiresAt:  expiresAt.Format("02 Jan 2006 15:04 MST"),
	}
	subject := fmt.Sprintf("%s Registration - Confirm your email", eventTitle)
	return renderMessage(verificationLinkTemplate, data, to, subject)
}

func renderMessage(tmpl *template.Template, data interface{}, to, subject string) (Message, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}
	html := buf.String()

	text, err := textConverter.ConvertString(html)
	if err != nil {
		return Message{}, fmt.Errorf("convert %s email to text: %w", tmpl.Name(), err)
	}

	return Message{To: to, Subject: subject, HTML: html, Text: text}, nil
}
