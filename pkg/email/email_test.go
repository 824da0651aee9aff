package email

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"complete", Config{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"}, true},
		{"missing host", Config{Port: 587, From: "noreply@example.com"}, false},
		{"missing port", Config{Host: "smtp.example.com", From: "noreply@example.com"}, false},
		{"missing from", Config{Host: "smtp.example.com", Port: 587}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewSMTPSender(tt.cfg).IsConfigured())
		})
	}
}

func TestSendValidation(t *testing.T) {
	unconfigured := NewSMTPSender(Config{})
	err := unconfigured.Send(context.Background(), &Message{To: "a@b.c", Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	s := NewSMTPSender(Config{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"})
	err = s.Send(context.Background(), &Message{Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	err = s.SendTemplate(context.Background(), "", TemplatePasswordReset, nil)
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestEncode(t *testing.T) {
	s := NewSMTPSender(Config{
		Host:     "smtp.example.com",
		Port:     587,
		From:     "noreply@example.com",
		FromName: "IncidentHQ",
	})

	wire := string(s.encode(&Message{
		To:      "responder@example.com",
		Subject: "New report",
		Body:    "<p>Details</p>",
		HTML:    true,
	}))

	assert.Contains(t, wire, "From: IncidentHQ <noreply@example.com>\r\n")
	assert.Contains(t, wire, "To: responder@example.com\r\n")
	assert.Contains(t, wire, "Subject: New report\r\n")
	assert.Contains(t, wire, "Content-Type: text/html; charset=UTF-8\r\n")

	header, body, found := strings.Cut(wire, "\r\n\r\n")
	require.True(t, found)
	assert.NotContains(t, header, "<p>")
	assert.Equal(t, "<p>Details</p>", body)
}
