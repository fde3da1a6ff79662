package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOTPEmail(t *testing.T) {
	expires := time.Date(2025, 9, 15, 10, 10, 0, 0, time.UTC)
	msg, err := renderOTPEmail("Tech Fest", "leader@inst.edu", "Leader", "042917", OTPValidity, expires)
	require.NoError(t, err)

	assert.Equal(t, "leader@inst.edu", msg.To)
	assert.Equal(t, "Tech Fest Registration - OTP Verification", msg.Subject)
	assert.Contains(t, msg.HTML, "042917")
	assert.Contains(t, msg.HTML, "10 minutes")
	assert.Contains(t, msg.Text, "042917")
	assert.NotContains(t, msg.Text, "<p>")
}

func TestRenderOTPEmail_EscapesNames(t *testing.T) {
	msg, err := renderOTPEmail("Tech Fest", "x@inst.edu", "<script>alert(1)</script>", "123456", OTPValidity, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
}

func TestRenderVerificationLinkEmail(t *testing.T) {
	link := "https://clubs.inst.edu/api/verify-email?token=abc123"
	msg, err := renderVerificationLinkEmail("Tech Fest", "Hackathon", "m@inst.edu", "Member", link, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "Tech Fest Registration - Confirm your email", msg.Subject)
	assert.Contains(t, msg.HTML, `href="`+link+`"`)
	assert.Contains(t, msg.Text, link)
	assert.Contains(t, msg.Text, "Hackathon")
}

func TestNewPublisher_WithoutURLIsNoop(t *testing.T) {
	publisher, err := NewPublisher("")
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, publisher)
	assert.NoError(t, publisher.PublishConfirmed(context.Background(), RegistrationConfirmed{RegistrationID: "r1"}))
	publisher.Close()
}
