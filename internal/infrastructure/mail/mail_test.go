package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailerComposesMessage(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.test", Username: "u", Password: "p", From: "shop@test"})
	require.NoError(t, err)

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.NotNil(t, a)
		return nil
	}

	err = m.Send(context.Background(), notification.Message{
		To:      "ana@shop.io",
		Subject: "Order Confirmation\r\nBcc: evil@x",
		Body:    "line one\nline two",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.test:587", gotAddr)
	assert.Equal(t, []string{"ana@shop.io"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Order Confirmation  Bcc: evil@x\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "line one\r\nline two"))
}

func TestSMTPMailerStopsWaitingOnCancel(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.test", From: "shop@test"})
	require.NoError(t, err)
	release := make(chan struct{})
	defer close(release)
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = m.Send(ctx, notification.Message{To: "ana@shop.io"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSMTPMailerWrapsSendError(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.test", From: "shop@test"})
	require.NoError(t, err)
	boom := errors.New("554 rejected")
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err = m.Send(context.Background(), notification.Message{To: "ana@shop.io"})
	assert.ErrorIs(t, err, boom)
}

func TestNewSMTPMailerValidates(t *testing.T) {
	_, err := NewSMTPMailer(SMTPConfig{From: "x@test"})
	assert.Error(t, err)
	_, err = NewSMTPMailer(SMTPConfig{Host: "smtp.test"})
	assert.Error(t, err)
}

func TestLogMailerNeverFails(t *testing.T) {
	assert.NoError(t, NewLogMailer(nil).Send(context.Background(), notification.Message{To: "a@b"}))
}
