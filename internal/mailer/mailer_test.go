package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"eatlens-backend-go/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		SMTPHost: "smtp.example.com",
		SMTPPort: "2525",
		SMTPUser: "user",
		SMTPPass: "pass",
		MailFrom: "EatLens <no-reply@eatlens.com>",
	}
}

func TestSMTPMailerSend(t *testing.T) {
	m := NewSMTPMailer(testConfig())

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	if err := m.Send(context.Background(), "user@example.com", "Welcome", "<p>Hi</p>"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if gotAddr != "smtp.example.com:2525" {
		t.Errorf("unexpected addr %q", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "user@example.com" {
		t.Errorf("unexpected recipients %v", gotTo)
	}
	if !strings.Contains(string(gotMsg), "Content-Type: text/html") {
		t.Errorf("expected html content type, got %q", gotMsg)
	}
}

func TestSMTPMailerValidation(t *testing.T) {
	m := NewSMTPMailer(testConfig())
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return nil }

	if err := m.Send(context.Background(), "", "s", "b"); err == nil {
		t.Error("expected error for empty recipient")
	}
	if err := m.Send(context.Background(), "a@b.c", "", "b"); err == nil {
		t.Error("expected error for empty subject")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Send(ctx, "a@b.c", "s", "b"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSMTPMailerWrapsTransportError(t *testing.T) {
	m := NewSMTPMailer(testConfig())
	boom := errors.New("connection refused")
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	if err := m.Send(context.Background(), "a@b.c", "s", "b"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestBuildMessagePlainText(t *testing.T) {
	msg := string(BuildMessage("from@x", "to@x", "Hello", "plain body"))
	if !strings.Contains(msg, "Content-Type: text/plain") || !strings.HasSuffix(msg, "plain body\r\n") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestNewFallsBackToLogMailer(t *testing.T) {
	m := New(&config.Config{}, zaptest.NewLogger(t))
	if _, ok := m.(*LogMailer); !ok {
		t.Fatalf("expected LogMailer, got %T", m)
	}
	if err := m.Send(context.Background(), "a@b.c", "s", "b"); err != nil {
		t.Fatal(err)
	}
}
