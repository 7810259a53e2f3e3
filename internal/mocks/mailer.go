package mocks

import (
	"sync"
	"time"
)

// SentMail records one message handed to the mock mailer.
type SentMail struct {
	To          string
	Name        string
	Code        string
	SenderEmail string
	Title       string
	Message     string
	AccessToken string
	Kind        string
}

// MockMailer implements the service OTPMailer and CapsuleMailer interfaces,
// recording every message for assertions.
type MockMailer struct {
	SendOTPFn              func(to, name, code string, validity time.Duration) error
	SendPasswordResetOTPFn func(to, name, code string, validity time.Duration) error
	SendCapsuleLinkFn      func(to, senderEmail, title, message, accessToken string) error

	Err error

	mu   sync.Mutex
	Sent []SentMail
}

func (m *MockMailer) SendOTP(to, name, code string, validity time.Duration) error {
	if m.SendOTPFn != nil {
		return m.SendOTPFn(to, name, code, validity)
	}
	if m.Err != nil {
		return m.Err
	}
	m.record(SentMail{To: to, Name: name, Code: code, Kind: "otp"})
	return nil
}

func (m *MockMailer) SendPasswordResetOTP(to, name, code string, validity time.Duration) error {
	if m.SendPasswordResetOTPFn != nil {
		return m.SendPasswordResetOTPFn(to, name, code, validity)
	}
	if m.Err != nil {
		return m.Err
	}
	m.record(SentMail{To: to, Name: name, Code: code, Kind: "password_reset"})
	return nil
}

func (m *MockMailer) SendCapsuleLink(to, senderEmail, title, message, accessToken string) error {
	if m.SendCapsuleLinkFn != nil {
		return m.SendCapsuleLinkFn(to, senderEmail, title, message, accessToken)
	}
	if m.Err != nil {
		return m.Err
	}
	m.record(SentMail{To: to, SenderEmail: senderEmail, Title: title, Message: message, AccessToken: accessToken, Kind: "capsule_link"})
	return nil
}

func (m *MockMailer) record(mail SentMail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, mail)
}

// SentCount reports how many messages were recorded.
func (m *MockMailer) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
