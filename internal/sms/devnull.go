package sms

import (
	"context"

	"github.com/hakimino/vyry/internal/logging"
)

// DevSender logs the OTP instead of sending it. Used when CLICKSEND_*
// credentials are absent; the code is also echoed in the HTTP response
// by the handler layer when DEV_MODE=true.
type DevSender struct {
	log *logging.Logger
}

func NewDevSender(log *logging.Logger) *DevSender {
	return &DevSender{log: log}
}

func (d *DevSender) SendOTP(ctx context.Context, phone, code string) error {
	d.log.Warn("DEV_MODE: otp not sent via sms", "phone", phone, "code", code)
	return nil
}
