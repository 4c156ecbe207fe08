package qr

import (
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"

	"wedding-guestsync/internal/models"
)

// LoginURL builds the guest login link embedded in invite QR codes
func LoginURL(siteBaseURL, token string) string {
	return fmt.Sprintf("%s/login?token=%s", siteBaseURL, url.QueryEscape(token))
}

// PNG renders the guest login QR code as a PNG of the given size
func PNG(siteBaseURL, token string, size int) ([]byte, error) {
	if token == "" {
		return nil, models.ValidationError("qr.PNG", fmt.Errorf("empty guest token"))
	}
	png, err := qrcode.Encode(LoginURL(siteBaseURL, token), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}

// Terminal renders the guest login QR code as a terminal string
func Terminal(siteBaseURL, token string) (string, error) {
	if token == "" {
		return "", models.ValidationError("qr.Terminal", fmt.Errorf("empty guest token"))
	}
	q, err := qrcode.New(LoginURL(siteBaseURL, token), qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}
	return q.ToSmallString(false), nil
}
