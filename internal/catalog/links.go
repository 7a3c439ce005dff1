package catalog

import (
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Links are the deep links a product page offers instead of checkout.
type Links struct {
	WhatsApp string `json:"whatsapp"`
	Call     string `json:"call"`
}

type LinkConfig struct {
	WhatsAppNumber string
	CallNumber     string
	PublicBaseURL  string
}

func (lc LinkConfig) For(p Product) Links {
	msg := strings.ReplaceAll(url.QueryEscape("Hi! I want to buy "+p.Title), "+", "%20")
	return Links{
		WhatsApp: "https://wa.me/" + lc.WhatsAppNumber + "?text=" + msg,
		Call:     "tel:" + lc.CallNumber,
	}
}

// VerifyURL is the public page a product's QR tag points at.
func (lc LinkConfig) VerifyURL(id string) string {
	return strings.TrimRight(lc.PublicBaseURL, "/") + "/verify?code=" + url.QueryEscape(id)
}

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// VerifyQR renders VerifyURL(id) as a PNG.
func (lc LinkConfig) VerifyQR(id string, size int) ([]byte, error) {
	if size <= 0 || size > maxQRSize {
		size = defaultQRSize
	}
	return qrcode.Encode(lc.VerifyURL(id), qrcode.Medium, size)
}
