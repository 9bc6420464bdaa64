package crvs

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// Header names the upstream notifier has been observed to sign under, in
// preference order.
var signatureHeaders = []string{
	"X-Hub-Signature-256",
	"X-Hub-Signature",
	"X-Signature",
	"Signature",
}

// SignatureFromHeader returns the first present signature header value.
func SignatureFromHeader(h http.Header) string {
	for _, name := range signatureHeaders {
		if v := h.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// ComputeSignature returns the expected signature for a raw request body.
// The upstream service signs the percent-encoded body prefixed with
// "sha256:", and sends the digest as "sha256=<hex>".
func ComputeSignature(secret string, rawBody []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("sha256:"))
	mac.Write([]byte(encodeURIComponent(rawBody)))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether the received signature header matches the
// expected digest for the raw body, in constant time.
func VerifySignature(secret string, rawBody []byte, received string) bool {
	if received == "" {
		return false
	}
	expected := ComputeSignature(secret, rawBody)
	return hmac.Equal([]byte(expected), []byte(received))
}

// encodeURIComponent percent-encodes bytes the way the JavaScript
// encodeURIComponent does: everything except ASCII letters, digits and
// - _ . ! ~ * ' ( ) is escaped as uppercase %XX over the UTF-8 bytes. The
// signer runs in a JS runtime, so the exact escape set matters.
func encodeURIComponent(b []byte) string {
	const upperhex = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if isURIUnescaped(c) {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('%')
			sb.WriteByte(upperhex[c>>4])
			sb.WriteByte(upperhex[c&0x0f])
		}
	}
	return sb.String()
}

func isURIUnescaped(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
