package a2a

import "strings"

// Extension URIs recognised by the extension-activation handshake (§4.7)
// and advertised on the agent card (§4.9).
const (
	PaymentExtensionV01URI    = "https://github.com/google-a2a/a2a-x402/v0.1"
	PaymentExtensionV02URI    = "https://github.com/google-a2a/a2a-x402/v0.2"
	PaymentConfigExtensionURI = "https://x402.gateway/extensions/payment-configuration/v1"
)

// EchoExtension inspects the X-A2A-Extensions header value a client sent
// and decides which extension URI the server should echo back. The default
// is the v0.2 URI unless the client explicitly named v0.1 only (§4.7).
func EchoExtension(headerValue string) string {
	if headerValue == "" {
		return ""
	}
	hasV01 := strings.Contains(headerValue, PaymentExtensionV01URI)
	hasV02 := strings.Contains(headerValue, PaymentExtensionV02URI)
	switch {
	case hasV01 && !hasV02:
		return PaymentExtensionV01URI
	case hasV02 || hasV01:
		return PaymentExtensionV02URI
	default:
		return ""
	}
}
