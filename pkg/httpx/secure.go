package httpx

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders sets the usual browser hardening headers. HSTS is only sent
// when isProd is true so local http development keeps working.
func SecureHeaders(isProd bool) Middleware {
	sm := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; frame-ancestors 'none'",
		STSSeconds:            31536000,
		STSIncludeSubdomains:  true,
		STSPreload:            true,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !isProd,
	})

	return func(next http.Handler) http.Handler {
		return sm.Handler(next)
	}
}
