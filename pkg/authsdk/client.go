package authsdk

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// SessionCookieName is the cookie that carries the session assertion.
const SessionCookieName = "session-id"

// SDKClient is a client for the gatehouse authentication service. It keeps
// cookies like a browser, so a successful sign-in authenticates every later
// call made through the same client.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client with its own cookie jar. Redirects are not
// followed so OAuth redirects can be inspected.
func NewSDKClient(baseURL string) *SDKClient {
	jar, _ := cookiejar.New(nil)
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// SessionCookie returns the current session cookie, if any.
func (c *SDKClient) SessionCookie() (*http.Cookie, bool) {
	if c.HTTPClient.Jar == nil {
		return nil, false
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, false
	}
	for _, ck := range c.HTTPClient.Jar.Cookies(u) {
		if ck.Name == SessionCookieName && ck.Value != "" {
			return ck, true
		}
	}
	return nil, false
}

// Signed reports whether the client holds a session cookie.
func (c *SDKClient) Signed() bool {
	_, ok := c.SessionCookie()
	return ok
}
