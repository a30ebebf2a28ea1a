package kadence

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// refreshMargin is how long before expiry a cached token is considered
// stale, so a token cannot expire between the cache read and its use.
const refreshMargin = 30 * time.Second

// Credentials selects how outbound requests are authenticated: a static
// bearer token wins if set, otherwise a client-credentials exchange against
// AuthURL.
type Credentials struct {
	Token        string
	ClientID     string
	ClientSecret string
	AuthURL      string
}

// TokenSource builds the credential provider shared by every worker. The
// returned source is safe for concurrent use; with client credentials it
// caches the exchanged token and refreshes it behind a mutex, so concurrent
// callers during a refresh wait for the single in-flight exchange.
func (c Credentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if tok := strings.TrimSpace(c.Token); tok != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok}), nil
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, &AuthError{Err: errors.New("no API token and no client id/secret configured")}
	}
	authURL := c.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}
	conf := &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     authURL,
	}
	// conf.Token performs a fresh exchange on every call; caching and
	// refresh policy live in cachedTokenSource so the margin is ours.
	return newCachedTokenSource(func() (*oauth2.Token, error) {
		return conf.Token(ctx)
	}), nil
}

// cachedTokenSource holds the process-wide token cache. The mutex covers
// both the cache check and the exchange, which is what makes a refresh
// single-flight under concurrent workers.
type cachedTokenSource struct {
	mu       sync.Mutex
	exchange func() (*oauth2.Token, error)
	tok      *oauth2.Token
	now      func() time.Time
}

func newCachedTokenSource(exchange func() (*oauth2.Token, error)) *cachedTokenSource {
	return &cachedTokenSource{exchange: exchange, now: time.Now}
}

func (s *cachedTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tok != nil && s.fresh(s.tok) {
		return s.tok, nil
	}
	tok, err := s.exchange()
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	s.tok = tok
	return tok, nil
}

// fresh reports whether the token is still usable with the refresh margin
// applied. Tokens without an expiry never go stale.
func (s *cachedTokenSource) fresh(tok *oauth2.Token) bool {
	if tok.Expiry.IsZero() {
		return true
	}
	return s.now().Add(refreshMargin).Before(tok.Expiry)
}
