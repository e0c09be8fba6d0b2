package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// tokenEarlyExpiry refreshes the Twitch token this long before it expires.
const tokenEarlyExpiry = 60 * time.Second

// TokenProvider hands out bearer tokens for IGDB.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, for tests and pre-issued credentials.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

type twitchTokens struct {
	src oauth2.TokenSource
}

// NewTwitchTokenProvider fetches app tokens with the client-credentials
// grant and caches them until shortly before expiry. Safe for concurrent use.
func NewTwitchTokenProvider(clientID, clientSecret, tokenURL string, timeout time.Duration) TokenProvider {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	// the token source outlives any single request, so it gets its own context
	base := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	return &twitchTokens{
		src: oauth2.ReuseTokenSourceWithExpiry(nil, fetchToken{ctx: base, cfg: cfg}, tokenEarlyExpiry),
	}
}

// fetchToken asks the token endpoint every time; caching is left to the
// reuse source wrapped around it.
type fetchToken struct {
	ctx context.Context
	cfg clientcredentials.Config
}

func (f fetchToken) Token() (*oauth2.Token, error) {
	return f.cfg.Token(f.ctx)
}

func (t *twitchTokens) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tok, err := t.src.Token()
	if err != nil {
		return "", fmt.Errorf("igdb: fetch token: %w", err)
	}
	return tok.AccessToken, nil
}
