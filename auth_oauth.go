package mcp

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuth2Auth implements the OAuth2 client credentials flow. Tokens are
// fetched lazily and reused until they expire.
type OAuth2Auth struct {
	source oauth2.TokenSource
	token  *oauth2.Token
	mu     sync.Mutex
}

// NewOAuth2Auth creates an OAuth2 provider using the client credentials flow.
// A nil httpClient uses http.DefaultClient for token requests.
func NewOAuth2Auth(clientID, clientSecret, tokenURL string, scopes []string, httpClient *http.Client) *OAuth2Auth {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx := context.Background()
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}
	return &OAuth2Auth{source: cfg.TokenSource(ctx)}
}

func (o *OAuth2Auth) GetAuthHeader() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.token == nil || !o.token.Valid() {
		if err := o.fetch(); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Bearer %s", o.token.AccessToken), nil
}

func (o *OAuth2Auth) Refresh() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fetch()
}

func (o *OAuth2Auth) fetch() error {
	t, err := o.source.Token()
	if err != nil {
		return fmt.Errorf("failed to get oauth2 token: %w", err)
	}
	o.token = t
	return nil
}
