package mcp

import "fmt"

// AuthProvider supplies the Authorization header for client requests.
type AuthProvider interface {
	GetAuthHeader() (string, error)
	Refresh() error
}

// BearerTokenAuth implements static bearer token authentication.
type BearerTokenAuth struct {
	token string
}

func NewBearerTokenAuth(token string) *BearerTokenAuth {
	return &BearerTokenAuth{token: token}
}

func (b *BearerTokenAuth) GetAuthHeader() (string, error) {
	return fmt.Sprintf("Bearer %s", b.token), nil
}

func (b *BearerTokenAuth) Refresh() error { return nil }
