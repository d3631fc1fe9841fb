package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// GoogleIdentity is the subset of a verified Google ID token this app uses.
type GoogleIdentity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleVerifier checks a federated ID token against its issuer.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (GoogleIdentity, error)
}

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// TokenInfoVerifier validates Google ID tokens against the tokeninfo
// endpoint. Endpoint and client are overridable for tests.
type TokenInfoVerifier struct {
	Endpoint string
	Client   *http.Client
}

func (v *TokenInfoVerifier) Verify(ctx context.Context, idToken string) (GoogleIdentity, error) {
	endpoint := v.Endpoint
	if endpoint == "" {
		endpoint = googleTokenInfoURL
	}
	client := v.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		endpoint+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("build tokeninfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("verify google token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleIdentity{}, ErrInvalidToken
	}

	var identity GoogleIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return GoogleIdentity{}, fmt.Errorf("decode tokeninfo response: %w", err)
	}
	if identity.Subject == "" || identity.Email == "" {
		return GoogleIdentity{}, ErrInvalidToken
	}
	return identity, nil
}
