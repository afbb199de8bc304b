// Package oidc signs dashboard users in through an OpenID Connect identity provider.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/target/recon-console/internal/domain/auth"
	"github.com/target/recon-console/internal/ports"
	"golang.org/x/oauth2"
)

// Provider implements ports.AuthProvider with the authorization code flow.
type Provider struct {
	config     *oauth2.Config
	logoutURL  string
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	LogoutURL    string
	HTTPClient   *http.Client // defaults to a client with a 30s timeout
}

// DiscoveryDocument is the subset of the discovery document the provider reads.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider fetches discovery metadata and prepares the OAuth2 client.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	switch {
	case cfg.ClientID == "":
		return nil, errors.New("client ID is required")
	case cfg.ClientSecret == "":
		return nil, errors.New("client secret is required")
	case cfg.RedirectURL == "":
		return nil, errors.New("redirect URL is required")
	case cfg.DiscoveryURL == "":
		return nil, errors.New("discovery URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := gooidc.ClientContext(context.Background(), httpClient)
	op, err := gooidc.NewProvider(ctx, issuerFromDiscovery(cfg.DiscoveryURL))
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       strings.Fields(cfg.Scope),
			Endpoint:     op.Endpoint(),
		},
		logoutURL:    cfg.LogoutURL,
		httpClient:   httpClient,
		oidcProvider: op,
		verifier:     op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func issuerFromDiscovery(raw string) string {
	issuer := strings.TrimSuffix(raw, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	return strings.TrimSuffix(issuer, ".well-known/openid-configuration")
}

// Begin returns the IdP authorization URL plus the state and nonce to remember.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// redirect_uri stays the configured one; IdPs compare it byte for byte.
	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange trades the authorization code for tokens and maps the claims to an Identity.
// The access token is kept so backend calls can carry it as a bearer credential.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	switch {
	case in.Code == "":
		return domainauth.Identity{}, errors.New("authorization code is required")
	case in.State == "":
		return domainauth.Identity{}, errors.New("state is required")
	case in.Nonce == "":
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	fields, err := p.extractFromIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("extract id_token: %w", err)
	}
	if fields.incomplete() {
		if fillErr := p.fillFromUserInfo(ctx, token.AccessToken, &fields); fillErr != nil {
			return domainauth.Identity{}, fmt.Errorf("get user info: %w", fillErr)
		}
	}
	if fields.userID == "" {
		return domainauth.Identity{}, errors.New("identity provider returned no subject")
	}

	expiresAt := time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}

	return domainauth.Identity{
		UserID:      fields.userID,
		DisplayName: fields.displayName(),
		Email:       fields.email,
		Groups:      fields.groups,
		AccessToken: token.AccessToken,
		ExpiresAt:   expiresAt,
	}, nil
}

// LogoutURL returns the IdP end-session URL with the post-logout redirect attached,
// or an empty string when no logout URL is configured.
func (p *Provider) LogoutURL(postLogoutRedirect string) string {
	if p.logoutURL == "" {
		return ""
	}
	u, err := url.Parse(p.logoutURL)
	if err != nil {
		return p.logoutURL
	}
	if postLogoutRedirect != "" {
		q := u.Query()
		q.Set("post_logout_redirect_uri", postLogoutRedirect)
		q.Set("client_id", p.config.ClientID)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// claimSet covers both the standard OIDC claim names and the AD/ADFS variants.
type claimSet struct {
	Subject           string   `json:"sub"`
	SamAccountName    string   `json:"samaccountname"`
	PreferredUsername string   `json:"preferred_username"`
	Name              string   `json:"name"`
	GivenName         string   `json:"given_name"`
	FamilyName        string   `json:"family_name"`
	FirstName         string   `json:"firstname"`
	LastName          string   `json:"lastname"`
	Email             string   `json:"email"`
	Mail              string   `json:"mail"`
	Groups            []string `json:"groups"`
	MemberOf          []string `json:"memberof"`
	Nonce             string   `json:"nonce"`
}

type idFields struct {
	userID     string
	name       string
	givenName  string
	familyName string
	email      string
	groups     []string
}

func (f idFields) incomplete() bool {
	return f.userID == "" || f.email == "" || len(f.groups) == 0
}

func (f idFields) displayName() string {
	if f.name != "" {
		return f.name
	}
	if full := strings.TrimSpace(f.givenName + " " + f.familyName); full != "" {
		return full
	}
	return f.userID
}

// mapClaims applies precedence: AD account name over preferred_username over sub.
func mapClaims(c claimSet) idFields {
	return idFields{
		userID:     firstNonEmpty(c.SamAccountName, c.PreferredUsername, c.Subject),
		name:       c.Name,
		givenName:  firstNonEmpty(c.GivenName, c.FirstName),
		familyName: firstNonEmpty(c.FamilyName, c.LastName),
		email:      firstNonEmpty(c.Email, c.Mail),
		groups:     firstNonEmptySlice(c.Groups, c.MemberOf),
	}
}

// merge fills only the fields f is missing.
func (f *idFields) merge(o idFields) {
	if f.userID == "" {
		f.userID = o.userID
	}
	if f.name == "" {
		f.name = o.name
	}
	if f.givenName == "" {
		f.givenName = o.givenName
	}
	if f.familyName == "" {
		f.familyName = o.familyName
	}
	if f.email == "" {
		f.email = o.email
	}
	if len(f.groups) == 0 {
		f.groups = o.groups
	}
}

func (p *Provider) extractFromIDToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (idFields, error) {
	if !slices.Contains(p.config.Scopes, gooidc.ScopeOpenID) {
		return idFields{}, nil
	}
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return idFields{}, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return idFields{}, fmt.Errorf("verify id_token: %w", err)
	}
	var claims claimSet
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return idFields{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	if claims.Nonce != expectedNonce {
		return idFields{}, errors.New("invalid nonce")
	}
	return mapClaims(claims), nil
}

func (p *Provider) fillFromUserInfo(ctx context.Context, accessToken string, f *idFields) error {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	var claims claimSet
	if err := ui.Claims(&claims); err != nil {
		return fmt.Errorf("decode user info: %w", err)
	}
	f.merge(mapClaims(claims))
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptySlice(vals ...[]string) []string {
	for _, v := range vals {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

// generateRandomString returns a URL-safe random string of exactly length characters.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, (length*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
