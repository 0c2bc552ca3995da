// Package identity implements a Keystone v3 flavored identity client:
// credential to token exchange, project-scoped re-scoping, and the
// authorized project listing.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kbukum/archivekit/httpclient"
	"github.com/kbukum/archivekit/logger"
	"github.com/kbukum/archivekit/observability"
	"github.com/kbukum/archivekit/version"
)

// Credentials identify a user. Token wins over Username/Password when
// both are set.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// Token is an issued auth token with its principal and, when scoped,
// the project and its object-store endpoint.
type Token struct {
	// Value is the opaque token presented on authenticated requests.
	Value string
	// UserID and UserName identify the principal the token was issued to.
	UserID   string
	UserName string
	// ExpiresAt is the token expiry, zero if the service reported none.
	ExpiresAt time.Time
	// StorageURL is the object-store endpoint from the catalog, present
	// on scoped tokens.
	StorageURL string
	// Project is the scope, nil for root tokens.
	Project *ProjectRef
}

// ProjectRef names a project a user is authorized for.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Config configures the identity client.
type Config struct {
	// AuthURL is the identity service base URL, with or without the
	// /v3 suffix.
	AuthURL string `mapstructure:"auth_url" json:"auth_url"`

	// Timeout bounds individual identity requests.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`

	// TLS configures transport security.
	TLS *httpclient.TLSConfig `mapstructure:"tls" json:"tls"`

	// UserAgent is reported to the identity service.
	UserAgent string `mapstructure:"user_agent" json:"user_agent"`
}

// Client talks to the identity service. It holds no credential state;
// tokens are passed per call.
type Client struct {
	http *httpclient.Client
	log  *logger.Logger
}

// New creates an identity client for the given auth URL.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.AuthURL == "" {
		return nil, errors.New("identity: auth url is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	base := strings.TrimRight(cfg.AuthURL, "/")
	base = strings.TrimSuffix(base, "/v3")

	ua := cfg.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}

	hc, err := httpclient.New(httpclient.Config{
		BaseURL:   base,
		Timeout:   cfg.Timeout,
		TLS:       cfg.TLS,
		UserAgent: ua,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		http: hc,
		log:  log.WithComponent("identity"),
	}, nil
}

// Keystone v3 wire types.

type authRequest struct {
	Auth authPayload `json:"auth"`
}

type authPayload struct {
	Identity identityPayload `json:"identity"`
	Scope    *scopePayload   `json:"scope,omitempty"`
}

type identityPayload struct {
	Methods  []string       `json:"methods"`
	Password *passwordProof `json:"password,omitempty"`
	Token    *tokenProof    `json:"token,omitempty"`
}

type passwordProof struct {
	User userProof `json:"user"`
}

type userProof struct {
	Name     string    `json:"name"`
	Domain   domainRef `json:"domain"`
	Password string    `json:"password"`
}

type domainRef struct {
	ID string `json:"id"`
}

type tokenProof struct {
	ID string `json:"id"`
}

type scopePayload struct {
	Project projectScope `json:"project"`
}

type projectScope struct {
	ID string `json:"id"`
}

type tokenResponse struct {
	Token tokenBody `json:"token"`
}

type tokenBody struct {
	ExpiresAt string         `json:"expires_at"`
	User      principalRef   `json:"user"`
	Project   *principalRef  `json:"project"`
	Catalog   []catalogEntry `json:"catalog"`
}

type principalRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type catalogEntry struct {
	Type      string            `json:"type"`
	Endpoints []catalogEndpoint `json:"endpoints"`
}

type catalogEndpoint struct {
	Interface string `json:"interface"`
	URL       string `json:"url"`
}

type projectsResponse struct {
	Projects []ProjectRef `json:"projects"`
}

// Authenticate exchanges a credential for a root token. Password
// credentials are proven against the default domain; a token credential
// is validated as-is.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (*Token, error) {
	var req authRequest
	switch {
	case creds.Token != "":
		req.Auth.Identity.Methods = []string{"token"}
		req.Auth.Identity.Token = &tokenProof{ID: creds.Token}
	case creds.Username != "":
		req.Auth.Identity.Methods = []string{"password"}
		req.Auth.Identity.Password = &passwordProof{
			User: userProof{
				Name:     creds.Username,
				Domain:   domainRef{ID: "default"},
				Password: creds.Password,
			},
		}
	default:
		return nil, errors.New("identity: credentials require a username or token")
	}

	tok, err := c.requestToken(ctx, req)
	if err != nil {
		return nil, err
	}

	c.log.Debug("authenticated", map[string]interface{}{
		"user": tok.UserName,
	})
	return tok, nil
}

// ScopeToken exchanges a root token for a token scoped to the given
// project. The scoped token carries the project's object-store endpoint.
func (c *Client) ScopeToken(ctx context.Context, rootToken, projectID string) (*Token, error) {
	var req authRequest
	req.Auth.Identity.Methods = []string{"token"}
	req.Auth.Identity.Token = &tokenProof{ID: rootToken}
	req.Auth.Scope = &scopePayload{Project: projectScope{ID: projectID}}

	tok, err := c.requestToken(ctx, req)
	if err != nil {
		return nil, &Error{Code: ErrCodeScope, Message: "scoping token to project " + projectID, Err: err}
	}

	c.log.Debug("token scoped", map[string]interface{}{
		logger.FieldProject: projectID,
	})
	return tok, nil
}

// Projects lists the projects the token's user is authorized for.
func (c *Client) Projects(ctx context.Context, token, userID string) ([]ProjectRef, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanAuthRequest)
	defer span.End()

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/v3/users/" + url.PathEscape(userID) + "/projects",
		Auth:   httpclient.TokenAuth(token),
	})
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, mapError("listing projects", err)
	}

	var body projectsResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, &Error{Code: ErrCodeTransport, Message: "decode projects response", Err: err}
	}
	return body.Projects, nil
}

// requestToken posts an auth request and assembles the issued token
// from the X-Subject-Token header and the response body.
func (c *Client) requestToken(ctx context.Context, payload authRequest) (*Token, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanAuthRequest)
	defer span.End()

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/v3/auth/tokens",
		Body:   payload,
	})
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, mapError("requesting token", err)
	}

	subject := resp.Headers["X-Subject-Token"]
	if subject == "" {
		return nil, &Error{Code: ErrCodeTransport, Message: "response missing X-Subject-Token header"}
	}

	var body tokenResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, &Error{Code: ErrCodeTransport, Message: "decode token response", Err: err}
	}

	tok := &Token{
		Value:      subject,
		UserID:     body.Token.User.ID,
		UserName:   body.Token.User.Name,
		StorageURL: objectStoreURL(body.Token.Catalog),
	}
	if p := body.Token.Project; p != nil {
		tok.Project = &ProjectRef{ID: p.ID, Name: p.Name}
	}
	if body.Token.ExpiresAt != "" {
		if t, perr := time.Parse(time.RFC3339, body.Token.ExpiresAt); perr == nil {
			tok.ExpiresAt = t
		}
	}
	return tok, nil
}

// mapError converts transport failures into identity error kinds. The
// service reports unknown users as 404 and rejected secrets as 401.
func mapError(what string, err error) error {
	switch {
	case httpclient.IsNotFound(err):
		return &Error{Code: ErrCodeUnknownPrincipal, Message: what, Err: err}
	case httpclient.StatusOf(err) == http.StatusUnauthorized:
		return &Error{Code: ErrCodeRejectedSecret, Message: what, Err: err}
	default:
		return &Error{Code: ErrCodeTransport, Message: what, Err: err}
	}
}

// objectStoreURL picks the public object-store endpoint from a token
// catalog, falling back to the first endpoint of the entry.
func objectStoreURL(catalog []catalogEntry) string {
	for _, entry := range catalog {
		if entry.Type != "object-store" {
			continue
		}
		for _, ep := range entry.Endpoints {
			if ep.Interface == "public" {
				return ep.URL
			}
		}
		if len(entry.Endpoints) > 0 {
			return entry.Endpoints[0].URL
		}
	}
	return ""
}
