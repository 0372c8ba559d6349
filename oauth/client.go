package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

var (
	ErrUnsupportedProvider = errors.New("oauth provider not supported")
	ErrNotConfigured       = errors.New("oauth provider not configured")
	ErrExchangeFailed      = errors.New("oauth exchange failed")
)

const (
	googleIssuer      = "https://accounts.google.com"
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	googleJWKSURL     = "https://www.googleapis.com/oauth2/v3/certs"
	facebookGraphURL  = "https://graph.facebook.com/me"

	defaultHTTPTimeout = 10 * time.Second
	maxProfileBytes    = 1 << 20
)

// Credentials are the OAuth client id and secret of one provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Configured reports whether both values are present.
func (c Credentials) Configured() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// Endpoints override provider URLs. Empty fields keep the defaults.
type Endpoints struct {
	AuthURL    string
	TokenURL   string
	ProfileURL string
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Google     Credentials
	Facebook   Credentials
	HTTPClient *http.Client
	// Endpoints replaces provider URLs, mostly for tests and proxies.
	Endpoints map[Provider]Endpoints
}

// Profile is the identity returned by a successful exchange.
type Profile struct {
	Provider       Provider
	ProviderUserID string
	Email          string
	DisplayName    string
}

type providerClient struct {
	oauth      *oauth2.Config
	profileURL string
	extraAuth  []oauth2.AuthCodeOption
}

// Client performs authorize-URL construction and code exchange.
type Client struct {
	httpClient *http.Client
	providers  map[Provider]*providerClient
	google     *oidc.Provider
}

// NewClient builds a client. Providers without credentials stay registered
// but report Configured() == false.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	googleEP := endpoints.Google
	googleProfile := googleUserInfoURL
	if override, ok := cfg.Endpoints[Google]; ok {
		googleEP, googleProfile = applyOverride(googleEP, googleProfile, override)
	}
	googleEP.AuthStyle = oauth2.AuthStyleInParams

	facebookEP := endpoints.Facebook
	facebookProfile := facebookGraphURL
	if override, ok := cfg.Endpoints[Facebook]; ok {
		facebookEP, facebookProfile = applyOverride(facebookEP, facebookProfile, override)
	}
	facebookEP.AuthStyle = oauth2.AuthStyleInParams

	c := &Client{
		httpClient: httpClient,
		providers: map[Provider]*providerClient{
			Google: {
				oauth: &oauth2.Config{
					ClientID:     cfg.Google.ClientID,
					ClientSecret: cfg.Google.ClientSecret,
					Endpoint:     googleEP,
					Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
				},
				profileURL: googleProfile,
				extraAuth:  []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "select_account")},
			},
			Facebook: {
				oauth: &oauth2.Config{
					ClientID:     cfg.Facebook.ClientID,
					ClientSecret: cfg.Facebook.ClientSecret,
					Endpoint:     facebookEP,
					Scopes:       []string{"email", "public_profile"},
				},
				profileURL: facebookProfile,
			},
		},
	}

	c.google = (&oidc.ProviderConfig{
		IssuerURL:   googleIssuer,
		AuthURL:     googleEP.AuthURL,
		TokenURL:    googleEP.TokenURL,
		UserInfoURL: googleProfile,
		JWKSURL:     googleJWKSURL,
		Algorithms:  []string{oidc.RS256},
	}).NewProvider(oidc.ClientContext(context.Background(), httpClient))

	return c
}

func applyOverride(ep oauth2.Endpoint, profile string, o Endpoints) (oauth2.Endpoint, string) {
	if o.AuthURL != "" {
		ep.AuthURL = o.AuthURL
	}
	if o.TokenURL != "" {
		ep.TokenURL = o.TokenURL
	}
	if o.ProfileURL != "" {
		profile = o.ProfileURL
	}
	return ep, profile
}

// Configured reports whether provider has credentials.
func (c *Client) Configured(provider Provider) bool {
	pc, ok := c.providers[provider]
	if !ok {
		return false
	}
	return Credentials{ClientID: pc.oauth.ClientID, ClientSecret: pc.oauth.ClientSecret}.Configured()
}

func (c *Client) configFor(provider Provider, redirectURL string) (*providerClient, *oauth2.Config, error) {
	pc, ok := c.providers[provider]
	if !ok {
		return nil, nil, ErrUnsupportedProvider
	}
	if !c.Configured(provider) {
		return nil, nil, ErrNotConfigured
	}
	cfg := *pc.oauth
	cfg.RedirectURL = redirectURL
	return pc, &cfg, nil
}

// AuthorizeURL returns the provider consent URL carrying state.
func (c *Client) AuthorizeURL(provider Provider, redirectURL, state string) (string, error) {
	pc, cfg, err := c.configFor(provider, redirectURL)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, pc.extraAuth...), nil
}

// Exchange trades code for an access token and fetches the profile.
func (c *Client) Exchange(ctx context.Context, provider Provider, redirectURL, code string) (*Profile, error) {
	_, cfg, err := c.configFor(provider, redirectURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: empty code", ErrExchangeFailed)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", ErrExchangeFailed)
	}

	var profile *Profile
	switch provider {
	case Google:
		profile, err = c.googleProfile(ctx, tok)
	case Facebook:
		profile, err = c.facebookProfile(ctx, cfg, tok)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: profile has no email", ErrExchangeFailed)
	}
	if profile.ProviderUserID == "" {
		return nil, fmt.Errorf("%w: profile has no subject", ErrExchangeFailed)
	}
	return profile, nil
}

func (c *Client) googleProfile(ctx context.Context, tok *oauth2.Token) (*Profile, error) {
	info, err := c.google.UserInfo(oidc.ClientContext(ctx, c.httpClient), oauth2.StaticTokenSource(tok))
	if err != nil {
		return nil, err
	}
	var claims struct {
		Name string `json:"name"`
	}
	_ = info.Claims(&claims)

	return &Profile{
		Provider:       Google,
		ProviderUserID: info.Subject,
		Email:          info.Email,
		DisplayName:    claims.Name,
	}, nil
}

func (c *Client) facebookProfile(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (*Profile, error) {
	pc := c.providers[Facebook]
	u, err := url.Parse(pc.profileURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("fields", "id,name,email")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph status %d", resp.StatusCode)
	}

	var body struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBytes)).Decode(&body); err != nil {
		return nil, err
	}
	return &Profile{
		Provider:       Facebook,
		ProviderUserID: body.ID,
		Email:          body.Email,
		DisplayName:    body.Name,
	}, nil
}
