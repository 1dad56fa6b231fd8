package skype

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"skypeconnector/pkg/config"
	"skypeconnector/pkg/digester"
)

const (
	DefaultTokenURL = "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"
	DefaultScope    = "https://api.botframework.com/.default"

	requestTimeout    = 15 * time.Second
	tokenExpiryMargin = time.Minute
)

// Client authenticates against Bot Framework and delivers reply activities.
type Client struct {
	appID       string
	appPassword string
	tokenURL    string
	scope       string
	http        *http.Client
	log         *slog.Logger
	now         func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// NewClient validates Skype credentials and constructs a client.
func NewClient(cfg config.SkypeConfig, log *slog.Logger) (*Client, error) {
	appID := strings.TrimSpace(cfg.AppID)
	if appID == "" {
		return nil, errors.New("skype.app_id is required")
	}
	if strings.TrimSpace(cfg.AppPassword) == "" {
		return nil, errors.New("skype.app_password is required")
	}

	tokenURL := strings.TrimSpace(cfg.TokenURL)
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	scope := strings.TrimSpace(cfg.Scope)
	if scope == "" {
		scope = DefaultScope
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		appID:       appID,
		appPassword: cfg.AppPassword,
		tokenURL:    tokenURL,
		scope:       scope,
		http:        &http.Client{Timeout: requestTimeout},
		log:         log.With("component", "channel.skype"),
		now:         time.Now,
	}, nil
}

// Reply posts msg to the conversation of the inbound activity.
func (c *Client) Reply(ctx context.Context, inbound Activity, msg digester.Message) error {
	if inbound.Conversation == nil || inbound.Conversation.ID == "" {
		return errors.New("inbound activity has no conversation")
	}
	serviceURL := strings.TrimRight(strings.TrimSpace(inbound.ServiceURL), "/")
	if serviceURL == "" {
		return errors.New("inbound activity has no service url")
	}

	body, err := json.Marshal(ReplyTo(inbound, msg))
	if err != nil {
		return fmt.Errorf("encode reply activity: %w", err)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/v3/conversations/%s/activities/%s",
		serviceURL, url.PathEscape(inbound.Conversation.ID), url.PathEscape(inbound.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send reply activity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("reply activity rejected with %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}

// accessToken returns a cached token, fetching a new one shortly before expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.appID},
		"client_secret": {c.appPassword},
		"scope":         {c.scope},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var decoded tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if decoded.AccessToken == "" {
		return "", errors.New("token response has no access_token")
	}

	c.token = decoded.AccessToken
	c.expiresAt = c.now().Add(time.Duration(decoded.ExpiresIn)*time.Second - tokenExpiryMargin)
	c.log.Debug("Fetched Bot Framework token", "expires_in", decoded.ExpiresIn)

	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}
