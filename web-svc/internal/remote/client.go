// Package remote talks to catalog-svc over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"digital-menu/web-svc/internal/domain"

	"go.uber.org/zap"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// StatusError is a non-2xx answer from catalog-svc.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog-svc returned %d: %s", e.Code, e.Message)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	}
	return false
}

type Client struct {
	baseURL string
	http    HTTPClient
	logger  *zap.Logger
}

func NewClient(baseURL string, client HTTPClient, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
		logger:  logger,
	}
}

func (c *Client) CurrentUser(ctx context.Context, token string) (domain.Account, error) {
	var account domain.Account
	err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", token, nil, &account)
	return account, err
}

func (c *Client) PublicMenu(ctx context.Context, slug string) (domain.PublicMenu, error) {
	var menu domain.PublicMenu
	err := c.doJSON(ctx, http.MethodGet, "/api/public/"+url.PathEscape(slug), "", nil, &menu)
	return menu, err
}

func (c *Client) RecordEvent(ctx context.Context, event domain.Event) error {
	return c.doJSON(ctx, http.MethodPost, "/api/events", "", event, nil)
}

// ForUser returns a client bound to one owner's session token.
func (c *Client) ForUser(token string) *UserClient {
	return &UserClient{client: c, token: token}
}

// UserClient performs the owner's catalog writes.
type UserClient struct {
	client *Client
	token  string
}

func (u *UserClient) List(ctx context.Context) ([]domain.MenuItem, error) {
	var items []domain.MenuItem
	err := u.client.doJSON(ctx, http.MethodGet, "/api/menu/items", u.token, nil, &items)
	return items, err
}

func (u *UserClient) Create(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	var created domain.MenuItem
	err := u.client.doJSON(ctx, http.MethodPost, "/api/menu/items", u.token, item, &created)
	return created, err
}

func (u *UserClient) Update(ctx context.Context, id string, patch domain.MenuItemPatch) error {
	return u.client.doJSON(ctx, http.MethodPut, "/api/menu/items/"+url.PathEscape(id), u.token, patch, nil)
}

func (u *UserClient) Delete(ctx context.Context, id string) error {
	return u.client.doJSON(ctx, http.MethodDelete, "/api/menu/items/"+url.PathEscape(id), u.token, nil, nil)
}

func (u *UserClient) SetPositions(ctx context.Context, pairs []domain.PositionPair) error {
	return u.client.doJSON(ctx, http.MethodPut, "/api/menu/positions", u.token, pairs, nil)
}

func (u *UserClient) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="image"`)
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	var out struct {
		URL string `json:"url"`
	}
	err = u.client.do(ctx, http.MethodPost, "/api/uploads", u.token, body, form.FormDataContentType(), &out)
	return out.URL, err
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, token, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("catalog-svc call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(started)))

	if resp.StatusCode >= 300 {
		var failure struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &failure) != nil || failure.Error == "" {
			failure.Error = strings.TrimSpace(string(raw))
		}
		return &StatusError{Code: resp.StatusCode, Message: failure.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
