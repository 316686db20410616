package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/krau/remdit/config"
)

var _ Transport = (*Client)(nil)

// maxMessageSize bounds a single inbound frame, which carries a whole file.
const maxMessageSize = 64 << 20

// Client talks to a remdit server over HTTP and a websocket.
type Client struct {
	conn       *websocket.Conn
	l          *log.Logger
	serverConf config.Server
	httpClient *http.Client
	router     *Router
	session    *Session
	filePath   string
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient for the session upload.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(ctx context.Context, serverConf config.Server, filePath string, opts ...Option) *Client {
	c := &Client{
		serverConf: serverConf,
		filePath:   filePath,
		httpClient: http.DefaultClient,
		router:     NewRouter(ctx, filePath),
		l:          log.FromContext(ctx).WithPrefix("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionURL returns the upload endpoint for addr. Addresses without a scheme use https.
func SessionURL(addr string) (*url.URL, error) {
	lower := strings.ToLower(addr)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		addr = "https://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse server URL: %w", ErrConfiguration, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: server URL %q has no host", ErrConfiguration, addr)
	}
	return u.JoinPath("api", "session"), nil
}

// ConnectURL returns the websocket endpoint of a session, ws for http and wss otherwise.
func ConnectURL(addr, sessionID string) (*url.URL, error) {
	u, err := SessionURL(addr)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "http" {
		u.Scheme = "ws"
	} else {
		u.Scheme = "wss"
	}
	return u.JoinPath(sessionID), nil
}

func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	u, err := SessionURL(c.serverConf.Addr)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(c.filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read file: %w", ErrLocalIO, err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("document", filepath.Base(c.filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrConfiguration, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.serverConf.Key != "" {
		req.Header.Set("X-API-Key", c.serverConf.Key)
	}

	c.l.Debug("creating session", "url", u.String(), "size", len(content))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to post session: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuth
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: server returned status: %d", ErrProtocol, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, fmt.Errorf("%w: unexpected content-type: %q", ErrProtocol, ct)
	}

	var sessionResp SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sessionResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", ErrProtocol, err)
	}
	if sessionResp.SessionID == "" || sessionResp.EditURL == "" {
		return nil, fmt.Errorf("%w: response must carry sessionid and editurl", ErrResponseFormat)
	}

	c.session = &Session{ID: sessionResp.SessionID, EditURL: sessionResp.EditURL}
	return c.session, nil
}

func (c *Client) GetEditURL() string {
	if c.session == nil {
		return ""
	}
	return c.session.EditURL
}

func (c *Client) Connect(ctx context.Context) error {
	if c.session == nil {
		return fmt.Errorf("%w: no session id available", ErrTransport)
	}
	if c.conn != nil {
		return fmt.Errorf("%w: already connected", ErrTransport)
	}
	u, err := ConnectURL(c.serverConf.Addr, c.session.ID)
	if err != nil {
		return err
	}
	dialOption := &websocket.DialOptions{
		OnPingReceived: func(ctx context.Context, payload []byte) bool {
			c.l.Debug("ping received")
			return true
		},
	}
	if c.serverConf.Key != "" {
		header := http.Header{}
		header.Set("X-API-Key", c.serverConf.Key)
		dialOption.HTTPHeader = header
	}
	c.l.Debug("connecting", "url", u.String())
	conn, _, err := websocket.Dial(ctx, u.String(), dialOption)
	if err != nil {
		return fmt.Errorf("%w: failed to connect to websocket: %w", ErrTransport, err)
	}
	conn.SetReadLimit(maxMessageSize)
	c.conn = conn
	return nil
}

// HandleMessages reads until the server closes the connection or an error occurs.
// A close frame from the server ends the loop without error.
func (c *Client) HandleMessages(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("%w: not connected", ErrTransport)
	}
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				c.l.Info("websocket connection closed", "code", int(status))
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("%w: failed to read message: %w", ErrTransport, err)
		}
		if typ != websocket.MessageText {
			c.l.Debug("ignoring non-text message", "size", len(data))
			continue
		}
		msg, err := DecodeInbound(data)
		if err != nil {
			return err
		}
		result := c.router.Dispatch(msg)
		if result == nil {
			continue
		}
		if err := c.SendResultMessage(ctx, *result); err != nil {
			c.l.Warn("failed to send result message", "error", err)
		}
	}
}

func (c *Client) Close(code CloseCode, reason string) error {
	if c.conn != nil {
		return c.conn.Close(websocket.StatusCode(code), truncateReason(reason))
	}
	return nil
}

func (c *Client) SendResultMessage(ctx context.Context, result ResultMessage) error {
	return wsjson.Write(ctx, c.conn, result)
}
