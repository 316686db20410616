// Package ssh reaches remdit servers that accept uploads over SFTP and push
// saves as SSH global requests.
package ssh

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/krau/remdit/client"
	"github.com/krau/remdit/config"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

const (
	Scheme      = "ssh://"
	defaultPort = "22"
	dialTimeout = 30 * time.Second
)

// IsSSHAddr reports whether addr should be served by this transport.
func IsSSHAddr(addr string) bool {
	return strings.HasPrefix(strings.ToLower(addr), Scheme)
}

func hostPort(addr string) (string, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse server URL: %w", client.ErrConfiguration, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: server URL %q has no host", client.ErrConfiguration, addr)
	}
	port := u.Port()
	if port == "" {
		port = defaultPort
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

type Client struct {
	srvConf    config.Server
	conf       *ssh.ClientConfig
	l          *log.Logger
	filepath   string
	client     *ssh.Client
	globalReqs <-chan *ssh.Request
	router     *client.Router
	session    *client.Session
}

func NewClient(ctx context.Context, serverConf config.Server, filepath string) *Client {
	return &Client{
		srvConf:  serverConf,
		filepath: filepath,
		router:   client.NewRouter(ctx, filepath),
		l:        log.FromContext(ctx).WithPrefix("ssh"),
	}
}

func (c *Client) dial(ctx context.Context) error {
	addr, err := hostPort(c.srvConf.Addr)
	if err != nil {
		return err
	}
	_, privKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(privKey)
	if err != nil {
		return fmt.Errorf("failed to create signer from private key: %w", err)
	}

	auth := []ssh.AuthMethod{ssh.PublicKeys(signer)}
	if c.srvConf.Key != "" {
		auth = append(auth, ssh.Password(c.srvConf.Key))
	}
	c.conf = &ssh.ClientConfig{
		User:            fmt.Sprintf("remdit-gocli-%s-%s", runtime.GOOS, runtime.GOARCH),
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %w", client.ErrTransport, err)
	}
	sshconn, chans, reqs, err := ssh.NewClientConn(conn, addr, c.conf)
	if err != nil {
		conn.Close()
		if strings.Contains(err.Error(), "unable to authenticate") {
			return fmt.Errorf("%w: %w", client.ErrAuth, err)
		}
		return fmt.Errorf("%w: failed to establish SSH connection: %w", client.ErrTransport, err)
	}
	// global requests are the save channel, keep them away from ssh.Client
	discard := make(chan *ssh.Request)
	close(discard)
	c.globalReqs = reqs
	c.client = ssh.NewClient(sshconn, chans, discard)
	return nil
}

// CreateSession connects, uploads the file and asks the server for its edit URL.
func (c *Client) CreateSession(ctx context.Context) (*client.Session, error) {
	if err := c.dial(ctx); err != nil {
		return nil, err
	}
	if err := c.uploadFile(); err != nil {
		return nil, err
	}
	info, err := c.getUploadedFileInfo()
	if err != nil {
		return nil, err
	}
	c.l.Debugf("file info retrieved: %v", info)
	if info.FileID == "" || info.EditUrl == "" {
		return nil, fmt.Errorf("%w: file info must carry id and edit url", client.ErrResponseFormat)
	}
	c.session = &client.Session{ID: info.FileID, EditURL: info.EditUrl}
	return c.session, nil
}

func (c *Client) uploadFile() error {
	sftpClient, err := sftp.NewClient(c.client)
	if err != nil {
		return fmt.Errorf("%w: failed to create sftp client: %w", client.ErrTransport, err)
	}
	defer sftpClient.Close()

	content, err := os.ReadFile(c.filepath)
	if err != nil {
		return fmt.Errorf("%w: failed to read local file %s: %w", client.ErrLocalIO, c.filepath, err)
	}

	remoteFilePath := filepath.Base(c.filepath)
	remoteFile, err := sftpClient.Create(remoteFilePath)
	if err != nil {
		return fmt.Errorf("%w: failed to create remote file %s: %w", client.ErrTransport, remoteFilePath, err)
	}
	defer remoteFile.Close()

	if _, err := remoteFile.Write(content); err != nil {
		return fmt.Errorf("%w: failed to copy file content: %w", client.ErrTransport, err)
	}
	c.l.Debug("file uploaded", "remote", remoteFilePath, "size", len(content))
	return nil
}

func (c *Client) getUploadedFileInfo() (*FileInfoPayload, error) {
	ok, data, err := c.client.SendRequest(requestFileInfo, true, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send file info request: %w", client.ErrTransport, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: failed to get file info: %s", client.ErrProtocol, data)
	}
	var fileInfo FileInfoPayload
	if err := ssh.Unmarshal(data, &fileInfo); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal file info: %w", client.ErrProtocol, err)
	}
	return &fileInfo, nil
}

// Connect asks the server to start pushing saves.
func (c *Client) Connect(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("%w: no session available", client.ErrTransport)
	}
	ok, _, err := c.client.SendRequest(requestListen, true, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to send listen request: %w", client.ErrTransport, err)
	}
	if !ok {
		return fmt.Errorf("%w: server did not accept listen request", client.ErrTransport)
	}
	return nil
}

func (c *Client) HandleMessages(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			c.l.Info("context done, stopping server listener")
			return nil
		case req, ok := <-c.globalReqs:
			if !ok {
				c.l.Info("server connection closed, stopping server listener")
				return nil
			}
			if req == nil {
				continue
			}
			switch req.Type {
			case requestFileSave:
				content := string(req.Payload)
				result := c.router.Dispatch(client.InboundMessage{Type: client.MessageTypeSave, Content: &content})
				if err := req.Reply(result.Success, []byte(result.Reason)); err != nil {
					c.l.Warn("failed to reply to save request", "error", err)
				}
			default:
				c.l.Warn("unknown request type", "type", req.Type)
				if req.WantReply {
					_ = req.Reply(false, []byte("unknown request type"))
				}
			}
		}
	}
}

// Close ends the SSH connection. SSH has no close codes, they are only logged.
func (c *Client) Close(code client.CloseCode, reason string) error {
	if c.client == nil {
		return nil
	}
	c.l.Debug("closing connection", "code", int(code), "reason", reason)
	return c.client.Close()
}

var _ client.Transport = (*Client)(nil)
