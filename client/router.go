package client

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/krau/remdit/fileutil"
)

// Router applies inbound messages to the local file. It is shared by every transport
// and must be driven from a single goroutine.
type Router struct {
	filePath  string
	l         *log.Logger
	writeFile func(fp string, content string) error
}

func NewRouter(ctx context.Context, filePath string) *Router {
	return &Router{
		filePath:  filePath,
		l:         log.FromContext(ctx).WithPrefix("router"),
		writeFile: fileutil.Overwrite,
	}
}

// Dispatch handles one message and returns the result to send back, or nil when
// the message needs no acknowledgment.
func (r *Router) Dispatch(msg InboundMessage) *ResultMessage {
	switch msg.Type {
	case MessageTypeSave:
		if msg.Content == nil {
			r.l.Warn("received save message without content")
			return nil
		}
		return r.save(*msg.Content)
	default:
		r.l.Warn("unknown message type", "type", msg.Type)
		return nil
	}
}

func (r *Router) save(content string) *ResultMessage {
	if err := r.writeFile(r.filePath, content); err != nil {
		r.l.Error("failed to write file", "error", fmt.Errorf("%w: %w", ErrLocalIO, err))
		return &ResultMessage{Type: MessageTypeSaveResult, Success: false, Reason: ReasonSaveFailed}
	}
	r.l.Infof("file saved with %d bytes", len(content))
	return &ResultMessage{Type: MessageTypeSaveResult, Success: true, Reason: ReasonSaved}
}
