package client

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

type CloseCode int

const (
	CloseNormal    CloseCode = 1000
	CloseGoingAway CloseCode = 1001
)

// maxCloseReason is the largest reason a websocket close frame can carry.
const maxCloseReason = 123

// closeWait bounds how long Serve waits for the message loop after an interrupt.
var closeWait = 5 * time.Second

// Transport is one way of reaching a remdit server for a single session.
type Transport interface {
	CreateSession(ctx context.Context) (*Session, error)
	Connect(ctx context.Context) error
	HandleMessages(ctx context.Context) error
	Close(code CloseCode, reason string) error
}

// Serve runs the message loop of a connected transport until it ends or interrupt
// fires, then performs the closing handshake exactly once. A loop error is closed
// with CloseGoingAway and returned; everything else closes with CloseNormal.
func Serve(ctx context.Context, t Transport, interrupt <-chan struct{}) error {
	logger := log.FromContext(ctx)
	done := make(chan error, 1)
	go func() {
		done <- t.HandleMessages(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			closeQuietly(logger, t, CloseGoingAway, err.Error())
			return err
		}
		logger.Debug("session ended")
		closeQuietly(logger, t, CloseNormal, "")
		return nil
	case <-interrupt:
		logger.Debug("received interrupt signal")
	}

	closeQuietly(logger, t, CloseNormal, "")
	select {
	case err := <-done:
		if err != nil {
			logger.Debug("message loop stopped", "error", err)
		}
	case <-time.After(closeWait):
		logger.Warn("message loop did not stop after close")
	}
	return nil
}

func closeQuietly(logger *log.Logger, t Transport, code CloseCode, reason string) {
	if err := t.Close(code, reason); err != nil {
		logger.Debug("failed to close connection", "code", int(code), "error", err)
	}
}

func truncateReason(reason string) string {
	if len(reason) <= maxCloseReason {
		return reason
	}
	cut := maxCloseReason
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}
