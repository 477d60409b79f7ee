// Package indicator surfaces assistant state as desktop notifications and
// synthesizes the fallback acknowledgement tone.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/logging"
)

const dispatchTimeout = 400 * time.Millisecond

// Notifier posts replaceable freedesktop notifications through busctl.
// Every method is a no-op when notifications are disabled.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu             sync.Mutex
	notificationID uint32
	shown          string
}

// New creates a notifier from config.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	msgs := messagesFromEnv()
	if text := strings.TrimSpace(cfg.TextListening); text != "" {
		msgs.listening = text
	}
	if text := strings.TrimSpace(cfg.TextThinking); text != "" {
		msgs.thinking = text
	}
	return &Notifier{
		cfg:      cfg,
		logger:   logging.Component(logger, "indicator"),
		messages: msgs,
	}
}

// ShowListening signals that the assistant is waiting for the user to speak.
func (n *Notifier) ShowListening(ctx context.Context) {
	n.show(ctx, n.messages.listening)
}

// ShowThinking signals that an utterance is being transcribed and answered.
func (n *Notifier) ShowThinking(ctx context.Context) {
	n.show(ctx, n.messages.thinking)
}

// Hide dismisses the current notification.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.mu.Lock()
	id := n.notificationID
	n.notificationID = 0
	n.shown = ""
	n.mu.Unlock()

	if id == 0 {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return desktopDismiss(ctx, id)
	})
}

// show replaces the current notification unless it already carries text.
func (n *Notifier) show(ctx context.Context, text string) {
	if !n.cfg.Enable {
		return
	}
	n.mu.Lock()
	replaceID, shown := n.notificationID, n.shown
	n.mu.Unlock()
	if shown == text && replaceID != 0 {
		return
	}

	n.run(ctx, func(ctx context.Context) error {
		id, err := desktopNotify(ctx, n.cfg.DesktopAppName, replaceID, text, n.cfg.TimeoutMS)
		if err != nil {
			return err
		}
		n.mu.Lock()
		n.notificationID = id
		n.shown = text
		n.mu.Unlock()
		return nil
	})
}

// run executes one dispatch with a bounded timeout. Failures are debug-logged only.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.logger.Debug("indicator dispatch failed", "error", err.Error())
	}
}
