// Package dispatch routes inbound chat messages to the quiz engine or to
// command handlers. Both the HTTP gateway and the console front end sit on
// top of it.
package dispatch

import (
	"context"
	"errors"
	"strings"

	"github.com/oztrk/careerbot/internal/catalog"
	"github.com/oztrk/careerbot/internal/interview"
	"github.com/oztrk/careerbot/internal/render"
	"go.uber.org/zap"
)

// Commands recognized on the chat surface.
const (
	CommandCareer = "!career"
	CommandBrowse = "!browse"
	CommandCancel = "!cancel"
)

// Dispatcher is the transport-agnostic message router.
type Dispatcher struct {
	engine  *interview.Engine
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// New creates a Dispatcher.
func New(engine *interview.Engine, cat *catalog.Catalog, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{engine: engine, catalog: cat, logger: log}
}

// Handle processes one inbound message and returns the replies to deliver.
// An empty slice means silence: plain text with no quiz in progress is
// deliberately ignored. Failures are absorbed into user-facing notices so
// one user's trouble never leaks past their own conversation.
func (d *Dispatcher) Handle(ctx context.Context, user interview.User, text string) []string {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, interview.CommandPrefix) {
		return d.handleCommand(ctx, user, trimmed)
	}

	replies, err := d.engine.Submit(ctx, user, text)
	if err != nil {
		d.logger.Error("processing answer failed",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return []string{render.CompletionFailed(user.DisplayName)}
	}
	return replies
}

func (d *Dispatcher) handleCommand(ctx context.Context, user interview.User, text string) []string {
	command := strings.ToLower(strings.Fields(text)[0])

	switch command {
	case CommandCareer:
		reply, err := d.engine.Start(ctx, user)
		if errors.Is(err, interview.ErrSessionActive) {
			return []string{render.SessionActive(user.DisplayName)}
		}
		if err != nil {
			d.logger.Error("starting quiz failed",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
			return []string{render.StartFailed(user.DisplayName)}
		}
		return []string{reply}

	case CommandBrowse:
		return []string{render.Browse(d.catalog.GroupByCategory())}

	case CommandCancel:
		if d.engine.Abandon(user) {
			return []string{render.Cancelled(user.DisplayName)}
		}
		return []string{render.NothingToCancel(user.DisplayName)}

	default:
		return []string{render.UnknownCommand(command)}
	}
}
