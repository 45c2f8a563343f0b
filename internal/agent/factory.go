package agent

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/docchat/docchat/internal/ai"
)

// HistoryLoader returns the recent persisted turns for a session, oldest
// first, so a freshly constructed agent remembers earlier conversations.
type HistoryLoader func(ctx context.Context, sessionID string, limit int) ([]ai.Message, error)

// Factory constructs agents bound to a session and model.
type Factory struct {
	router    *ai.Router
	retriever Retriever
	history   HistoryLoader
	topK      int
	window    int
	log       *logrus.Logger
}

func NewFactory(router *ai.Router, retriever Retriever, history HistoryLoader, topK, window int, log *logrus.Logger) *Factory {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Factory{
		router:    router,
		retriever: retriever,
		history:   history,
		topK:      topK,
		window:    window,
		log:       log,
	}
}

// New builds an agent for the session/model pair. History loading fails
// soft: the agent starts with empty memory rather than failing the request.
func (f *Factory) New(ctx context.Context, sessionID, model string) (Agent, error) {
	provider, err := f.router.ForModel(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("agent: resolve provider for %q: %w", model, err)
	}

	var history []ai.Message
	if f.history != nil {
		history, err = f.history(ctx, sessionID, f.window)
		if err != nil {
			f.log.WithFields(logrus.Fields{
				"session_id": sessionID,
				"error":      err,
			}).Warn("history load failed, starting with empty memory")
			history = nil
		}
	}

	return NewConversational(provider, f.retriever, f.topK, f.window, history), nil
}
