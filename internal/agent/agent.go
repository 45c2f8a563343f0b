// Package agent implements the retrieval-augmented conversational agent and
// the per-session cache that hands out live agent instances.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/docchat/docchat/internal/ai"
)

const systemPrompt = `You are a helpful AI assistant with access to excerpts from the user's uploaded documents.
When excerpts are provided below, ground your answer in them and say so when they do not cover the question.
Always be polite and professional in your responses.`

// Agent accepts one conversational turn at a time and remembers prior turns.
type Agent interface {
	// Respond produces the assistant reply for message, recording both
	// sides of the exchange in the agent's memory.
	Respond(ctx context.Context, message string) (string, error)

	// Memory returns the ordered turns accumulated so far.
	Memory() []ai.Message
}

// Streamer is an optional interface for agents that can deliver the reply
// incrementally. Both channels are closed when the turn ends; the full reply
// is recorded in memory either way.
type Streamer interface {
	RespondStream(ctx context.Context, message string) (<-chan string, <-chan error)
}

// Retriever finds document chunks relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// Conversational is the default Agent: a chat provider plus document
// retrieval and a bounded window of conversational memory.
type Conversational struct {
	mu        sync.Mutex
	provider  ai.Provider
	retriever Retriever
	topK      int
	window    int
	turns     []ai.Message
}

// NewConversational builds an agent. history seeds the memory and may be nil.
// retriever may be nil to disable document search.
func NewConversational(provider ai.Provider, retriever Retriever, topK, window int, history []ai.Message) *Conversational {
	if topK <= 0 {
		topK = 4
	}
	if window <= 0 || window > 100 {
		window = 20
	}
	return &Conversational{
		provider:  provider,
		retriever: retriever,
		topK:      topK,
		window:    window,
		turns:     append([]ai.Message(nil), history...),
	}
}

func (a *Conversational) Respond(ctx context.Context, message string) (string, error) {
	msgs, err := a.buildPrompt(ctx, message)
	if err != nil {
		return "", err
	}

	reply, err := a.provider.Chat(ctx, msgs)
	if err != nil {
		return "", err
	}

	a.remember(message, reply)
	return reply, nil
}

// RespondStream implements Streamer. When the underlying provider cannot
// stream, the full reply is emitted as a single chunk.
func (a *Conversational) RespondStream(ctx context.Context, message string) (<-chan string, <-chan error) {
	out := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		msgs, err := a.buildPrompt(ctx, message)
		if err != nil {
			errs <- err
			return
		}

		sp, ok := a.provider.(ai.StreamProvider)
		if !ok {
			reply, err := a.provider.Chat(ctx, msgs)
			if err != nil {
				errs <- err
				return
			}
			a.remember(message, reply)
			out <- reply
			return
		}

		chunks, perrs := sp.StreamChat(ctx, msgs)
		var b strings.Builder
		for c := range chunks {
			b.WriteString(c)
			select {
			case out <- c:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if err, ok := <-perrs; ok && err != nil {
			errs <- err
			return
		}

		a.remember(message, b.String())
	}()

	return out, errs
}

func (a *Conversational) Memory() []ai.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ai.Message(nil), a.turns...)
}

// buildPrompt assembles system prompt, retrieved context, recent memory,
// and the new user message.
func (a *Conversational) buildPrompt(ctx context.Context, message string) ([]ai.Message, error) {
	system := systemPrompt
	if a.retriever != nil {
		excerpts, err := a.retriever.Retrieve(ctx, message, a.topK)
		if err != nil {
			return nil, fmt.Errorf("agent: retrieve context: %w", err)
		}
		if len(excerpts) > 0 {
			system += "\n\nRelevant document excerpts:\n" + strings.Join(excerpts, "\n---\n")
		}
	}

	a.mu.Lock()
	recent := a.turns
	if len(recent) > a.window {
		recent = recent[len(recent)-a.window:]
	}
	msgs := make([]ai.Message, 0, len(recent)+2)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: system})
	msgs = append(msgs, recent...)
	a.mu.Unlock()

	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: message})
	return msgs, nil
}

func (a *Conversational) remember(message, reply string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.turns = append(a.turns,
		ai.Message{Role: ai.RoleUser, Content: message},
		ai.Message{Role: ai.RoleAssistant, Content: reply},
	)
}
