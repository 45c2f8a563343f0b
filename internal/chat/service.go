package chat

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/docchat/docchat/internal/agent"
	"github.com/docchat/docchat/internal/ai"
)

const (
	// ErrorPrefix marks assistant turns that record a failed invocation.
	ErrorPrefix = "Error: "

	// FallbackReply substitutes for an empty agent response.
	FallbackReply = "I apologize, but I couldn't process that request."

	// titleMaxChars caps the derived session title length, in characters.
	titleMaxChars = 30
)

// AgentSource resolves a live agent for a (session, model) pair.
type AgentSource interface {
	GetOrCreate(ctx context.Context, sessionID, model string) (agent.Agent, error)
}

// Service owns the conversational turn lifecycle: persist the user turn,
// invoke the agent, persist the outcome.
type Service struct {
	repo   *Repo
	agents AgentSource
	log    *logrus.Logger
}

func NewService(repo *Repo, agents AgentSource, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{repo: repo, agents: agents, log: log}
}

// Send runs one synchronous turn and returns the assistant reply.
//
// Ordering is load-bearing: the user turn is persisted before the agent is
// invoked, so a crash mid-invocation still leaves the question recorded. The
// user turn is never rolled back; a failed invocation adds an error-marked
// assistant turn instead.
func (s *Service) Send(ctx context.Context, sessionID, model, message string) (string, error) {
	return s.send(ctx, sessionID, model, message, nil)
}

// SendInteractive behaves like Send but forwards reply fragments to onDelta
// as they become available, for callers that render progressively.
func (s *Service) SendInteractive(ctx context.Context, sessionID, model, message string, onDelta func(string)) (string, error) {
	return s.send(ctx, sessionID, model, message, onDelta)
}

func (s *Service) send(ctx context.Context, sessionID, model, message string, onDelta func(string)) (string, error) {
	if sessionID == "" {
		sessionID = DefaultSession
	}

	a, err := s.agents.GetOrCreate(ctx, sessionID, model)
	if err != nil {
		return "", err
	}

	if err := s.repo.InsertTurn(ctx, &Chat{
		SessionID: sessionID,
		Message:   message,
		IsUser:    true,
	}); err != nil {
		return "", err
	}

	reply, invokeErr := s.invoke(ctx, a, message, onDelta)
	if invokeErr != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      invokeErr,
		}).Error("agent invocation failed")
		if err := s.repo.InsertTurn(ctx, &Chat{
			SessionID: sessionID,
			Message:   ErrorPrefix + invokeErr.Error(),
			IsUser:    false,
		}); err != nil {
			s.log.WithError(err).Error("persisting error turn failed")
		}
		return "", invokeErr
	}

	if reply == "" {
		reply = FallbackReply
	}
	if err := s.repo.InsertTurn(ctx, &Chat{
		SessionID: sessionID,
		Message:   reply,
		IsUser:    false,
	}); err != nil {
		return "", err
	}
	return reply, nil
}

func (s *Service) invoke(ctx context.Context, a agent.Agent, message string, onDelta func(string)) (string, error) {
	st, ok := a.(agent.Streamer)
	if !ok || onDelta == nil {
		return a.Respond(ctx, message)
	}

	chunks, errs := st.RespondStream(ctx, message)
	var reply []byte
	for c := range chunks {
		reply = append(reply, c...)
		onDelta(c)
	}
	if err, ok := <-errs; ok && err != nil {
		return "", err
	}
	return string(reply), nil
}

// History returns all turns of a session ordered by creation time.
func (s *Service) History(ctx context.Context, sessionID string) ([]Chat, error) {
	if sessionID == "" {
		sessionID = DefaultSession
	}
	return s.repo.ListBySession(ctx, sessionID)
}

// RecentMessages returns up to limit recent turns as model messages, oldest
// first, for seeding agent memory.
func (s *Service) RecentMessages(ctx context.Context, sessionID string, limit int) ([]ai.Message, error) {
	return s.repo.RecentMessages(ctx, sessionID, limit)
}

// Sessions lists every distinct session with its message count, latest
// timestamp, and a title derived from the earliest message. Computed fresh
// per call.
func (s *Service) Sessions(ctx context.Context) ([]SessionSummary, error) {
	groups, err := s.repo.SessionGroups(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]SessionSummary, 0, len(groups))
	for _, g := range groups {
		summary := SessionSummary{ID: g.SessionID, MessageCount: g.MessageCount}
		if latest, err := s.repo.LatestMessage(ctx, g.SessionID); err == nil {
			summary.Timestamp = latest.Timestamp
		}
		if first, err := s.repo.EarliestMessage(ctx, g.SessionID); err == nil {
			summary.Title = truncateTitle(first.Message)
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Timestamp.After(summaries[j].Timestamp)
	})
	return summaries, nil
}

func truncateTitle(message string) string {
	if utf8.RuneCountInString(message) <= titleMaxChars {
		return message
	}
	runes := []rune(message)
	return string(runes[:titleMaxChars]) + "..."
}
