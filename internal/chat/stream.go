package chat

import (
	"context"
	"time"
)

const (
	// FragmentSize is the number of characters per streamed fragment.
	FragmentSize = 5

	// FragmentDelay paces fragment emission so clients render progressively.
	FragmentDelay = 50 * time.Millisecond
)

// StreamEvent is one item of a streamed reply. Exactly one event with Done
// set terminates every stream, after any content or error events.
type StreamEvent struct {
	Content string
	Err     error
	Done    bool
}

// SendStream runs one turn and delivers the reply as paced fragments.
//
// Persistence matches Send: the user turn is written before invocation and
// the assistant turn (reply, fallback, or error marker) before any fragment
// is emitted, so the transcript is complete even if the client disconnects
// mid-stream.
func (s *Service) SendStream(ctx context.Context, sessionID, model, message string) <-chan StreamEvent {
	events := make(chan StreamEvent, 1)
	go func() {
		defer close(events)
		defer func() { events <- StreamEvent{Done: true} }()

		reply, err := s.Send(ctx, sessionID, model, message)
		if err != nil {
			events <- StreamEvent{Err: err}
			return
		}

		fragments := Fragments(reply, FragmentSize)
		for i, f := range fragments {
			select {
			case events <- StreamEvent{Content: f}:
			case <-ctx.Done():
				return
			}
			if i == len(fragments)-1 {
				break
			}
			select {
			case <-time.After(FragmentDelay):
			case <-ctx.Done():
				return
			}
		}
	}()
	return events
}

// Fragments splits s into character windows of at most size runes. A
// non-positive size yields the whole string as one fragment.
func Fragments(s string, size int) []string {
	if s == "" {
		return nil
	}
	if size <= 0 {
		return []string{s}
	}
	runes := []rune(s)
	out := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
