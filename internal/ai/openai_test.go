package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func chatCompletionChunk(content string) string {
	return fmt.Sprintf(`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":%q}}]}`, content)
}

func TestOpenAIStreamChatDeliversChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n", chatCompletionChunk("he"))
		fmt.Fprintf(w, "data: %s\n", chatCompletionChunk("llo"))
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIOptions{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	chunks, errs := p.StreamChat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})

	var b strings.Builder
	for c := range chunks {
		b.WriteString(c)
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if b.String() != "hello" {
		t.Fatalf("unexpected streamed reply: %q", b.String())
	}
}

func TestOpenAIStreamChatStopsWhenCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 100; i++ {
			fmt.Fprintf(w, "data: %s\n", chatCompletionChunk("x"))
		}
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIOptions{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	_, errs := p.StreamChat(ctx, []Message{{Role: RoleUser, Content: "hi"}})
	cancel()

	// Nobody drains the chunk channel; the producer must still exit.
	select {
	case <-errs:
	case <-time.After(2 * time.Second):
		t.Fatal("stream goroutine did not stop after cancellation")
	}
}
