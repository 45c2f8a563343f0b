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

func TestOllamaStreamChatDeliversChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"he"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"llo"},"done":false}`)
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model")
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

func TestOllamaStreamChatStopsWhenCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 100; i++ {
			fmt.Fprintln(w, `{"message":{"role":"assistant","content":"x"},"done":false}`)
		}
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	p := NewOllamaProvider(srv.URL, "test-model")
	_, errs := p.StreamChat(ctx, []Message{{Role: RoleUser, Content: "hi"}})
	cancel()

	// Nobody drains the chunk channel; the producer must still exit.
	select {
	case <-errs:
	case <-time.After(2 * time.Second):
		t.Fatal("stream goroutine did not stop after cancellation")
	}
}
