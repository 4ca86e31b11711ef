package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

func TestRetryGenerate(t *testing.T) {
	errTransient := errors.New("503 unavailable")

	tests := []struct {
		name       string
		failures   int
		maxRetries int
		wantCalls  int
		wantErr    bool
	}{
		{name: "first attempt succeeds", failures: 0, maxRetries: 3, wantCalls: 1},
		{name: "succeeds after retries", failures: 2, maxRetries: 3, wantCalls: 3},
		{name: "gives up", failures: 5, maxRetries: 3, wantCalls: 3, wantErr: true},
		{name: "at least one attempt", failures: 5, maxRetries: 0, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := retryGenerate(context.Background(), zap.NewNop(), time.Millisecond, tt.maxRetries, func() (string, error) {
				calls++
				if calls <= tt.failures {
					return "", errTransient
				}
				return "ok", nil
			})

			if calls != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, calls)
			}
			if tt.wantErr {
				if !errors.Is(err, errTransient) {
					t.Fatalf("expected wrapped transient error, got %v", err)
				}
				return
			}
			if err != nil || got != "ok" {
				t.Fatalf("expected ok, got %q, %v", got, err)
			}
		})
	}
}

func TestRetryGenerateStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := retryGenerate(ctx, zap.NewNop(), time.Hour, 5, func() (string, error) {
		calls++
		return "", errors.New("boom")
	})

	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
	if !errors.Is(err, context.Canceled) || !strings.Contains(err.Error(), "context cancelled") {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

func TestNewGeminiServiceRequiresAPIKey(t *testing.T) {
	if _, err := NewGeminiService(context.Background(), GeminiOptions{}, zap.NewNop()); err == nil {
		t.Fatalf("expected an error without API key")
	}
}

func TestTruncateRunesKeepsUTF8(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{name: "short ascii", text: "Go", n: 5, want: "Go"},
		{name: "ascii cut", text: "golang", n: 2, want: "go"},
		{name: "multibyte boundary", text: "Zürich résumé", n: 2, want: "Zü"},
		{name: "byte length over limit", text: "日本語", n: 3, want: "日本語"},
		{name: "cjk cut", text: "日本語テキスト", n: 4, want: "日本語テ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRunes(tt.text, tt.n)
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("truncated text is not valid UTF-8: %q", got)
			}
		})
	}

	long := strings.Repeat("é", maxEmbeddingChars+10)
	got := truncateRunes(long, maxEmbeddingChars)
	if utf8.RuneCountInString(got) != maxEmbeddingChars || !utf8.ValidString(got) {
		t.Fatalf("expected %d valid runes, got %d", maxEmbeddingChars, utf8.RuneCountInString(got))
	}
}
