package provider

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogProviderSend(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	p := NewLogProvider(zap.New(core))

	resp, err := p.Send(context.Background(), testReminder())
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.MessageID == "" {
		t.Fatal("MessageID should be set")
	}

	entries := logs.FilterMessage("vaccination reminder").All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["vaccinationId"]; got != "vac-1" {
		t.Fatalf("vaccinationId = %v, want vac-1", got)
	}
}

func TestLogProviderHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewLogProvider(nil).Send(ctx, testReminder()); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestNewSelectsProvider(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		settings Settings
		want     string
		wantErr  bool
	}{
		{name: "default is log", settings: Settings{}, want: ChannelLog},
		{name: "log", settings: Settings{Channel: "LOG"}, want: ChannelLog},
		{name: "webhook", settings: Settings{Channel: "webhook", WebhookURL: "https://hooks.example.com/r"}, want: ChannelWebhook},
		{name: "webhook without url", settings: Settings{Channel: "webhook"}, wantErr: true},
		{name: "unknown", settings: Settings{Channel: "pigeon"}, wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p, err := New(context.Background(), tc.settings, zap.NewNop())
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if p.Channel() != tc.want {
				t.Fatalf("Channel() = %q, want %q", p.Channel(), tc.want)
			}
		})
	}
}
