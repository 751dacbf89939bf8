package transport

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantLevel zapcore.Level
	}{
		{name: "fiber error keeps its code", err: fiber.NewError(fiber.StatusNotFound, "vaccination not found"), wantCode: fiber.StatusNotFound, wantLevel: zapcore.WarnLevel},
		{name: "plain error is internal", err: errors.New("boom"), wantCode: fiber.StatusInternalServerError, wantLevel: zapcore.ErrorLevel},
		{name: "gateway timeout is logged as error", err: fiber.NewError(fiber.StatusGatewayTimeout, "timeout"), wantCode: fiber.StatusGatewayTimeout, wantLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.New(core))})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()

			if resp.StatusCode != tt.wantCode {
				t.Fatalf("status = %d, want %d (body=%s)", resp.StatusCode, tt.wantCode, body)
			}
			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("log entries = %d, want 1", len(entries))
			}
			if entries[0].Level != tt.wantLevel {
				t.Fatalf("log level = %s, want %s", entries[0].Level, tt.wantLevel)
			}
		})
	}
}
