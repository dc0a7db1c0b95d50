package logger_test

import (
	"context"
	"lending/pkg/logger"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetupWithLevel(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		level       string
		wantLevel   zapcore.Level
		wantErr     bool
	}{
		{name: "development default", environment: logger.DevelopmentEnvironment, wantLevel: zapcore.DebugLevel},
		{name: "production default", environment: logger.ProductionEnvironment, wantLevel: zapcore.InfoLevel},
		{name: "override", environment: logger.ProductionEnvironment, level: "warn", wantLevel: zapcore.WarnLevel},
		{name: "unknown environment falls back to development", environment: "staging", wantLevel: zapcore.DebugLevel},
		{name: "invalid level", environment: logger.DevelopmentEnvironment, level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logger.SetupWithLevel(tt.environment, tt.level)
			if tt.wantErr {
				require.Error(t, err)

				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantLevel, logger.Get(context.Background()).Level())
		})
	}
}

func TestSetup(t *testing.T) {
	logger.Setup(logger.ProductionEnvironment)
	require.False(t, logger.IsDebug(context.Background()))

	logger.Setup(logger.DevelopmentEnvironment)
	require.True(t, logger.IsDebug(context.Background()))
}

func TestContextLogger(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)
	core, logs := observer.New(zapcore.InfoLevel)

	ctx := logger.WithLogger(context.Background(), zap.New(core))
	require.False(t, logger.IsDebug(ctx))

	ctx = logger.WithFields(ctx, zap.String("applicationID", "app-1"))
	logger.Debug(ctx, "dropped")
	logger.Info(ctx, "Application submitted", zap.Int("documents", 2))
	logger.Warn(ctx, "Underwriting job already queued")
	logger.Error(ctx, "Underwriting failed")

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, "Application submitted", entries[0].Message)
	require.Equal(t, map[string]any{"applicationID": "app-1", "documents": int64(2)}, entries[0].ContextMap())
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, zapcore.ErrorLevel, entries[2].Level)

	require.NotSame(t, logger.Get(ctx), logger.Get(context.Background()))
}

func TestSlog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))

	logger.Slog(ctx).Info("river started", slog.String("queue", "default"))

	entries := logs.FilterMessage("river started").All()
	require.Len(t, entries, 1)
	require.Equal(t, "default", entries[0].ContextMap()["queue"])
}
