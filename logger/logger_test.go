package logger

import (
	"context"
	"testing"
)

func TestContextLogging(t *testing.T) {
	// Create a context with pool and connection information
	ctx := context.Background()
	ctx = context.WithValue(ctx, PoolNameKey, "primary")
	ctx = context.WithValue(ctx, ConnIDKey, "conn-123")
	ctx = context.WithValue(ctx, BackendKindKey, "postgres")

	// Test context-aware logging
	InfoContext(ctx, "Test message with context")

	// Test appending to existing args
	InfoContext(ctx, "Test message with context and args", "key", "value")
}

func TestLevelName(t *testing.T) {
	if name := LevelName(LevelTrace); name != "TRACE" {
		t.Errorf("Expected TRACE, got %s", name)
	}
	if name := LevelName(LevelFatal); name != "FATAL" {
		t.Errorf("Expected FATAL, got %s", name)
	}
}
