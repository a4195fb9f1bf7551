package shared

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAndGetTraceID(t *testing.T) {
	// Test setting and getting trace ID
	ctx := context.Background()

	// Verify no trace ID in original context
	traceID := GetTraceID(ctx)
	assert.Empty(t, traceID, "Expected empty trace ID in original context")

	// Set trace ID
	ctxWithTrace := SetTraceID(ctx)

	// Verify trace ID is now set
	traceID = GetTraceID(ctxWithTrace)
	assert.NotEmpty(t, traceID, "Expected non-empty trace ID after setting")
	assert.Len(t, traceID, 32, "Expected trace ID length to be 32 hex characters (16 bytes)")

	// Original context should remain unchanged
	traceID = GetTraceID(ctx)
	assert.Empty(t, traceID, "Expected original context to remain unchanged")
}

func TestGetTraceIDWithInvalidContext(t *testing.T) {
	// Test getting trace ID with invalid context value
	ctx := context.WithValue(context.Background(), TraceIDKey, 123) // Not a string

	traceID := GetTraceID(ctx)
	assert.Empty(t, traceID, "Expected empty trace ID when context has invalid type")
}

func TestGenerateTraceID(t *testing.T) {
	// Test generating trace ID
	traceID := generateTraceID()
	assert.NotEmpty(t, traceID, "Expected non-empty trace ID")
	assert.Len(t, traceID, 32, "Expected trace ID length to be 32 hex characters (16 bytes)")

	// Verify trace ID is valid hex
	_, err := hex.DecodeString(traceID)
	assert.NoError(t, err, "Expected valid hex string")

	// Generate multiple IDs to ensure uniqueness (probabilistic test)
	const iterations = 1000
	seen := make(map[string]bool, iterations)

	for i := 0; i < iterations; i++ {
		id := generateTraceID()
		assert.Len(t, id, 32, "Expected all trace IDs to be 32 hex characters")
		assert.False(t, seen[id], "Expected all trace IDs to be unique")
		seen[id] = true
	}

	// Verify we have exactly the right number of unique IDs
	assert.Len(t, seen, iterations, "Expected all generated trace IDs to be unique")
}
