package ctxutil

import (
	"context"
	"testing"
)

func TestUserIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		if userID := GetUserID(ctx); userID != "" {
			t.Errorf("Expected empty string, got %s", userID)
		}
	})

	t.Run("with user ID", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		expectedUserID := "U1234567890"
		ctx = WithUserID(ctx, expectedUserID)
		userID := GetUserID(ctx)
		if userID != expectedUserID {
			t.Errorf("Expected userID %s, got %s", expectedUserID, userID)
		}
	})
}

func TestSessionIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		if sessionID := GetSessionID(ctx); sessionID != "" {
			t.Errorf("Expected empty string, got %s", sessionID)
		}
	})

	t.Run("with session ID", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		expectedSessionID := "6d1f9efc-9c5e-4f8b-a6bc-1a6f1a1a2b3c"
		ctx = WithSessionID(ctx, expectedSessionID)
		sessionID := GetSessionID(ctx)
		if sessionID != expectedSessionID {
			t.Errorf("Expected sessionID %s, got %s", expectedSessionID, sessionID)
		}
	})
}

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		if requestID, ok := GetRequestID(ctx); ok || requestID != "" {
			t.Error("Expected GetRequestID to return empty string and false for empty context")
		}
	})

	t.Run("with request ID", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		expectedRequestID := "req-12345"
		ctx = WithRequestID(ctx, expectedRequestID)
		requestID, ok := GetRequestID(ctx)
		if !ok {
			t.Error("Expected GetRequestID to return true")
		}
		if requestID != expectedRequestID {
			t.Errorf("Expected requestID %s, got %s", expectedRequestID, requestID)
		}
	})
}

func TestContextChaining(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Chain multiple context values
	ctx = WithUserID(ctx, "U123")
	ctx = WithSessionID(ctx, "S456")
	ctx = WithRequestID(ctx, "req-789")

	// Verify all values are preserved
	if userID := GetUserID(ctx); userID != "U123" {
		t.Error("UserID not preserved in chained context")
	}
	if sessionID := GetSessionID(ctx); sessionID != "S456" {
		t.Error("SessionID not preserved in chained context")
	}
	if requestID, ok := GetRequestID(ctx); !ok || requestID != "req-789" {
		t.Error("RequestID not preserved in chained context")
	}
}

func TestPreserveTracing(t *testing.T) {
	t.Parallel()
	t.Run("preserves all tracing values", func(t *testing.T) {
		t.Parallel()
		parentCtx := context.Background()
		parentCtx = WithUserID(parentCtx, "user123")
		parentCtx = WithSessionID(parentCtx, "session456")
		parentCtx = WithRequestID(parentCtx, "req789")

		detachedCtx := PreserveTracing(parentCtx)

		if userID := GetUserID(detachedCtx); userID != "user123" {
			t.Errorf("Expected userID 'user123', got %q", userID)
		}
		if sessionID := GetSessionID(detachedCtx); sessionID != "session456" {
			t.Errorf("Expected sessionID 'session456', got %q", sessionID)
		}
		if requestID, ok := GetRequestID(detachedCtx); !ok || requestID != "req789" {
			t.Errorf("Expected requestID 'req789', got %q (ok=%v)", requestID, ok)
		}
	})

	t.Run("handles partial values", func(t *testing.T) {
		t.Parallel()
		partialCtx := context.Background()
		partialCtx = WithUserID(partialCtx, "user_only")
		detachedPartial := PreserveTracing(partialCtx)

		if userID := GetUserID(detachedPartial); userID != "user_only" {
			t.Errorf("Expected userID 'user_only', got %q", userID)
		}
		if sessionID := GetSessionID(detachedPartial); sessionID != "" {
			t.Errorf("Expected empty sessionID, got %q", sessionID)
		}
	})

	t.Run("handles empty context", func(t *testing.T) {
		t.Parallel()
		emptyDetached := PreserveTracing(context.Background())

		if userID := GetUserID(emptyDetached); userID != "" {
			t.Errorf("Expected empty userID, got %q", userID)
		}
		if sessionID := GetSessionID(emptyDetached); sessionID != "" {
			t.Errorf("Expected empty sessionID, got %q", sessionID)
		}
		if requestID, ok := GetRequestID(emptyDetached); ok || requestID != "" {
			t.Errorf("Expected empty requestID, got %q (ok=%v)", requestID, ok)
		}
	})

	t.Run("creates independent context (cancellation)", func(t *testing.T) {
		t.Parallel()
		cancelCtx, cancel := context.WithCancel(WithUserID(context.Background(), "user_cancel"))
		detachedCancel := PreserveTracing(cancelCtx)

		cancel() // Cancel parent

		// Parent should be canceled
		if err := cancelCtx.Err(); err == nil {
			t.Error("Expected parent context to be canceled")
		}

		// Detached child should NOT be canceled
		if err := detachedCancel.Err(); err != nil {
			t.Errorf("Expected detached context to be active, got error: %v", err)
		}

		// But values should still be preserved
		if userID := GetUserID(detachedCancel); userID != "user_cancel" {
			t.Errorf("Expected userID 'user_cancel', got %q", userID)
		}
	})
}
