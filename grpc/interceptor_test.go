package grpc

import (
	"context"
	"testing"

	"github.com/panyam/storeauth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestNewPublicMethodsConfig(t *testing.T) {
	config := NewPublicMethodsConfig("/pkg.Svc/Method1", "/pkg.Svc/Method2")
	if !config.RequireAuth {
		t.Error("expected RequireAuth to be true")
	}
	if !config.PublicMethods["/pkg.Svc/Method1"] || !config.PublicMethods["/pkg.Svc/Method2"] {
		t.Error("expected Method1 and Method2 to be public")
	}
	if config.PublicMethods["/pkg.Svc/Method3"] {
		t.Error("expected Method3 to not be public")
	}
	if OptionalAuthConfig().RequireAuth {
		t.Error("expected RequireAuth to be false for optional auth")
	}
}

func TestUnaryAuthInterceptor_RequireAuth_NoUser(t *testing.T) {
	interceptor := UnaryAuthInterceptor(nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Method"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		t.Error("handler should not be called")
		return nil, nil
	})

	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected grpc status error, got %v", err)
	}
	if st.Code() != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated code, got %v", st.Code())
	}
}

func TestUnaryAuthInterceptor_WithUser(t *testing.T) {
	interceptor := UnaryAuthInterceptor(nil)

	md := metadata.Pairs(DefaultMetadataKeyUserID, "42", DefaultMetadataKeyEmail, "a@b.com")
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Method"}

	var session *storeauth.Session
	_, err := interceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		session = storeauth.SessionFromContext(ctx)
		return "result", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session == nil {
		t.Fatal("handler should see the session")
	}
	if session.User.ID != "42" || session.User.Email != "a@b.com" {
		t.Errorf("unexpected session user: %+v", session.User)
	}
}

func TestUnaryAuthInterceptor_PublicMethod(t *testing.T) {
	interceptor := UnaryAuthInterceptor(NewPublicMethodsConfig("/pkg.Svc/PublicMethod"))
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/PublicMethod"}

	handlerCalled := false
	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		if storeauth.SessionFromContext(ctx) != nil {
			t.Error("expected no session")
		}
		return "result", nil
	})

	if err != nil {
		t.Fatalf("unexpected error for public method: %v", err)
	}
	if !handlerCalled {
		t.Error("handler should have been called for public method")
	}
}

func TestUnaryAuthInterceptor_OptionalAuth(t *testing.T) {
	interceptor := UnaryAuthInterceptor(OptionalAuthConfig())
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Method"}

	handlerCalled := false
	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return "result", nil
	})

	if err != nil {
		t.Fatalf("unexpected error with optional auth: %v", err)
	}
	if !handlerCalled {
		t.Error("handler should have been called with optional auth")
	}
}

// mockServerStream implements grpc.ServerStream for testing
type mockServerStream struct {
	ctx context.Context
}

func (m *mockServerStream) Context() context.Context     { return m.ctx }
func (m *mockServerStream) SetHeader(metadata.MD) error  { return nil }
func (m *mockServerStream) SendHeader(metadata.MD) error { return nil }
func (m *mockServerStream) SetTrailer(metadata.MD)       {}
func (m *mockServerStream) SendMsg(any) error            { return nil }
func (m *mockServerStream) RecvMsg(any) error            { return nil }

func TestStreamAuthInterceptor_RequireAuth_NoUser(t *testing.T) {
	interceptor := StreamAuthInterceptor(nil)
	stream := &mockServerStream{ctx: context.Background()}
	info := &grpc.StreamServerInfo{FullMethod: "/pkg.Svc/StreamMethod"}

	err := interceptor(nil, stream, info, func(srv any, ss grpc.ServerStream) error {
		t.Error("handler should not be called")
		return nil
	})

	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected grpc status error, got %v", err)
	}
	if st.Code() != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated code, got %v", st.Code())
	}
}

func TestStreamAuthInterceptor_WithUser(t *testing.T) {
	interceptor := StreamAuthInterceptor(nil)

	md := metadata.Pairs(DefaultMetadataKeyUserID, "42")
	stream := &mockServerStream{ctx: metadata.NewIncomingContext(context.Background(), md)}
	info := &grpc.StreamServerInfo{FullMethod: "/pkg.Svc/StreamMethod"}

	var userID string
	err := interceptor(nil, stream, info, func(srv any, ss grpc.ServerStream) error {
		if s := storeauth.SessionFromContext(ss.Context()); s != nil {
			userID = s.User.ID
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "42" {
		t.Errorf("stream context user = %q, want 42", userID)
	}
}

func TestStreamAuthInterceptor_PublicMethod(t *testing.T) {
	interceptor := StreamAuthInterceptor(NewPublicMethodsConfig("/pkg.Svc/PublicStream"))
	stream := &mockServerStream{ctx: context.Background()}
	info := &grpc.StreamServerInfo{FullMethod: "/pkg.Svc/PublicStream"}

	handlerCalled := false
	err := interceptor(nil, stream, info, func(srv any, ss grpc.ServerStream) error {
		handlerCalled = true
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error for public stream: %v", err)
	}
	if !handlerCalled {
		t.Error("handler should have been called for public stream")
	}
}
