package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

const testSecret = "middleware-test-secret-32-bytes-long"

// echoUser is a handler that returns the caller it sees.
func echoUser(seen *string) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		*seen = GetUserID(ctx)
		return connect.NewResponse(&api.GetProfileResponse{}), nil
	}
}

func TestRequireAuth(t *testing.T) {
	verifier := auth.NewVerifier(testSecret, "")
	token, err := verifier.Issue(&models.User{ID: "alice", Email: "alice@example.com", Name: "Alice"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name     string
		header   string
		wantUser string
		wantErr  bool
	}{
		{name: "valid token", header: "Bearer " + token, wantUser: "alice"},
		{name: "lowercase scheme", header: "bearer " + token, wantUser: "alice"},
		{name: "missing header", header: "", wantErr: true},
		{name: "wrong scheme", header: "Basic " + token, wantErr: true},
		{name: "no token", header: "Bearer ", wantErr: true},
		{name: "garbage token", header: "Bearer abc.def.ghi", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := connect.NewRequest(&api.GetProfileRequest{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}

			var seen string
			_, err := RequireAuth(verifier)(echoUser(&seen))(context.Background(), req)
			if tt.wantErr {
				if connect.CodeOf(err) != connect.CodeUnauthenticated {
					t.Errorf("expected unauthenticated, got %v", err)
				}
				if seen != "" {
					t.Error("handler ran without authentication")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if seen != tt.wantUser {
				t.Errorf("user = %q, want %q", seen, tt.wantUser)
			}
		})
	}
}

func TestRequireAuth_Claims(t *testing.T) {
	verifier := auth.NewVerifier(testSecret, "")
	token, err := verifier.Issue(&models.User{ID: "bob", Email: "bob@example.com", Name: "Bob"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	req := connect.NewRequest(&api.GetProfileRequest{})
	req.Header().Set("Authorization", "Bearer "+token)

	var claims *auth.Claims
	next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		claims = GetClaims(ctx)
		return connect.NewResponse(&api.GetProfileResponse{}), nil
	}
	if _, err := RequireAuth(verifier)(next)(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims == nil || claims.Email != "bob@example.com" || claims.Name != "Bob" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestGetUserID_Empty(t *testing.T) {
	if got := GetUserID(context.Background()); got != "" {
		t.Errorf("GetUserID = %q, want empty", got)
	}
	if got := GetClaims(context.Background()); got != nil {
		t.Errorf("GetClaims = %+v, want nil", got)
	}
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithUser(context.Background(), "alice", nil)

	ok := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&api.GetProfileResponse{}), nil
	}
	if _, err := LoggingInterceptor(logger)(ok)(ctx, connect.NewRequest(&api.GetProfileRequest{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "level=INFO") || !strings.Contains(out, "user_id=alice") {
		t.Errorf("success log = %q", out)
	}

	buf.Reset()
	notFound := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("no such group"))
	}
	if _, err := LoggingInterceptor(logger)(notFound)(ctx, connect.NewRequest(&api.GetProfileRequest{})); err == nil {
		t.Fatal("expected error to pass through")
	}
	if out := buf.String(); !strings.Contains(out, "level=WARN") || !strings.Contains(out, "code=not_found") {
		t.Errorf("client error log = %q", out)
	}

	buf.Reset()
	broken := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, errors.New("disk on fire")
	}
	LoggingInterceptor(logger)(broken)(ctx, connect.NewRequest(&api.GetProfileRequest{}))
	if out := buf.String(); !strings.Contains(out, "level=ERROR") {
		t.Errorf("internal error log = %q", out)
	}
}

func TestMetricsInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ok := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&api.GetProfileResponse{}), nil
	}
	failing := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeAborted, errors.New("conflict"))
	}
	MetricsInterceptor(m)(ok)(context.Background(), connect.NewRequest(&api.GetProfileRequest{}))
	MetricsInterceptor(m)(failing)(context.Background(), connect.NewRequest(&api.GetProfileRequest{}))

	n, err := testutil.GatherAndCount(reg, "splitledger_rpc_duration_seconds")
	if err != nil {
		t.Fatalf("GatherAndCount failed: %v", err)
	}
	if n != 2 {
		t.Errorf("rpc_duration_seconds series = %d, want 2 (ok and aborted)", n)
	}
}
