package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewHealthChecker(t *testing.T) {
	hc := NewHealthChecker()

	if hc == nil {
		t.Fatal("NewHealthChecker returned nil")
	}
	if hc.checks == nil || hc.readyChecks == nil || hc.liveChecks == nil {
		t.Error("check maps not initialized")
	}
	if hc.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", hc.timeout, DefaultTimeout)
	}
}

func TestRegisterChecksAreSeparate(t *testing.T) {
	hc := NewHealthChecker()

	var general, ready, live int
	hc.RegisterCheck("general", func(context.Context) Check { general++; return Check{Status: StatusHealthy} })
	hc.RegisterReadinessCheck("ready", func(context.Context) Check { ready++; return Check{Status: StatusHealthy} })
	hc.RegisterLivenessCheck("live", func(context.Context) Check { live++; return Check{Status: StatusHealthy} })

	ctx := context.Background()
	resp := hc.Check(ctx)
	hc.CheckReadiness(ctx)
	hc.CheckLiveness(ctx)
	hc.CheckLiveness(ctx)

	if general != 1 || ready != 1 || live != 2 {
		t.Errorf("calls general=%d ready=%d live=%d, want 1 1 2", general, ready, live)
	}
	check, ok := resp.Checks["general"]
	if !ok {
		t.Fatal("check result not in response")
	}
	if check.Name != "general" {
		t.Errorf("check name defaulted to %q, want general", check.Name)
	}
}

func TestWorstStatusWins(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy beats degraded", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
		{"no checks", nil, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			for i, s := range tt.statuses {
				status := s
				hc.RegisterCheck(string(rune('a'+i)), func(context.Context) Check { return Check{Status: status} })
			}
			if got := hc.Check(context.Background()).Status; got != tt.want {
				t.Errorf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestChecksReceiveDeadline(t *testing.T) {
	hc := NewHealthChecker()
	hc.SetTimeout(50 * time.Millisecond)

	hc.RegisterCheck("slow", func(ctx context.Context) Check {
		if _, ok := ctx.Deadline(); !ok {
			return Check{Status: StatusUnhealthy, Message: "no deadline"}
		}
		<-ctx.Done()
		return Check{Status: StatusDegraded, Message: ctx.Err().Error()}
	})

	resp := hc.Check(context.Background())
	if resp.Checks["slow"].Status != StatusDegraded {
		t.Errorf("slow check = %+v, want degraded after deadline", resp.Checks["slow"])
	}
}

func TestDatabaseCheck(t *testing.T) {
	ok := DatabaseCheck(func(context.Context) error { return nil })(context.Background())
	if ok.Status != StatusHealthy {
		t.Errorf("status = %s, want healthy", ok.Status)
	}

	bad := DatabaseCheck(func(context.Context) error { return errors.New("connection refused") })(context.Background())
	if bad.Status != StatusUnhealthy || bad.Message != "connection refused" {
		t.Errorf("got %+v, want unhealthy with message", bad)
	}
}

func TestDirectoryCheck(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "deb_graph.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	check := DirectoryCheck("output", dir)(context.Background())
	if check.Status != StatusHealthy {
		t.Fatalf("status = %s (%s), want healthy", check.Status, check.Message)
	}
	if check.Details["graphs"] != 1 {
		t.Errorf("graphs = %v, want 1", check.Details["graphs"])
	}

	missing := DirectoryCheck("output", filepath.Join(dir, "nope"))(context.Background())
	if missing.Status != StatusUnhealthy {
		t.Errorf("missing dir status = %s, want unhealthy", missing.Status)
	}

	file := DirectoryCheck("output", filepath.Join(dir, "deb_graph.json"))(context.Background())
	if file.Status != StatusUnhealthy {
		t.Errorf("file status = %s, want unhealthy", file.Status)
	}
}

func TestWatcherCheck(t *testing.T) {
	tests := []struct {
		running bool
		err     error
		want    Status
	}{
		{true, nil, StatusHealthy},
		{true, errors.New("too many open files"), StatusDegraded},
		{false, nil, StatusDegraded},
	}
	for _, tt := range tests {
		got := WatcherCheck(func() (bool, error) { return tt.running, tt.err })(context.Background())
		if got.Status != tt.want {
			t.Errorf("running=%v err=%v: status = %s, want %s", tt.running, tt.err, got.Status, tt.want)
		}
	}
}

func TestMemoryCheck(t *testing.T) {
	if got := MemoryCheck(0)(context.Background()); got.Status != StatusHealthy {
		t.Errorf("unbounded status = %s, want healthy", got.Status)
	}
	if got := MemoryCheck(1)(context.Background()); got.Status != StatusDegraded {
		t.Errorf("1-byte limit status = %s, want degraded", got.Status)
	}
}

func TestHandlers(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		handler func(*HealthChecker) http.HandlerFunc
		want    int
	}{
		{"health healthy", StatusHealthy, (*HealthChecker).HTTPHandler, http.StatusOK},
		{"health degraded", StatusDegraded, (*HealthChecker).HTTPHandler, http.StatusOK},
		{"health unhealthy", StatusUnhealthy, (*HealthChecker).HTTPHandler, http.StatusServiceUnavailable},
		{"ready degraded", StatusDegraded, (*HealthChecker).ReadinessHandler, http.StatusServiceUnavailable},
		{"live healthy", StatusHealthy, (*HealthChecker).LivenessHandler, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			check := func(context.Context) Check { return Check{Status: tt.status} }
			hc.RegisterCheck("c", check)
			hc.RegisterReadinessCheck("c", check)
			hc.RegisterLivenessCheck("c", check)

			rec := httptest.NewRecorder()
			tt.handler(hc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d", rec.Code, tt.want)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			var resp Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.status {
				t.Errorf("body status = %s, want %s", resp.Status, tt.status)
			}
		})
	}
}
