package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("postgres://localhost/pixoform")
	if cfg.MaxConns != 10 || cfg.MinConns != 2 {
		t.Errorf("unexpected pool bounds: max=%d min=%d", cfg.MaxConns, cfg.MinConns)
	}
	if cfg.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("expected 30m lifetime, got %v", cfg.ConnMaxLifetime)
	}
	if cfg.PingAttempts < 1 {
		t.Errorf("expected at least one ping attempt, got %d", cfg.PingAttempts)
	}
}

func TestPoolConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantMax   int32
		wantMin   int32
		wantApp   string
		wantDial  time.Duration
		wantError bool
	}{
		{
			name:     "defaults applied",
			cfg:      DefaultConfig("postgres://u:p@db:5432/pixoform"),
			wantMax:  10,
			wantMin:  2,
			wantApp:  "pixoform-api",
			wantDial: 10 * time.Second,
		},
		{
			name: "min above max is ignored",
			cfg: Config{
				URI:      "postgres://u:p@db:5432/pixoform",
				MaxConns: 3,
				MinConns: 7,
			},
			wantMax: 3,
			wantMin: 0,
		},
		{
			name:    "application name from the URI wins",
			cfg:     Config{URI: "postgres://u:p@db:5432/pixoform?application_name=migrator", ApplicationName: "pixoform-api", MaxConns: 4},
			wantMax: 4,
			wantApp: "migrator",
		},
		{
			name:      "invalid URI",
			cfg:       DefaultConfig("postgres://localhost:notaport/pixoform"),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := poolConfig(tt.cfg)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.MaxConns != tt.wantMax {
				t.Errorf("expected MaxConns %d, got %d", tt.wantMax, got.MaxConns)
			}
			if got.MinConns != tt.wantMin {
				t.Errorf("expected MinConns %d, got %d", tt.wantMin, got.MinConns)
			}
			if app := got.ConnConfig.RuntimeParams["application_name"]; app != tt.wantApp {
				t.Errorf("expected application_name %q, got %q", tt.wantApp, app)
			}
			if tt.wantDial > 0 && got.ConnConfig.ConnectTimeout != tt.wantDial {
				t.Errorf("expected connect timeout %v, got %v", tt.wantDial, got.ConnConfig.ConnectTimeout)
			}
		})
	}
}

// flakyPinger fails its first n pings, n being failures.
type flakyPinger struct {
	failures int
	calls    int
	deadline bool
}

func (p *flakyPinger) Ping(ctx context.Context) error {
	p.calls++
	if _, ok := ctx.Deadline(); ok {
		p.deadline = true
	}
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestPing_RetriesUntilReachable(t *testing.T) {
	p := &flakyPinger{failures: 2}
	cfg := Config{PingAttempts: 3, RetryInterval: time.Millisecond, ConnectTimeout: time.Second}

	if err := ping(context.Background(), p, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.calls != 3 {
		t.Errorf("expected 3 pings, got %d", p.calls)
	}
	if !p.deadline {
		t.Error("expected each ping to carry the connect timeout")
	}
}

func TestPing_GivesUp(t *testing.T) {
	p := &flakyPinger{failures: 10}
	cfg := Config{PingAttempts: 2, RetryInterval: time.Millisecond}

	err := ping(context.Background(), p, cfg)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if p.calls != 2 {
		t.Errorf("expected 2 pings, got %d", p.calls)
	}
	if !strings.Contains(err.Error(), "after 2 attempts") || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPing_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &flakyPinger{failures: 10}

	err := ping(ctx, p, Config{PingAttempts: 5, RetryInterval: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("expected a single ping before giving up, got %d", p.calls)
	}
}

func TestConnect_InvalidURI(t *testing.T) {
	_, err := Connect(context.Background(), DefaultConfig("postgres://localhost:notaport/pixoform"))
	if err == nil {
		t.Fatal("expected error for invalid URI, got nil")
	}
}
