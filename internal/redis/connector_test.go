package redis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/arcade/internal/logger"
)

func validOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "localhost:6379",
		ConnectTimeout: time.Second,
		RetryInterval:  5 * time.Millisecond,
		MaxWait:        20 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestConnectOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ConnectOptions)
		wantErr string
	}{
		{"valid", func(o *ConnectOptions) {}, ""},
		{"no addr", func(o *ConnectOptions) { o.Addr = "" }, "Addr"},
		{"no connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }, "ConnectTimeout"},
		{"no retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }, "RetryInterval"},
		{"no max wait", func(o *ConnectOptions) { o.MaxWait = 0 }, "MaxWait"},
		{"no ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }, "PingTimeout"},
		{"negative threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }, "WarnThreshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOptions()
			tt.mutate(&o)
			err := o.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestNextWait(t *testing.T) {
	if got := nextWait(2*time.Second, 10*time.Second); got != 4*time.Second {
		t.Errorf("nextWait() = %v, want 4s", got)
	}
	if got := nextWait(8*time.Second, 10*time.Second); got != 10*time.Second {
		t.Errorf("nextWait() = %v, want cap 10s", got)
	}
}

type flakyPinger struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyPinger) Ping(ctx context.Context) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	cmd := redis.NewStatusCmd(ctx, "ping")
	if f.calls <= f.failures {
		cmd.SetErr(errors.New("connection refused"))
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func TestWaitReadyRetries(t *testing.T) {
	p := &flakyPinger{failures: 2}
	if err := waitReady(context.Background(), p, validOptions(), logger.NewNop()); err != nil {
		t.Fatalf("waitReady() error = %v", err)
	}
	if p.calls != 3 {
		t.Errorf("ping calls = %d, want 3", p.calls)
	}
}

func TestWaitReadyGivesUp(t *testing.T) {
	opts := validOptions()
	opts.ConnectTimeout = 30 * time.Millisecond

	p := &flakyPinger{failures: 1 << 30}
	err := waitReady(context.Background(), p, opts, logger.NewNop())
	if err == nil || !strings.Contains(err.Error(), "redis unavailable") {
		t.Errorf("waitReady() error = %v, want unavailable", err)
	}
}
