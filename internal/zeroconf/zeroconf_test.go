package zeroconf_test

import (
	"context"
	"testing"
	"time"

	"github.com/micro-nova/powctl-go/internal/zeroconf"
)

func TestNew(t *testing.T) {
	if svc := zeroconf.New("powctl-test", 8080, nil); svc == nil {
		t.Fatal("New() returned nil")
	}
}

func TestStart_InvalidPort(t *testing.T) {
	svc := zeroconf.New("powctl-test", 0, nil)
	if err := svc.Start(context.Background()); err == nil {
		t.Error("Start with port 0 returned nil error")
	}
}

// TestStart_Cancel starts the service and verifies Start returns once the
// context is done.
func TestStart_Cancel(t *testing.T) {
	svc := zeroconf.New("powctl-test", 18080, []string{"model=powctl"})

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- svc.Start(ctx)
	}()

	select {
	case err := <-done:
		// mDNS may be unavailable in the test environment
		if err != nil {
			t.Logf("Start returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return within 3 seconds after context cancellation")
	}
}
