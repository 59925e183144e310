package background

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
)

func TestShutdownWaitsForTasks(t *testing.T) {
	log, _ := test.NewNullLogger()
	bg := New(log)

	stopped := make(chan struct{})
	bg.Go("loop", func(ctx context.Context) {
		<-ctx.Done()
		close(stopped)
	})

	if err := bg.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-stopped:
	default:
		t.Fatal("expected the task to have returned")
	}
}

func TestShutdownTimesOut(t *testing.T) {
	log, _ := test.NewNullLogger()
	bg := New(log)

	release := make(chan struct{})
	defer close(release)
	bg.Go("stuck", func(context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := bg.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a deadline error, got %v", err)
	}
}

func TestPanicIsLogged(t *testing.T) {
	log, hook := test.NewNullLogger()
	bg := New(log)

	bg.Go("boom", func(context.Context) { panic("boom") })

	if err := bg.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e := hook.LastEntry(); e == nil || e.Data["task"] != "boom" {
		t.Fatal("expected the panic to be logged")
	}
}
