package future_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/Ronnie04NYC/wealth-transfer/internal/future"
)

func TestAwait_SettlesBeforeTimer(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := future.Go(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})

	got, err := f.Await(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestAwait_ErrorSettlesBeforeTimer(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("boom")
	f := future.Go(context.Background(), func(context.Context) (int, error) {
		return 0, boom
	})

	if _, err := f.Await(context.Background(), time.Second); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestAwait_TimerWinsLoserKeepsRunning(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	f := future.Go(context.Background(), func(ctx context.Context) (string, error) {
		<-release
		return "late", ctx.Err()
	})

	if _, err := f.Await(context.Background(), 10*time.Millisecond); !errors.Is(err, future.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	// The loser was not cancelled: it still settles with its own result.
	close(release)
	got, err := f.Result()
	if err != nil {
		t.Fatalf("loser should not observe cancellation, got %v", err)
	}
	if got != "late" {
		t.Errorf("got %q, want late", got)
	}
}

func TestCancel_StopsLoser(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := future.Go(context.Background(), func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	if _, err := f.Await(context.Background(), 10*time.Millisecond); !errors.Is(err, future.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	f.Cancel()

	if _, err := f.Result(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled after Cancel, got %v", err)
	}
}

func TestGo_CallerCancellationIsDetached(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	f := future.Go(ctx, func(runCtx context.Context) (bool, error) {
		<-release
		return runCtx.Err() == nil, nil
	})

	cancel()
	if _, err := f.Await(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected caller ctx error, got %v", err)
	}

	close(release)
	alive, _ := f.Result()
	if !alive {
		t.Error("cancelling the caller context must not cancel the future")
	}
}

func TestAwait_ZeroTimeoutWaits(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := future.Go(context.Background(), func(context.Context) (int, error) {
		time.Sleep(5 * time.Millisecond)
		return 7, nil
	})
	if got, err := f.Await(context.Background(), 0); err != nil || got != 7 {
		t.Fatalf("got (%d, %v), want (7, nil)", got, err)
	}
}
