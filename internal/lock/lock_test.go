package lock

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLockerSingleHolder(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "c1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	ok, err = l.Acquire(ctx, "c1", time.Minute)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second acquire on a held lease must fail")
	}

	// a different campaign is unaffected
	ok, _ = l.Acquire(ctx, "c2", time.Minute)
	if !ok {
		t.Fatal("independent key must acquire")
	}
}

func TestMemoryLockerReleaseFreesLease(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	if ok, _ := l.Acquire(ctx, "c1", time.Minute); !ok {
		t.Fatal("acquire failed")
	}
	if err := l.Release(ctx, "c1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := l.Acquire(ctx, "c1", time.Minute); !ok {
		t.Fatal("acquire after release must succeed")
	}
}

func TestMemoryLockerExpiryRecoversCrashedOwner(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	if ok, _ := l.Acquire(ctx, "c1", 10*time.Millisecond); !ok {
		t.Fatal("acquire failed")
	}
	time.Sleep(20 * time.Millisecond)

	if ok, _ := l.Acquire(ctx, "c1", time.Minute); !ok {
		t.Fatal("expired lease must be reacquirable")
	}
}

func TestMemoryLockerRefreshExtends(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	if ok, _ := l.Acquire(ctx, "c1", 30*time.Millisecond); !ok {
		t.Fatal("acquire failed")
	}
	time.Sleep(20 * time.Millisecond)
	if err := l.Refresh(ctx, "c1", time.Minute); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if ok, _ := l.Acquire(ctx, "c1", time.Minute); ok {
		t.Fatal("refreshed lease must still be held")
	}
}
