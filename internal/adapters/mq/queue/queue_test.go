package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/talentflow/internal/domain/model"
)

func job(campaign, talent string) model.Dispatch {
	return model.Dispatch{CampaignID: campaign, TalentID: talent, EnqueuedAt: time.Now()}
}

func TestInMemoryQueue_EnqueueDequeue(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("c1", "t1")) {
		t.Fatal("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, job("c1", "t2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, job("c1", "t3")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Key() != "c1/t1" {
		t.Errorf("expected FIFO order, got %s", got.Key())
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, job("c1", "t1")) {
		t.Error("expected enqueue to fail with cancelled context")
	}
	if q.Capacity() != defaultQueueCapacity {
		t.Errorf("expected default capacity %d, got %d", defaultQueueCapacity, q.Capacity())
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()

	const producers, perProducer = 8, 50
	total := producers * perProducer

	var consumed sync.Map
	var wg sync.WaitGroup
	done := make(chan struct{})
	count := make(chan struct{}, total)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range q.Dequeue(ctx) {
				if _, dup := consumed.LoadOrStore(j.Key(), true); dup {
					t.Errorf("job %s consumed twice", j.Key())
				}
				count <- struct{}{}
			}
		}()
	}

	for p := 0; p < producers; p++ {
		go func(p int) {
			for n := 0; n < perProducer; n++ {
				d := job(fmt.Sprintf("c%d", p), fmt.Sprintf("t%d", n))
				for !q.Enqueue(ctx, d) {
					time.Sleep(time.Millisecond)
				}
			}
		}(p)
	}

	go func() {
		for i := 0; i < total; i++ {
			<-count
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for consumers")
	}

	_ = q.Close()
	wg.Wait()
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("c1", "t1")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, job("c1", "t2")) {
		t.Error("expected enqueue to fail after closing")
	}

	// Jobs queued before Close are still delivered, then the channel closes.
	ch := q.Dequeue(ctx)
	if j, ok := <-ch; !ok || j.TalentID != "t1" {
		t.Errorf("expected queued job t1 after close, got %v ok=%v", j, ok)
	}
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("expected dequeue channel to be closed within timeout")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
