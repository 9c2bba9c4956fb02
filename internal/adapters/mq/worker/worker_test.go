package worker_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/okian/talentflow/internal/adapters/mq/queue"
	"github.com/okian/talentflow/internal/adapters/mq/worker"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type recorder struct {
	mu    sync.Mutex
	seen  []string
	fails map[string]error
	done  []string
}

func newRecorder() *recorder { return &recorder{fails: map[string]error{}} }

func (r *recorder) Process(_ context.Context, j worker.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, j.Key())
	return r.fails[j.TalentID]
}

func (r *recorder) onDone(j worker.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, j.Key())
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen), len(r.done)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {

		q := newMockQueue()
		rec := newRecorder()
		w := worker.NewInMemoryWorker(q, rec, worker.WithName("test-worker"), worker.WithOnDone(rec.onDone))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is queued", func() {
			q.jobs <- model.Dispatch{CampaignID: "c1", TalentID: "t1", EnqueuedAt: time.Now()}

			convey.Convey("Then it is processed and the done hook fires", func() {
				convey.So(eventually(func() bool { _, d := rec.counts(); return d == 1 }), convey.ShouldBeTrue)
				convey.So(rec.seen, convey.ShouldResemble, []string{"c1/t1"})
			})
		})

		convey.Convey("When processing fails", func() {
			rec.fails["t2"] = errors.New("boom")
			q.jobs <- model.Dispatch{CampaignID: "c1", TalentID: "t2"}
			q.jobs <- model.Dispatch{CampaignID: "c1", TalentID: "t3"}

			convey.Convey("Then the hook still fires and the worker keeps going", func() {
				convey.So(eventually(func() bool { _, d := rec.counts(); return d == 2 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a worker whose queue closes", t, func() {
		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, worker.ProcessorFunc(func(context.Context, worker.Job) error { return nil }))
		done := make(chan struct{})
		go func() { w.Run(context.Background()); close(done) }()

		_ = q.Close()

		convey.Convey("Then Run returns", func() {
			select {
			case <-done:
				convey.So(true, convey.ShouldBeTrue)
			case <-time.After(time.Second):
				convey.So("worker did not stop", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {

		convey.Convey("When a processor returns an error", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))
			rec := newRecorder()
			rec.fails["t2"] = errors.New("boom")
			pool := worker.NewPool(2, q, rec, worker.WithOnDone(rec.onDone))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)
			convey.So(q.Enqueue(ctx, model.Dispatch{CampaignID: "c1", TalentID: "t1"}), convey.ShouldBeTrue)
			convey.So(q.Enqueue(ctx, model.Dispatch{CampaignID: "c1", TalentID: "t2"}), convey.ShouldBeTrue)

			convey.Convey("Then only that job is counted as failed", func() {
				convey.So(eventually(func() bool { _, d := rec.counts(); return d == 2 }), convey.ShouldBeTrue)
				convey.So(pool.Failed(), convey.ShouldEqual, int64(1))
			})
		})

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, newMockQueue(), newRecorder())

			convey.Convey("Then it picks a default size", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When started with three workers and several jobs", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(16))
			rec := newRecorder()
			pool := worker.NewPool(3, q, rec, worker.WithOnDone(rec.onDone))
			convey.So(pool.Size(), convey.ShouldEqual, 3)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			for _, id := range []string{"t1", "t2", "t3", "t4", "t5"} {
				convey.So(q.Enqueue(ctx, model.Dispatch{CampaignID: "c1", TalentID: id, EnqueuedAt: time.Now()}), convey.ShouldBeTrue)
			}

			convey.Convey("Then every job is processed exactly once", func() {
				convey.So(eventually(func() bool { s, _ := rec.counts(); return s == 5 }), convey.ShouldBeTrue)
				seen := map[string]int{}
				rec.mu.Lock()
				for _, k := range rec.seen {
					seen[k]++
				}
				rec.mu.Unlock()
				for _, n := range seen {
					convey.So(n, convey.ShouldEqual, 1)
				}
				convey.So(pool.Processed(), convey.ShouldEqual, int64(5))
			})

			convey.Convey("Then no job is counted as failed", func() {
				convey.So(eventually(func() bool { s, _ := rec.counts(); return s == 5 }), convey.ShouldBeTrue)
				convey.So(pool.Failed(), convey.ShouldEqual, int64(0))
			})

			convey.Convey("Then shutdown drains and closes the queue", func() {
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				s, d := rec.counts()
				convey.So(s, convey.ShouldEqual, 5)
				convey.So(d, convey.ShouldEqual, 5)
			})
		})
	})
}
