package async

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alisoncf/gscan/constants"
)

type collector struct {
	mu      sync.Mutex
	results []JobResult
}

func (c *collector) add(r JobResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func TestProcessorQueueRunsAllJobs(t *testing.T) {
	var running, peak atomic.Int32
	handle := func(ctx context.Context, job Job) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		if strings.HasSuffix(job.Path, "bad.pdf") {
			return errors.New("boom")
		}
		return nil
	}
	c := &collector{}
	q := NewProcessorQueue(handle, nil, WithWorkers(3), WithQueueSize(2), WithResultHandler(c.add))

	paths := []string{"a.pdf", "b.png", "bad.pdf", "c.jpg", "d.pdf", "e.png", "f.pdf"}
	for _, p := range paths {
		if err := q.Enqueue(context.Background(), NewJob(p)); err != nil {
			t.Fatalf("Enqueue(%s): %v", p, err)
		}
	}
	q.Shutdown(context.Background())

	if len(c.results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(c.results), len(paths))
	}
	for _, r := range c.results {
		wantStatus := constants.JobStatusOK
		if r.Job.Path == "bad.pdf" {
			wantStatus = constants.JobStatusFailed
		}
		if r.Status != wantStatus {
			t.Errorf("%s: status = %s, want %s (err %v)", r.Job.Path, r.Status, wantStatus, r.Err)
		}
	}
	if p := peak.Load(); p > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", p)
	}
}

func TestProcessorQueueRejectsAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(func(context.Context, Job) error { return nil }, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	if err := q.Enqueue(context.Background(), NewJob("a.pdf")); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("err = %v, want ErrQueueClosed", err)
	}
}

func TestProcessorQueueTimeoutAndPanic(t *testing.T) {
	handle := func(ctx context.Context, job Job) error {
		if job.Path == "panic.pdf" {
			panic("corrupt page")
		}
		<-ctx.Done()
		return ctx.Err()
	}
	c := &collector{}
	q := NewProcessorQueue(handle, nil, WithWorkers(2), WithProcessTimeout(10*time.Millisecond), WithResultHandler(c.add))
	_ = q.Enqueue(context.Background(), NewJob("slow.pdf"))
	_ = q.Enqueue(context.Background(), NewJob("panic.pdf"))
	q.Shutdown(context.Background())

	if len(c.results) != 2 {
		t.Fatalf("got %d results", len(c.results))
	}
	for _, r := range c.results {
		if r.Status != constants.JobStatusFailed {
			t.Errorf("%s: status = %s", r.Job.Path, r.Status)
		}
		switch r.Job.Path {
		case "slow.pdf":
			if !errors.Is(r.Err, context.DeadlineExceeded) {
				t.Errorf("slow: err = %v", r.Err)
			}
		case "panic.pdf":
			if r.Err == nil || !strings.Contains(r.Err.Error(), "corrupt page") {
				t.Errorf("panic: err = %v", r.Err)
			}
		}
	}
}

func TestProcessorQueueEnqueueHonoursContext(t *testing.T) {
	release := make(chan struct{})
	q := NewProcessorQueue(func(context.Context, Job) error { <-release; return nil }, nil,
		WithWorkers(1), WithQueueSize(1))
	defer func() {
		close(release)
		q.Shutdown(context.Background())
	}()

	// One job held by the worker, one in the buffer.
	_ = q.Enqueue(context.Background(), NewJob("1.pdf"))
	time.Sleep(10 * time.Millisecond)
	_ = q.Enqueue(context.Background(), NewJob("2.pdf"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(ctx, NewJob("3.pdf")); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestNewJob(t *testing.T) {
	a, b := NewJob("x.pdf"), NewJob("x.pdf")
	if a.ID == b.ID || a.Path != "x.pdf" || a.SubmittedAt.IsZero() {
		t.Errorf("jobs = %+v, %+v", a, b)
	}
}
