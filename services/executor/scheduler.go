// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package executor

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ruineo-Z/Spec2Test/services/datatypes"
)

// TaskPriority orders queued tasks. Higher values dequeue first.
type TaskPriority int

const (
	TaskPriorityHigh   TaskPriority = 10
	TaskPriorityNormal TaskPriority = 5
	TaskPriorityLow    TaskPriority = 1
)

// TaskStatus is the lifecycle state of a scheduled task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskNotPending   = errors.New("task is no longer pending")
	ErrSchedulerStopped = errors.New("scheduler is not running")
)

// TaskFunc is the work a task performs. The returned run (may be nil
// for non-execution tasks) is stored on the task for later retrieval.
type TaskFunc func(ctx context.Context) (*datatypes.SuiteRun, error)

// TaskCallback receives the task at a lifecycle transition, on the
// worker goroutine that owns it.
type TaskCallback func(task *Task)

// TaskCallbacks hook the task lifecycle. Every hook is optional.
// OnStart fires when a worker picks the task up; exactly one of
// OnComplete and OnError fires when it finishes.
type TaskCallbacks struct {
	OnStart    TaskCallback
	OnComplete TaskCallback
	OnError    TaskCallback
}

// Task is one unit of queued work, typically a suite execution.
type Task struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Priority TaskPriority `json:"priority"`
	Status   TaskStatus   `json:"status"`

	RunAt      time.Time           `json:"run_at"`
	CreatedAt  time.Time           `json:"created_at"`
	StartedAt  time.Time           `json:"started_at,omitempty"`
	FinishedAt time.Time           `json:"finished_at,omitempty"`
	Run        *datatypes.SuiteRun `json:"run,omitempty"`
	Error      string              `json:"error,omitempty"`

	fn        TaskFunc
	callbacks TaskCallbacks
	seq       uint64 // FIFO tiebreak within a priority
	index     int    // heap bookkeeping
}

// Scheduler runs tasks on a fixed worker pool, highest priority first,
// honoring per-task delays.
type Scheduler struct {
	workers int

	mu      sync.Mutex
	cond    *sync.Cond
	queue   taskHeap
	tasks   map[string]*Task
	seq     uint64
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(workers int) *Scheduler {
	if workers <= 0 {
		workers = 4
	}
	s := &Scheduler{
		workers: workers,
		tasks:   map[string]*Task{},
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Start launches the worker pool. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	slog.Info("Scheduler started", "workers", s.workers)
}

// Stop cancels running tasks, marks pending ones cancelled, and waits
// for the workers to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	for _, task := range s.tasks {
		if task.Status == TaskPending {
			task.Status = TaskCancelled
			task.FinishedAt = time.Now()
		}
	}
	s.queue = nil
	s.cond.Broadcast()
	s.mu.Unlock()

	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

// Submit queues fn with the given priority and delay and returns the
// task ID. A zero delay means the task is runnable immediately.
func (s *Scheduler) Submit(name string, priority TaskPriority, delay time.Duration, fn TaskFunc, callbacks TaskCallbacks) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("task function must not be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return "", ErrSchedulerStopped
	}

	s.seq++
	task := &Task{
		ID:        uuid.NewString(),
		Name:      name,
		Priority:  priority,
		Status:    TaskPending,
		RunAt:     time.Now().Add(delay),
		CreatedAt: time.Now(),
		fn:        fn,
		callbacks: callbacks,
		seq:       s.seq,
	}
	s.tasks[task.ID] = task
	heap.Push(&s.queue, task)
	s.cond.Broadcast()

	slog.Debug("Task submitted", "task_id", task.ID, "name", name,
		"priority", priority, "delay", delay)
	return task.ID, nil
}

// Cancel removes a pending task from the queue. Running tasks cannot
// be cancelled individually.
func (s *Scheduler) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if task.Status != TaskPending {
		return fmt.Errorf("%w: %s is %s", ErrTaskNotPending, id, task.Status)
	}
	task.Status = TaskCancelled
	task.FinishedAt = time.Now()
	if task.index >= 0 {
		heap.Remove(&s.queue, task.index)
	}
	slog.Info("Task cancelled", "task_id", id, "name", task.Name)
	return nil
}

// Get returns a snapshot of the task with the given ID.
func (s *Scheduler) Get(id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return *task, nil
}

// Pending reports how many tasks are waiting in the queue.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()
	for {
		task := s.next()
		if task == nil {
			return
		}

		s.mu.Lock()
		task.Status = TaskRunning
		task.StartedAt = time.Now()
		s.mu.Unlock()
		slog.Debug("Task started", "worker", id, "task_id", task.ID, "name", task.Name)
		if task.callbacks.OnStart != nil {
			task.callbacks.OnStart(task)
		}

		run, err := task.fn(s.ctx)

		s.mu.Lock()
		task.Run = run
		task.FinishedAt = time.Now()
		if err != nil {
			task.Status = TaskFailed
			task.Error = err.Error()
		} else {
			task.Status = TaskCompleted
		}
		s.mu.Unlock()

		if err != nil {
			slog.Warn("Task failed", "task_id", task.ID, "name", task.Name, "error", err)
			if task.callbacks.OnError != nil {
				task.callbacks.OnError(task)
			}
		} else {
			slog.Debug("Task completed", "task_id", task.ID, "name", task.Name,
				"duration", task.FinishedAt.Sub(task.StartedAt))
			if task.callbacks.OnComplete != nil {
				task.callbacks.OnComplete(task)
			}
		}
	}
}

// next blocks until a task is due or the scheduler stops. The heap
// orders by priority, so due tasks are found by scanning: a delayed
// high-priority task must not block a due lower-priority one.
func (s *Scheduler) next() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if !s.running {
			return nil
		}
		now := time.Now()
		var best *Task
		var soonest time.Duration
		for _, task := range s.queue {
			if d := task.RunAt.Sub(now); d > 0 {
				if soonest == 0 || d < soonest {
					soonest = d
				}
				continue
			}
			if best == nil || taskLess(task, best) {
				best = task
			}
		}
		if best != nil {
			heap.Remove(&s.queue, best.index)
			return best
		}
		if soonest > 0 {
			// Re-check once the earliest delayed task matures.
			timer := time.AfterFunc(soonest, s.cond.Broadcast)
			s.cond.Wait()
			timer.Stop()
			continue
		}
		s.cond.Wait()
	}
}

func taskLess(a, b *Task) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.seq < b.seq
}

// taskHeap is a max-heap on priority with FIFO tiebreak.
type taskHeap []*Task

func (h taskHeap) Len() int            { return len(h) }
func (h taskHeap) Less(i, j int) bool  { return taskLess(h[i], h[j]) }
func (h taskHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *taskHeap) Push(x any)         { t := x.(*Task); t.index = len(*h); *h = append(*h, t) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
