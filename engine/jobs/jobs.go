package jobs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/soco/engine/core"
)

var ErrNoWorkers = fmt.Errorf("attempting to create a job system with less than 1 worker")
var ErrNegativeQueueSize = fmt.Errorf("attempting to create a job system with a negative queue size")

/** @brief A unit of work. OnComplete or OnFailure runs on the worker after Run. */
type JobTask struct {
	Name       string
	Run        func() error
	OnComplete func()
	OnFailure  func(err error)
}

/**
 * @brief JobSystem runs submitted tasks on a fixed set of workers. Failures
 * are collected and returned by Shutdown.
 */
type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup

	// submit guards closed and the queue close against concurrent sends.
	submit sync.RWMutex
	closed bool

	mu   sync.Mutex
	errs []error
}

func NewJobSystem(numWorkers int, queueSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if queueSize < 0 {
		return nil, ErrNegativeQueueSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, queueSize),
	}
	js.start()
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	err := job.Run()
	if err == nil {
		if job.OnComplete != nil {
			job.OnComplete()
		}
		return
	}
	if job.Name != "" {
		err = fmt.Errorf("%s: %w", job.Name, err)
	}
	core.LogDebug("job failed: %s", err.Error())
	js.mu.Lock()
	js.errs = append(js.errs, err)
	js.mu.Unlock()
	if job.OnFailure != nil {
		job.OnFailure(err)
	}
}

/**
 * @brief Submits the task. Blocks while the queue is full. Submitting after
 * Shutdown records an error instead of running the task.
 */
func (js *JobSystem) Submit(jt JobTask) {
	js.submit.RLock()
	defer js.submit.RUnlock()
	if js.closed {
		js.mu.Lock()
		js.errs = append(js.errs, fmt.Errorf("job %q submitted after shutdown", jt.Name))
		js.mu.Unlock()
		return
	}
	js.jobQueue <- jt
}

/**
 * @brief Shuts the job system down. Queued tasks finish first. The returned
 * error joins every task failure.
 */
func (js *JobSystem) Shutdown() error {
	js.submit.Lock()
	if !js.closed {
		js.closed = true
		close(js.jobQueue)
	}
	js.submit.Unlock()
	js.wg.Wait()

	js.mu.Lock()
	defer js.mu.Unlock()
	return errors.Join(js.errs...)
}
