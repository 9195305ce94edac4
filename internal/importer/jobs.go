package importer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrJobsClosed  = errors.New("import queue is shut down")
	ErrQueueFull   = errors.New("import queue is full")
	ErrJobNotFound = errors.New("import job not found")
)

// DefaultJobRetention applies when NewJobs is given a non-positive retention.
const DefaultJobRetention = time.Hour

type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

type Job struct {
	ID          string     `json:"id"`
	Upload      string     `json:"upload"`
	State       JobState   `json:"state"`
	Rows        int        `json:"rows"`
	Inserted    int        `json:"inserted"`
	Error       string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submittedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

type runner interface {
	Import(ctx context.Context, upload *Upload) (Result, error)
}

type queuedJob struct {
	id     string
	upload *Upload
}

// Jobs runs imports on a fixed set of workers so an upload request returns as
// soon as the file is queued.
type Jobs struct {
	runner      runner
	workerCount int
	retention   time.Duration
	logger      *zap.Logger
	timeNow     func() time.Time

	queue      chan queuedJob
	shutdownCh chan struct{}
	once       sync.Once
	wg         sync.WaitGroup

	runCtx    context.Context
	cancelRun context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobs keeps a finished job visible to Get for retention after it finishes.
func NewJobs(runner runner, workerCount, queueSize int, retention time.Duration, logger *zap.Logger) *Jobs {
	if workerCount < 1 {
		workerCount = 1
	}
	if retention <= 0 {
		retention = DefaultJobRetention
	}
	runCtx, cancel := context.WithCancel(context.Background())
	return &Jobs{
		runner:      runner,
		workerCount: workerCount,
		retention:   retention,
		logger:      logger.With(zap.String("component", "import_jobs")),
		timeNow:     time.Now,
		queue:       make(chan queuedJob, queueSize),
		shutdownCh:  make(chan struct{}),
		runCtx:      runCtx,
		cancelRun:   cancel,
		jobs:        make(map[string]*Job),
	}
}

func (j *Jobs) Start() {
	j.logger.Info("Starting import workers", zap.Int("workers", j.workerCount))
	for i := 0; i < j.workerCount; i++ {
		j.wg.Add(1)
		go j.runWorker(i)
	}
}

// Submit queues the upload. When the job cannot be queued the upload is
// released before Submit returns.
func (j *Jobs) Submit(upload *Upload) (Job, error) {
	job := &Job{
		ID:          uuid.NewString(),
		Upload:      upload.Name,
		State:       JobPending,
		SubmittedAt: j.timeNow().UTC(),
	}

	j.mu.Lock()
	j.evictLocked(job.SubmittedAt)
	err := j.enqueueLocked(job, upload)
	queued := *job
	j.mu.Unlock()

	if err != nil {
		j.reject(upload, err)
		return Job{}, err
	}
	return queued, nil
}

func (j *Jobs) enqueueLocked(job *Job, upload *Upload) error {
	select {
	case <-j.shutdownCh:
		return ErrJobsClosed
	default:
	}

	select {
	case j.queue <- queuedJob{id: job.ID, upload: upload}:
		j.jobs[job.ID] = job
		return nil
	default:
		return ErrQueueFull
	}
}

func (j *Jobs) Get(id string) (Job, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	job, ok := j.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *job, nil
}

// Shutdown stops intake and waits for running imports. Imports still queued
// are failed and their uploads released. If ctx expires first, running
// imports are cancelled.
func (j *Jobs) Shutdown(ctx context.Context) {
	j.once.Do(func() {
		j.logger.Info("Initiating import workers shutdown")
		j.mu.Lock()
		close(j.shutdownCh)
		j.mu.Unlock()

		done := make(chan struct{})
		go func() {
			j.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			j.logger.Info("Import workers shutdown completed")
		case <-ctx.Done():
			j.logger.Warn("Import workers shutdown interrupted, cancelling running imports")
			j.cancelRun()
			<-done
		}
		j.cancelRun()
		j.drain()
	})
}

func (j *Jobs) runWorker(id int) {
	defer j.wg.Done()
	l := j.logger.With(zap.Int("worker", id))
	l.Debug("Worker started")

	for {
		select {
		case q := <-j.queue:
			j.run(q)
		case <-j.shutdownCh:
			j.drain()
			l.Debug("Worker exiting")
			return
		}
	}
}

// drain fails every job still waiting in the queue.
func (j *Jobs) drain() {
	for {
		select {
		case q := <-j.queue:
			j.finish(q.id, Result{}, ErrJobsClosed)
			j.reject(q.upload, ErrJobsClosed)
		default:
			return
		}
	}
}

func (j *Jobs) run(q queuedJob) {
	j.mu.Lock()
	if job, ok := j.jobs[q.id]; ok {
		job.State = JobRunning
	}
	j.mu.Unlock()

	res, err := j.runner.Import(j.runCtx, q.upload)
	j.finish(q.id, res, err)
}

func (j *Jobs) finish(id string, res Result, err error) {
	now := j.timeNow().UTC()

	j.mu.Lock()
	defer j.mu.Unlock()
	j.evictLocked(now)
	job, ok := j.jobs[id]
	if !ok {
		return
	}
	job.Rows = res.Rows
	job.Inserted = res.Inserted
	job.FinishedAt = &now
	if err != nil {
		job.State = JobFailed
		job.Error = err.Error()
		return
	}
	job.State = JobSucceeded
}

// evictLocked drops jobs that finished more than the retention window before now.
func (j *Jobs) evictLocked(now time.Time) {
	cutoff := now.Add(-j.retention)
	for id, job := range j.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(j.jobs, id)
		}
	}
}

func (j *Jobs) reject(upload *Upload, reason error) {
	if err := upload.Release(); err != nil {
		j.logger.Error("Failed to release rejected upload", zap.String("upload", upload.Name), zap.Error(err))
	}
	j.logger.Warn("Import rejected", zap.String("upload", upload.Name), zap.Error(reason))
}
