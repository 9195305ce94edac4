package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	result Result
	err    error
}

func (f fakeRunner) Import(ctx context.Context, upload *Upload) (Result, error) {
	defer upload.Release()
	return f.result, f.err
}

func tempUpload(t *testing.T) *Upload {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\n"), 0o600))
	return NewUpload(path, "orders.csv")
}

func waitForState(t *testing.T, jobs *Jobs, id string, state JobState) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		var err error
		job, err = jobs.Get(id)
		return err == nil && job.State == state
	}, 2*time.Second, 10*time.Millisecond)
	return job
}

func TestJobs_Submit(t *testing.T) {
	t.Run("successful import", func(t *testing.T) {
		jobs := NewJobs(fakeRunner{result: Result{Rows: 2, Inserted: 2}}, 1, 4, time.Hour, zap.NewNop())
		jobs.Start()
		defer jobs.Shutdown(context.Background())

		job, err := jobs.Submit(tempUpload(t))
		require.NoError(t, err)
		assert.Equal(t, JobPending, job.State)
		assert.NotEmpty(t, job.ID)

		done := waitForState(t, jobs, job.ID, JobSucceeded)
		assert.Equal(t, 2, done.Inserted)
		assert.NotNil(t, done.FinishedAt)
	})

	t.Run("failed import", func(t *testing.T) {
		jobs := NewJobs(fakeRunner{err: errors.New("decode row 4 (line 5): wrong number of fields")}, 1, 4, time.Hour, zap.NewNop())
		jobs.Start()
		defer jobs.Shutdown(context.Background())

		job, err := jobs.Submit(tempUpload(t))
		require.NoError(t, err)

		failed := waitForState(t, jobs, job.ID, JobFailed)
		assert.Contains(t, failed.Error, "row 4")
	})

	t.Run("full queue rejects and releases", func(t *testing.T) {
		jobs := NewJobs(fakeRunner{}, 1, 1, time.Hour, zap.NewNop())

		_, err := jobs.Submit(tempUpload(t))
		require.NoError(t, err)

		rejected := tempUpload(t)
		_, err = jobs.Submit(rejected)
		assert.ErrorIs(t, err, ErrQueueFull)
		assert.NoFileExists(t, rejected.Path)

		jobs.Shutdown(context.Background())
	})

	t.Run("closed queue rejects and releases", func(t *testing.T) {
		jobs := NewJobs(fakeRunner{}, 1, 1, time.Hour, zap.NewNop())
		jobs.Start()
		jobs.Shutdown(context.Background())

		upload := tempUpload(t)
		_, err := jobs.Submit(upload)
		assert.ErrorIs(t, err, ErrJobsClosed)
		assert.NoFileExists(t, upload.Path)
	})
}

func TestJobs_Shutdown(t *testing.T) {
	jobs := NewJobs(fakeRunner{}, 1, 2, time.Hour, zap.NewNop())

	upload := tempUpload(t)
	job, err := jobs.Submit(upload)
	require.NoError(t, err)

	jobs.Shutdown(context.Background())

	got, err := jobs.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobFailed, got.State)
	assert.Equal(t, ErrJobsClosed.Error(), got.Error)
	assert.NoFileExists(t, upload.Path)
}

func TestJobs_Get(t *testing.T) {
	jobs := NewJobs(fakeRunner{}, 1, 1, time.Hour, zap.NewNop())
	_, err := jobs.Get("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobs_EvictsFinishedJobs(t *testing.T) {
	jobs := NewJobs(fakeRunner{}, 1, 4, time.Minute, zap.NewNop())
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var offset atomic.Int64
	jobs.timeNow = func() time.Time { return start.Add(time.Duration(offset.Load())) }
	jobs.Start()
	defer jobs.Shutdown(context.Background())

	old, err := jobs.Submit(tempUpload(t))
	require.NoError(t, err)
	waitForState(t, jobs, old.ID, JobSucceeded)

	offset.Store(int64(30 * time.Second))
	recent, err := jobs.Submit(tempUpload(t))
	require.NoError(t, err)
	waitForState(t, jobs, recent.ID, JobSucceeded)

	_, err = jobs.Get(old.ID)
	require.NoError(t, err, "job inside the retention window is kept")

	offset.Store(int64(90 * time.Second))
	latest, err := jobs.Submit(tempUpload(t))
	require.NoError(t, err)

	_, err = jobs.Get(old.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = jobs.Get(recent.ID)
	assert.NoError(t, err)
	waitForState(t, jobs, latest.ID, JobSucceeded)
}
