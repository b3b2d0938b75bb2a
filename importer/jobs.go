package importer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/vehicle_sales_backend/config"
	"github.com/mmdatafocus/vehicle_sales_backend/models"
	"github.com/mmdatafocus/vehicle_sales_backend/utils"
	"github.com/sirupsen/logrus"
)

type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
)

// Job tracks one upload attempt. Counters only ever grow; terminal states are
// never revisited — a new upload gets a new job id.
type Job struct {
	JobID           string    `json:"jobId"`
	Status          JobStatus `json:"status"`
	TotalRows       int       `json:"totalRows"`
	ProcessedRows   int       `json:"processedRows"`
	InsertedRecords int       `json:"insertedRecords"`
	Error           string    `json:"error,omitempty"`
	StartTime       time.Time `json:"startTime"`

	// ElapsedSeconds is derived at snapshot time, not stored.
	ElapsedSeconds float64 `json:"elapsedSeconds"`
}

// JobRegistry is the in-memory job-status map shared between the upload
// goroutines and status polls.
type JobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewJobRegistry() *JobRegistry {
	return &JobRegistry{jobs: make(map[string]*Job)}
}

func (jr *JobRegistry) create(jobID string) {
	jr.mu.Lock()
	defer jr.mu.Unlock()
	jr.jobs[jobID] = &Job{
		JobID:     jobID,
		Status:    JobStatusProcessing,
		StartTime: time.Now(),
	}
}

// GetStatus returns a snapshot copy of the job, or ErrorJobNotFound.
func (jr *JobRegistry) GetStatus(jobID string) (Job, error) {
	jr.mu.RLock()
	defer jr.mu.RUnlock()
	job, ok := jr.jobs[jobID]
	if !ok {
		return Job{}, utils.ErrorJobNotFound
	}
	snapshot := *job
	snapshot.ElapsedSeconds = time.Since(job.StartTime).Seconds()
	return snapshot, nil
}

func (jr *JobRegistry) setTotalRows(jobID string, total int) {
	jr.mu.Lock()
	defer jr.mu.Unlock()
	if job, ok := jr.jobs[jobID]; ok {
		job.TotalRows = total
	}
}

// setProcessedRows keeps the counter monotonic across chunk updates.
func (jr *JobRegistry) setProcessedRows(jobID string, processed int) {
	jr.mu.Lock()
	defer jr.mu.Unlock()
	if job, ok := jr.jobs[jobID]; ok && processed > job.ProcessedRows {
		job.ProcessedRows = processed
	}
}

func (jr *JobRegistry) complete(jobID string, processed, inserted int) {
	jr.mu.Lock()
	defer jr.mu.Unlock()
	if job, ok := jr.jobs[jobID]; ok {
		if processed > job.ProcessedRows {
			job.ProcessedRows = processed
		}
		job.InsertedRecords = inserted
		job.Status = JobStatusCompleted
	}
}

func (jr *JobRegistry) fail(jobID string, message string) {
	jr.mu.Lock()
	defer jr.mu.Unlock()
	if job, ok := jr.jobs[jobID]; ok {
		job.Status = JobStatusError
		job.Error = message
	}
}

// CoordinateEnricher resolves coordinates for records still holding the
// (0, 0) sentinel. Implemented by the geocode package.
type CoordinateEnricher interface {
	EnrichAll(ctx context.Context)
}

// Runner orchestrates one upload: decode, normalize, store, then
// fire-and-forget enrichment. There is no coordination between concurrent
// uploads — a newer upload's Clear + InsertBatch races an older in-flight
// one, and the store reflects whichever batch lands last.
type Runner struct {
	Store    *models.Store
	Jobs     *JobRegistry
	Logger   *logrus.Logger
	Enricher CoordinateEnricher
}

func NewRunner(store *models.Store, jobs *JobRegistry, logger *logrus.Logger, enricher CoordinateEnricher) *Runner {
	return &Runner{
		Store:    store,
		Jobs:     jobs,
		Logger:   logger,
		Enricher: enricher,
	}
}

// Start registers a new processing job and schedules the ingestion work on
// its own goroutine. Returns the job id immediately; all failures, including
// undecodable workbooks, surface through the job record.
func (r *Runner) Start(fileBytes []byte) string {
	jobID := uuid.NewString()
	r.Jobs.create(jobID)
	go r.run(jobID, fileBytes)
	return jobID
}

func (r *Runner) run(jobID string, fileBytes []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprintf("ingestion failed unexpectedly: %v", rec)
			config.LogError(r.Logger, "jobs.go", "run", "panic", jobID, fmt.Errorf("%v", rec))
			r.Jobs.fail(jobID, msg)
		}
	}()

	rows, err := ReadFirstSheet(fileBytes)
	if err != nil {
		config.LogError(r.Logger, "jobs.go", "run", "ReadFirstSheet", jobID, err)
		r.Jobs.fail(jobID, err.Error())
		return
	}
	r.Jobs.setTotalRows(jobID, len(rows))

	records, diag := NormalizeRows(rows, func(processed int) {
		r.Jobs.setProcessedRows(jobID, processed)
	})

	if len(records) == 0 {
		r.Jobs.fail(jobID, fmt.Sprintf(
			"no valid data found in the uploaded file: rows need the columns %v and a Year between 2022 and 2025",
			RequiredColumns,
		))
		return
	}

	r.Store.Clear()
	inserted := r.Store.InsertBatch(records)
	r.Jobs.complete(jobID, len(rows), len(inserted))

	fields := logrus.Fields{
		"job_id":   jobID,
		"rows":     len(rows),
		"inserted": len(inserted),
		"makers":   len(diag.Makers),
		"rtos":     len(diag.RTOs),
	}
	if len(diag.FieldErrors) > 0 {
		fields["invalid_fields"] = diag.FieldErrors
	}
	r.Logger.WithFields(fields).Info("[import.completed]")

	if r.Enricher != nil {
		go func() {
			defer func() {
				if rec := recover(); rec != nil {
					config.LogError(r.Logger, "jobs.go", "run", "enrichment panic", jobID, fmt.Errorf("%v", rec))
				}
			}()
			r.Enricher.EnrichAll(context.Background())
		}()
	}
}
