package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"occucalc/internal/blob"
	"occucalc/internal/platform/logger"
	"occucalc/pkg/domain"
)

// Status describes the lifecycle stage of an export job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// QueueSize bounds the number of pending jobs.
const QueueSize = 32

// ErrQueueFull is returned when the pending queue is at capacity.
var ErrQueueFull = errors.New("export queue full")

// Artifact is one rendered file stored in the blob store.
type Artifact struct {
	Format      Format    `json:"format"`
	FileName    string    `json:"file_name"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks one export job and its artifacts.
type Record struct {
	ID          string      `json:"id"`
	Formats     []Format    `json:"formats"`
	Mode        domain.Mode `json:"mode"`
	CodeID      string      `json:"code_id"`
	RowCount    int         `json:"row_count"`
	Status      Status      `json:"status"`
	Error       string      `json:"error,omitempty"`
	Artifacts   []Artifact  `json:"artifacts,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// Input is an enqueue request. Data is captured at enqueue time.
type Input struct {
	Formats []Format
	Data    Data
}

// Scheduler queues export jobs and exposes their status.
type Scheduler interface {
	Enqueue(ctx context.Context, input Input) (Record, error)
	Get(id string) (Record, bool)
	Open(ctx context.Context, id string, format Format) (Artifact, io.ReadCloser, error)
}

var _ Scheduler = (*Worker)(nil)

// Metrics counts jobs and times rendering. A nil *Metrics records nothing.
type Metrics struct {
	jobs   *prometheus.CounterVec
	render *prometheus.HistogramVec
}

// NewMetrics registers export metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "occucalc_export_jobs_total",
				Help: "Total number of export artifacts by format and final status",
			},
			[]string{"format", "status"},
		),
		render: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "occucalc_export_render_duration_seconds",
				Help:    "Time spent rendering one export artifact",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.jobs, m.render} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register export metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) job(formats []Format, status Status) {
	if m == nil {
		return
	}
	for _, f := range formats {
		m.jobs.WithLabelValues(string(f), string(status)).Inc()
	}
}

func (m *Metrics) observe(f Format, d time.Duration) {
	if m == nil {
		return
	}
	m.render.WithLabelValues(string(f)).Observe(d.Seconds())
}

// Worker renders export jobs on a background goroutine and stores the
// artifacts under exports/<id>/<file name>.
type Worker struct {
	store   blob.Store
	log     *logger.Logger
	metrics *Metrics

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type task struct {
	id   string
	data Data
}

// NewWorker constructs a worker. Call Start before enqueueing.
func NewWorker(store blob.Store, log *logger.Logger, metrics *Metrics) *Worker {
	if log == nil {
		log = logger.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		store:   store,
		log:     log.With("component", "exports"),
		metrics: metrics,
		queue:   make(chan task, QueueSize),
		jobs:    make(map[string]*Record),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for the current job.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue validates the formats, records a queued job and hands it to the
// worker. Duplicate formats are collapsed.
func (w *Worker) Enqueue(ctx context.Context, input Input) (Record, error) {
	if w.store == nil {
		return Record{}, fmt.Errorf("export store not configured")
	}
	if len(input.Formats) == 0 {
		return Record{}, fmt.Errorf("at least one export format required")
	}
	formats := make([]Format, 0, len(input.Formats))
	seen := make(map[Format]struct{}, len(input.Formats))
	for _, f := range input.Formats {
		parsed, err := ParseFormat(string(f))
		if err != nil {
			return Record{}, err
		}
		if _, dup := seen[parsed]; dup {
			continue
		}
		seen[parsed] = struct{}{}
		formats = append(formats, parsed)
	}

	now := time.Now().UTC()
	record := Record{
		ID:        uuid.NewString(),
		Formats:   formats,
		Mode:      input.Data.Mode,
		CodeID:    input.Data.CodeID,
		RowCount:  len(input.Data.Rows),
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	select {
	case <-ctx.Done():
		return Record{}, ctx.Err()
	default:
	}

	w.mu.Lock()
	w.jobs[record.ID] = &record
	snapshot := record.copy()
	w.mu.Unlock()

	select {
	case w.queue <- task{id: record.ID, data: input.Data}:
	default:
		w.mu.Lock()
		delete(w.jobs, record.ID)
		w.mu.Unlock()
		return Record{}, ErrQueueFull
	}
	w.log.Info("export queued", "id", record.ID, "formats", formats, "rows", record.RowCount)
	return snapshot, nil
}

// Get returns a snapshot of the job.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

// Open streams one artifact of a succeeded job. An empty format selects the
// first artifact.
func (w *Worker) Open(ctx context.Context, id string, format Format) (Artifact, io.ReadCloser, error) {
	record, ok := w.Get(id)
	if !ok {
		return Artifact{}, nil, domain.NotFoundError{Entity: "export", ID: id}
	}
	if record.Status != StatusSucceeded {
		return Artifact{}, nil, fmt.Errorf("export %s is %s", id, record.Status)
	}
	for _, a := range record.Artifacts {
		if format != "" && a.Format != format {
			continue
		}
		_, rc, err := w.store.Get(ctx, a.Key)
		if err != nil {
			return Artifact{}, nil, fmt.Errorf("open artifact %s: %w", a.Key, err)
		}
		return a, rc, nil
	}
	return Artifact{}, nil, domain.NotFoundError{Entity: "export artifact", ID: id + "/" + string(format)}
}

// process renders every format in parallel, then stores the results. Jobs
// are not retried.
func (w *Worker) process(t task) {
	record, ok := w.Get(t.id)
	if !ok {
		return
	}
	w.updateStatus(t.id, StatusRunning)

	payloads := make([][]byte, len(record.Formats))
	g, gctx := errgroup.WithContext(w.ctx)
	for i, f := range record.Formats {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			var buf bytes.Buffer
			if err := Render(&buf, f, t.data); err != nil {
				return fmt.Errorf("render %s: %w", f, err)
			}
			w.metrics.observe(f, time.Since(start))
			payloads[i] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.fail(t.id, record.Formats, err)
		return
	}

	artifacts := make([]Artifact, 0, len(record.Formats))
	for i, f := range record.Formats {
		key := fmt.Sprintf("exports/%s/%s", t.id, f.FileName())
		info, err := w.store.Put(w.ctx, key, bytes.NewReader(payloads[i]), blob.PutOptions{
			ContentType: f.ContentType(),
			Metadata:    map[string]string{"export-id": t.id, "format": string(f)},
		})
		if err != nil {
			w.fail(t.id, record.Formats, fmt.Errorf("store artifact %s: %w", key, err))
			return
		}
		artifacts = append(artifacts, Artifact{
			Format:      f,
			FileName:    f.FileName(),
			Key:         key,
			ContentType: f.ContentType(),
			SizeBytes:   int64(len(payloads[i])),
			CreatedAt:   info.LastModified,
		})
	}
	w.complete(t.id, record.Formats, artifacts)
}

func (w *Worker) updateStatus(id string, status Status) {
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.UpdatedAt = time.Now().UTC()
	}
	w.mu.Unlock()
	w.log.Debug("export status", "id", id, "status", status)
}

func (w *Worker) complete(id string, formats []Format, artifacts []Artifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.metrics.job(formats, StatusSucceeded)
	w.log.Info("export succeeded", "id", id, "artifacts", len(artifacts))
}

func (w *Worker) fail(id string, formats []Format, err error) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = err.Error()
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.metrics.job(formats, StatusFailed)
	w.log.Error("export failed", "id", id, "error", err)
}

func (r Record) copy() Record {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		dup.CompletedAt = &t
	}
	return dup
}
