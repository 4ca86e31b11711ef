package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
)

const (
	jobQueueSize    = 100
	pendingJobBatch = 10
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(analysisID uuid.UUID)
}

type analysisRunner interface {
	Run(ctx context.Context, analysisID uuid.UUID) error
}

type pendingJobFinder interface {
	FindPendingJobs(limit int) ([]models.Analysis, error)
}

type worker struct {
	pending      pendingJobFinder
	runner       analysisRunner
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	wg           sync.WaitGroup
	stopOnce     sync.Once
	stopChan     chan struct{}
	log          *zap.Logger

	// ids queued or running; keeps the poller from enqueueing them twice
	inFlightMu sync.Mutex
	inFlight   map[uuid.UUID]struct{}
}

func NewWorker(
	pending pendingJobFinder,
	runner analysisRunner,
	concurrency int,
	pollInterval time.Duration,
	log *zap.Logger,
) Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	return &worker{
		pending:      pending,
		runner:       runner,
		jobQueue:     make(chan uuid.UUID, jobQueueSize),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		log:          log,
		inFlight:     make(map[uuid.UUID]struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("starting analysis workers", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("stopping analysis workers")
		close(w.stopChan)
		w.wg.Wait()
		w.log.Info("analysis workers stopped")
	})
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(analysisID uuid.UUID) {
	if !w.markInFlight(analysisID) {
		return
	}

	select {
	case w.jobQueue <- analysisID:
		w.log.Debug("analysis enqueued", zap.String("analysis_id", analysisID.String()))
	case <-w.stopChan:
		w.clearInFlight(analysisID)
		w.log.Warn("worker stopped, cannot enqueue analysis", zap.String("analysis_id", analysisID.String()))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case analysisID := <-w.jobQueue:
			log := w.log.With(zap.Int("worker", workerID), zap.String("analysis_id", analysisID.String()))
			log.Debug("processing analysis")

			if err := w.runner.Run(ctx, analysisID); err != nil {
				log.Error("analysis job failed", zap.Error(err))
			} else {
				log.Info("analysis job completed")
			}
			w.clearInFlight(analysisID)
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.pending.FindPendingJobs(pendingJobBatch)
			if err != nil {
				w.log.Warn("failed to fetch pending analyses", zap.Error(err))
				continue
			}

			if len(pendingJobs) > 0 {
				w.log.Debug("found pending analyses", zap.Int("count", len(pendingJobs)))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}

func (w *worker) markInFlight(id uuid.UUID) bool {
	w.inFlightMu.Lock()
	defer w.inFlightMu.Unlock()

	if _, ok := w.inFlight[id]; ok {
		return false
	}
	w.inFlight[id] = struct{}{}
	return true
}

func (w *worker) clearInFlight(id uuid.UUID) {
	w.inFlightMu.Lock()
	defer w.inFlightMu.Unlock()
	delete(w.inFlight, id)
}
