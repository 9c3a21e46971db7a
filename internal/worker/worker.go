// Package worker processes background jobs: rescanning the data directory
// and refreshing the asset catalog.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/drivestudy/annotator/internal/assets"
	"github.com/drivestudy/annotator/internal/realtime"
	"github.com/drivestudy/annotator/pkg/queue"
)

// ScanProcessor executes asset rescan jobs: walk the data directory, upsert
// the catalog, announce the refresh to connected UIs.
type ScanProcessor struct {
	repo      *assets.Repository
	scanner   *assets.Scanner
	jobQueue  *queue.Queue
	publisher realtime.Publisher // may be nil
	dataDir   string
	logger    *zap.Logger
}

// NewScanProcessor creates an asset scan processor.
func NewScanProcessor(repo *assets.Repository, scanner *assets.Scanner, q *queue.Queue, publisher realtime.Publisher, dataDir string, logger *zap.Logger) *ScanProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanProcessor{
		repo:      repo,
		scanner:   scanner,
		jobQueue:  q,
		publisher: publisher,
		dataDir:   dataDir,
		logger:    logger,
	}
}

// Process executes one rescan job.
func (p *ScanProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeAssetScan {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.AssetScanPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	root := payload.Root
	if root == "" {
		root = p.dataDir
	}

	videos, err := p.scanner.Scan(root)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	for i := range videos {
		if err := p.repo.Upsert(ctx, &videos[i]); err != nil {
			return fmt.Errorf("upsert %s: %w", videos[i].FileName, err)
		}
	}

	if p.publisher != nil {
		data, _ := json.Marshal(map[string]int{"count": len(videos)})
		_ = p.publisher.PublishChannelEvent(realtime.DefaultChannel, "assets_updated", data)
	}
	p.logger.Info("asset scan completed", zap.String("root", root), zap.Int("videos", len(videos)))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ScanProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("asset scan worker stopping")
			return
		default:
		}

		job, err := p.jobQueue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.jobQueue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
