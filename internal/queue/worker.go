package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ryanbaill/timetracking-automation/internal/clients"
	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/logger"
	"github.com/ryanbaill/timetracking-automation/internal/models"
	"github.com/ryanbaill/timetracking-automation/internal/repositories"
)

const dispatchTimeout = 30 * time.Second

// listCommands is the subset of redis list commands the worker uses to move
// messages between the queue and the processing list.
type listCommands interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LRem(ctx context.Context, key string, count int64, value interface{}) *redis.IntCmd
}

// RetryWorker drains the retry queue with a pool of workers. Each message is
// moved to a processing list while in flight and removed only after its
// operation succeeds, so a crash mid-dispatch redelivers rather than loses.
// Every operation handler is idempotent, which makes the at-least-once
// delivery safe.
type RetryWorker struct {
	redis         *redis.Client
	lists         listCommands
	logger        *logger.Logger
	queueKey      string
	processingKey string
	workers       int

	mappings repositories.TimesheetMappingRepository
	jobs     repositories.JobRecordRepository
	backups  repositories.BackupEntryRepository
	source   clients.SourceClient

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRetryWorker creates a new retry worker pool
func NewRetryWorker(
	client *redis.Client,
	cfg *config.Config,
	log *logger.Logger,
	mappings repositories.TimesheetMappingRepository,
	jobs repositories.JobRecordRepository,
	backups repositories.BackupEntryRepository,
	source clients.SourceClient,
) *RetryWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &RetryWorker{
		redis:         client,
		lists:         client,
		logger:        log,
		queueKey:      cfg.RetryQueue.Key,
		processingKey: cfg.RetryQueue.ProcessingKey,
		workers:       cfg.RetryQueue.Workers,
		mappings:      mappings,
		jobs:          jobs,
		backups:       backups,
		source:        source,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start begins draining the queue
func (w *RetryWorker) Start() {
	w.logger.WithField("workers", w.workers).Info("Starting retry workers")

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.worker(i)
	}
}

// Stop drains in-flight dispatches and stops the workers
func (w *RetryWorker) Stop() {
	w.logger.Info("Stopping retry workers")
	w.cancel()
	w.wg.Wait()
	w.logger.Info("Retry workers stopped")
}

func (w *RetryWorker) worker(workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			raw, err := w.redis.BRPopLPush(w.ctx, w.queueKey, w.processingKey, time.Second).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if w.ctx.Err() != nil {
					return
				}
				w.logger.WithField("worker", workerID).WithError(err).Error("Failed to pop retry message")
				continue
			}

			w.processMessage(workerID, raw)
		}
	}
}

// processMessage dispatches one raw message. Success removes it from the
// processing list; failure pushes it back to the queue before removing it
// from processing, so the message exists in at least one list at every
// point. Messages that cannot be decoded are dropped, since redelivery
// would never help them.
func (w *RetryWorker) processMessage(workerID int, raw string) {
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		w.logger.WithField("worker", workerID).WithError(err).Error("Dropping undecodable retry message")
		w.ack(raw)
		return
	}

	ctx, cancel := context.WithTimeout(w.ctx, dispatchTimeout)
	err := w.Dispatch(ctx, &msg)
	cancel()

	if err != nil {
		w.logger.WithOperation(string(msg.Operation)).
			WithField("worker", workerID).
			WithError(err).
			Error("Retry dispatch failed, requeueing")
		if pushErr := w.lists.RPush(w.ctx, w.queueKey, raw).Err(); pushErr != nil {
			// Leave the message in the processing list; a later run can
			// recover it. Removing it now would lose the write.
			w.logger.WithError(pushErr).Error("Failed to requeue retry message, keeping it in the processing list")
			return
		}
		w.ack(raw)
		return
	}

	w.logger.WithOperation(string(msg.Operation)).WithField("worker", workerID).Info("Retry dispatch succeeded")
	w.ack(raw)
}

func (w *RetryWorker) ack(raw string) {
	if err := w.lists.LRem(w.ctx, w.processingKey, 1, raw).Err(); err != nil {
		w.logger.WithError(err).Error("Failed to remove message from processing list")
	}
}

// Dispatch executes a single retry operation. The switch is exhaustive over
// the closed operation set; anything else is an error.
func (w *RetryWorker) Dispatch(ctx context.Context, msg *Message) error {
	switch msg.Operation {
	case OpWriteMapping, OpUpdateMapping:
		var mapping models.TimesheetMapping
		if err := json.Unmarshal(msg.Data, &mapping); err != nil {
			return fmt.Errorf("invalid mapping payload: %w", err)
		}
		return w.mappings.Put(ctx, &mapping)

	case OpDeleteEntry:
		var payload DeleteEntryPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return fmt.Errorf("invalid delete entry payload: %w", err)
		}
		return w.mappings.Delete(ctx, payload.EntityID)

	case OpCreateClient:
		var payload clients.ClientPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return fmt.Errorf("invalid create client payload: %w", err)
		}
		_, err := w.source.CreateClient(ctx, &payload)
		return err

	case OpCreateProject:
		var payload clients.ProjectPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return fmt.Errorf("invalid create project payload: %w", err)
		}
		return w.source.CreateProject(ctx, &payload)

	case OpUpdateJob:
		var record models.JobRecord
		if err := json.Unmarshal(msg.Data, &record); err != nil {
			return fmt.Errorf("invalid job payload: %w", err)
		}
		return w.jobs.Upsert(ctx, &record)

	case OpDeleteJob:
		var payload DeleteJobPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return fmt.Errorf("invalid delete job payload: %w", err)
		}
		return w.jobs.Delete(ctx, payload.JobID)

	case OpStoreBackup, OpUpdateBackup:
		var entry models.BackupEntry
		if err := json.Unmarshal(msg.Data, &entry); err != nil {
			return fmt.Errorf("invalid backup payload: %w", err)
		}
		return w.backups.Put(ctx, &entry)

	case OpDeleteBackup:
		var payload DeleteBackupPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return fmt.Errorf("invalid delete backup payload: %w", err)
		}
		return w.backups.Delete(ctx, payload.EntityID)

	default:
		return fmt.Errorf("unknown operation %q", msg.Operation)
	}
}
