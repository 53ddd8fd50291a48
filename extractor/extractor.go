package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/declog/declog/config"
	"github.com/declog/declog/console"
	"github.com/declog/declog/metrics"
	"github.com/declog/declog/orm"
	"github.com/declog/declog/sentry_integration"
	"github.com/declog/declog/types"
	"github.com/declog/declog/util/querier"
)

const WorkerName = "extractor"

// ErrQueueClosed is returned by Pop once the queue has been closed and
// drained.
var ErrQueueClosed = errors.New("work queue closed")

// WorkItem carries the traces of one block from the producer to the consumer.
type WorkItem struct {
	Height int64
	Traces []types.TransactionTrace
}

// WorkQueue is a bounded thread-safe queue of scraped blocks.
type WorkQueue struct {
	items    []*WorkItem
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	notEmpty *sync.Cond
}

// NewWorkQueue creates a new work queue with the specified maximum size
func NewWorkQueue(maxSize int) *WorkQueue {
	wq := &WorkQueue{
		items:   make([]*WorkItem, 0),
		maxSize: maxSize,
	}
	wq.notEmpty = sync.NewCond(&wq.mu)
	return wq
}

// Push adds a work item to the queue, blocking if the queue is full
func (wq *WorkQueue) Push(ctx context.Context, item *WorkItem) error {
	wq.mu.Lock()
	defer wq.mu.Unlock()

	for len(wq.items) >= wq.maxSize {
		wq.mu.Unlock()
		select {
		case <-ctx.Done():
			wq.mu.Lock() // Re-acquire for defer
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
			// Brief wait before retrying
		}
		wq.mu.Lock()
	}

	wq.items = append(wq.items, item)
	wq.notEmpty.Signal()
	return nil
}

// Pop removes and returns a work item from the queue, blocking if the queue is empty
func (wq *WorkQueue) Pop(ctx context.Context) (*WorkItem, error) {
	wq.mu.Lock()
	defer wq.mu.Unlock()

	for len(wq.items) == 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if wq.closed {
			return nil, ErrQueueClosed
		}
		wq.notEmpty.Wait()
	}

	item := wq.items[0]
	wq.items = wq.items[1:]
	return item, nil
}

// Close wakes every blocked Pop so consumers can observe shutdown; the
// condition variable does not watch the context on its own.
func (wq *WorkQueue) Close() {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	wq.closed = true
	wq.notEmpty.Broadcast()
}

// Size returns the current size of the queue
func (wq *WorkQueue) Size() int {
	wq.mu.RLock()
	defer wq.mu.RUnlock()
	return len(wq.items)
}

// IsNotFull returns true if the queue is not at maximum capacity
func (wq *WorkQueue) IsNotFull() bool {
	wq.mu.RLock()
	defer wq.mu.RUnlock()
	return len(wq.items) < wq.maxSize
}

// Extractor follows the chain head, traces every block and persists the
// console logs found in the traces.
type Extractor struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *orm.Database
	querier  *querier.Querier
	pipeline *console.Pipeline

	lastProducedHeight int64 // next height to scrape
	latestChainHeight  int64 // most recently observed chain head
	workQueue          *WorkQueue
}

func New(cfg *config.Config, logger *slog.Logger, db *orm.Database) *Extractor {
	return &Extractor{
		cfg:       cfg,
		logger:    logger.With("worker", WorkerName),
		db:        db,
		querier:   querier.NewQuerier(cfg.GetChainConfig()),
		pipeline:  console.NewPipeline(cfg.GetExtractorConfig().GetIncludeReverted()),
		workQueue: NewWorkQueue(cfg.GetExtractorConfig().GetQueueSize()),
	}
}

// Initialize determines the height to resume from: an explicit START_HEIGHT
// wins, otherwise the persisted high-water mark.
func (e *Extractor) Initialize(ctx context.Context) error {
	if e.cfg.StartHeightSet() {
		e.lastProducedHeight = e.cfg.GetStartHeight()
		return nil
	}

	var seqInfo types.CollectedSeqInfo
	if err := e.db.WithContext(ctx).
		Where("name = ?", seqNameNextHeight).First(&seqInfo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			e.lastProducedHeight = 0
			return nil
		}
		e.logger.Error("failed to get the last extracted height", slog.Any("error", err))
		return err
	}

	e.lastProducedHeight = seqInfo.Sequence
	return nil
}

func (e *Extractor) Run(ctx context.Context) error {
	if err := e.Initialize(ctx); err != nil {
		return err
	}

	e.logger.Info("extractor started", slog.Int64("start_height", e.lastProducedHeight))
	metrics.SetComponentHealth(WorkerName, true)
	defer metrics.SetComponentHealth(WorkerName, false)

	go e.runProducer(ctx)
	go e.runConsumer(ctx)

	// Wait for context cancellation
	<-ctx.Done()
	e.workQueue.Close()
	e.logger.Info("extractor shutting down gracefully",
		slog.String("reason", ctx.Err().Error()))
	return ctx.Err()
}

// runProtected invokes fn, recording and converting a panic into an error.
// A malformed work item must not take the whole worker down.
func runProtected(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.TrackPanic(WorkerName)
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()
	return fn()
}

// runProducer finds new block heights, scrapes their traces, and queues them
func (e *Extractor) runProducer(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("producer shutting down")
			return
		default:
			if !e.workQueue.IsNotFull() {
				// Queue is full, wait a bit before checking again
				time.Sleep(100 * time.Millisecond)
				continue
			}

			if err := runProtected(func() error { return e.produceWork(ctx) }); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				e.logger.Error("failed to produce work",
					slog.Any("error", err),
					slog.Int64("last_height", e.lastProducedHeight))
				metrics.GetMetrics().ExtractorMetrics().ProcessingErrors.WithLabelValues("scrape", "error").Inc()
				metrics.TrackError(WorkerName, "scrape_error")
				time.Sleep(e.cfg.GetExtractorConfig().GetPollInterval())
			}
		}
	}
}

// runConsumer persists queued work items
func (e *Extractor) runConsumer(ctx context.Context) {
	e.logger.Info("consumer started")

	for {
		workItem, err := e.workQueue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrQueueClosed) {
				e.logger.Info("consumer shutting down")
				return
			}
			e.logger.Error("failed to pop work item from queue", slog.Any("error", err))
			continue
		}

		if err := runProtected(func() error { return e.consumeWork(ctx, workItem) }); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			e.logger.Error("failed to consume work item",
				slog.Int64("height", workItem.Height),
				slog.Any("error", err))
			metrics.GetMetrics().ExtractorMetrics().ProcessingErrors.WithLabelValues("collect", "error").Inc()
			metrics.TrackError(WorkerName, "collect_error")
			// Continue processing other work items even if one fails
		} else {
			e.logger.Debug("successfully processed work item", slog.Int64("height", workItem.Height))
		}
	}
}

// produceWork scrapes the next batch of heights concurrently and queues the
// results in height order.
func (e *Extractor) produceWork(ctx context.Context) error {
	transaction, ctx := sentry_integration.StartSentryTransaction(ctx, "produceWork", "Finding and scraping new heights")
	defer transaction.Finish()

	batch, err := e.nextBatchSize(ctx)
	if err != nil {
		return err
	}
	if batch == 0 {
		// caught up with the head, wait for new blocks
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.cfg.GetExtractorConfig().GetPollInterval()):
		}
		return nil
	}

	items := make([]*WorkItem, batch)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < batch; i++ {
		height := e.lastProducedHeight + int64(i)
		g.Go(func() error {
			item, err := e.scrapeHeight(gctx, height)
			if err != nil {
				return err
			}
			items[height-e.lastProducedHeight] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, item := range items {
		if err := e.workQueue.Push(ctx, item); err != nil {
			return err
		}
	}

	e.logger.Debug("produced work items",
		slog.Int64("from_height", e.lastProducedHeight),
		slog.Int("count", batch),
		slog.Int("queue_size", e.workQueue.Size()))
	metrics.GetMetrics().ExtractorMetrics().InflightBlocksCount.Set(float64(e.workQueue.Size()))

	e.lastProducedHeight += int64(batch)
	return nil
}

// nextBatchSize returns how many heights can be scraped without passing the
// chain head, refreshing the cached head only when it would block progress.
func (e *Extractor) nextBatchSize(ctx context.Context) (int, error) {
	if e.lastProducedHeight > e.latestChainHeight {
		latest, err := e.querier.GetLatestHeight(ctx)
		if err != nil {
			return 0, err
		}
		e.latestChainHeight = latest
	}

	remaining := e.latestChainHeight - e.lastProducedHeight + 1
	if remaining <= 0 {
		return 0, nil
	}

	batch := int64(e.cfg.GetExtractorConfig().GetBatchSize())
	if remaining < batch {
		batch = remaining
	}
	return int(batch), nil
}

// scrapeHeight fetches the call traces of a single block
func (e *Extractor) scrapeHeight(ctx context.Context, height int64) (*WorkItem, error) {
	span, ctx := sentry_integration.StartSentrySpan(ctx, "scrapeHeight", "Tracing block "+strconv.FormatInt(height, 10))
	defer span.Finish()

	start := time.Now()
	traces, err := e.querier.TraceBlock(ctx, height)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			e.logger.Info("scraping cancelled", slog.Int64("height", height))
			return nil, err
		}
		e.logger.Error("failed to trace block",
			slog.Int64("height", height),
			slog.Any("error", err))
		return nil, err
	}
	metrics.GetMetrics().ExtractorMetrics().BlockProcessingTime.WithLabelValues("scrape").Observe(time.Since(start).Seconds())

	e.logger.Info("scraped block traces", slog.Int64("height", height), slog.Int("tx_count", len(traces)))

	return &WorkItem{
		Height: height,
		Traces: traces,
	}, nil
}

// consumeWork extracts console logs from a work item and saves them
func (e *Extractor) consumeWork(ctx context.Context, workItem *WorkItem) error {
	span, ctx := sentry_integration.StartSentrySpan(ctx, "consumeWork", "Collecting console logs for height "+strconv.FormatInt(workItem.Height, 10))
	defer span.Finish()

	start := time.Now()
	if err := e.Collect(ctx, workItem); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		e.logger.Error("failed to collect console logs",
			slog.Int64("height", workItem.Height),
			slog.Any("error", err))
		return err
	}

	em := metrics.GetMetrics().ExtractorMetrics()
	em.BlockProcessingTime.WithLabelValues("collect").Observe(time.Since(start).Seconds())
	em.BlocksProcessedTotal.Inc()
	em.CurrentBlockHeight.Set(float64(workItem.Height))

	return nil
}
