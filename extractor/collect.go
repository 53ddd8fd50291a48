package extractor

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/declog/declog/console"
	"github.com/declog/declog/metrics"
	"github.com/declog/declog/orm"
	"github.com/declog/declog/sentry_integration"
	"github.com/declog/declog/types"
	"github.com/declog/declog/util"
)

const (
	// monotonic sequence over all collected console logs
	seqNameConsoleLog = "console_log"
	// next block height the extractor should scrape
	seqNameNextHeight = "extractor_next_height"
)

// Collect extracts the console logs of every transaction in the work item
// and persists them in one serializable transaction. Concurrent collectors
// for the same height lose the serialization race, which is tolerated.
func (e *Extractor) Collect(ctx context.Context, item *WorkItem) error {
	err := e.db.Transaction(func(tx *gorm.DB) error {
		seqInfo, err := getSeqInfo(tx, seqNameConsoleLog)
		if err != nil {
			return err
		}

		var (
			logs     []types.CollectedConsoleLog
			warnings []types.CollectedExtractionWarning
		)
		for idx, trace := range item.Traces {
			span, _ := sentry_integration.StartSentrySpan(ctx, "ExtractConsoleLogs", "Extracting console logs at index "+strconv.Itoa(idx))

			hash, err := util.NormalizeTxHash(trace.TxHash)
			if err != nil {
				span.Finish()
				return err
			}

			outcomes, err := e.pipeline.Extract(&trace.Result)
			if err != nil {
				span.Finish()
				// a broken trace taints only its own transaction; record it
				// and keep going with the rest of the block
				e.logger.Warn("skipping transaction with unusable trace",
					slog.Int64("height", item.Height),
					slog.String("tx_hash", hash),
					slog.Any("error", err))
				warnings = append(warnings, types.CollectedExtractionWarning{
					Height:   item.Height,
					Hash:     hash,
					Position: -1,
					Reason:   err.Error(),
				})
				continue
			}

			for _, outcome := range outcomes {
				if outcome.Entry != nil {
					entry := outcome.Entry
					seqInfo.Sequence++
					logs = append(logs, types.CollectedConsoleLog{
						Height:    item.Height,
						Hash:      hash,
						Position:  int64(entry.Position),
						Sequence:  seqInfo.Sequence,
						Signature: entry.Signature,
						Values:    pq.StringArray(console.FormatEach(entry.Values)),
						Message:   entry.Message,
						Reverted:  entry.Reverted,
					})
					continue
				}

				warning := outcome.Warning
				warnings = append(warnings, types.CollectedExtractionWarning{
					Height:   item.Height,
					Hash:     hash,
					Position: int64(warning.Position),
					Reason:   warning.Reason(),
				})
				metrics.GetMetrics().ExtractorMetrics().ExtractionWarningsTotal.WithLabelValues(warnReason(warning.Err)).Inc()
			}

			span.Finish()
		}

		batchSize := e.cfg.GetDBBatchSize()
		if len(logs) > 0 {
			if err := tx.Clauses(orm.DoNothingWhenConflict).CreateInBatches(logs, batchSize).Error; err != nil {
				e.logger.Error("failed to create console log batch", slog.Int64("height", item.Height), slog.Any("error", err))
				return err
			}
		}
		if len(warnings) > 0 {
			if err := tx.Clauses(orm.DoNothingWhenConflict).CreateInBatches(warnings, batchSize).Error; err != nil {
				e.logger.Error("failed to create extraction warning batch", slog.Int64("height", item.Height), slog.Any("error", err))
				return err
			}
		}

		// Update the sequence info and the resume height
		if err := tx.Clauses(orm.UpdateAllWhenConflict).Create(&seqInfo).Error; err != nil {
			return err
		}
		nextHeight := types.CollectedSeqInfo{Name: seqNameNextHeight, Sequence: item.Height + 1}
		if err := tx.Clauses(orm.UpdateAllWhenConflict).Create(&nextHeight).Error; err != nil {
			return err
		}

		em := metrics.GetMetrics().ExtractorMetrics()
		em.LogsExtractedTotal.Add(float64(len(logs)))
		em.ConsoleCallsPerBlock.Observe(float64(len(logs) + len(warnings)))

		return nil
	}, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		// handle intended serialization error
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "40001" {
			e.logger.Info("console logs already collected", slog.Int64("height", item.Height))
			return nil
		}

		return err
	}

	return nil
}

// getSeqInfo loads a named sequence row, starting from zero when the row
// does not exist yet.
func getSeqInfo(tx *gorm.DB, name string) (types.CollectedSeqInfo, error) {
	var seqInfo types.CollectedSeqInfo
	if err := tx.Where("name = ?", name).First(&seqInfo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.CollectedSeqInfo{Name: name, Sequence: 0}, nil
		}
		return seqInfo, err
	}
	return seqInfo, nil
}

// warnReason maps a per-call failure to a low-cardinality metric label.
func warnReason(err error) string {
	switch {
	case types.IsErrorType(err, types.ErrTypeNotFound):
		return "unknown_selector"
	case errors.Is(err, console.ErrTruncated):
		return "truncated"
	case errors.Is(err, console.ErrBadOffset):
		return "bad_offset"
	default:
		return "other"
	}
}
