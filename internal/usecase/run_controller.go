package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/steam-claimer/internal/entity"
	"github.com/user/steam-claimer/internal/repository"
	"github.com/user/steam-claimer/pkg/metrics"
)

const defaultFlushTimeout = 30 * time.Second

// RunController sequences one claiming run and guarantees the final flush
// and notification however the run ends.
type RunController struct {
	auth     Authenticator
	sources  []CatalogSource
	store    repository.LedgerStore
	exporter repository.LedgerExporter
	notifier repository.Notifier
	exit     *ExitStatus
	metrics  *metrics.Metrics
	logger   *zap.Logger

	flushTimeout time.Duration
}

// NewRunController creates a controller. Sources run in the given order.
func NewRunController(
	auth Authenticator,
	sources []CatalogSource,
	store repository.LedgerStore,
	exporter repository.LedgerExporter,
	notifier repository.Notifier,
	exit *ExitStatus,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RunController {
	return &RunController{
		auth:         auth,
		sources:      sources,
		store:        store,
		exporter:     exporter,
		notifier:     notifier,
		exit:         exit,
		metrics:      m,
		logger:       logger,
		flushTimeout: defaultFlushTimeout,
	}
}

// Run performs the run and returns the completion code.
func (rc *RunController) Run(ctx context.Context) int {
	rc.logger.Info("started checking steam")

	doc, err := rc.store.Load(ctx)
	if err != nil {
		// Nothing was changed yet; flushing would overwrite the stored ledger.
		rc.logger.Warn("ledger not loaded, skipping ledger flush and per-user export", zap.Error(err))
		rc.fail(ctx, fmt.Errorf("failed to load ledger: %w", err))
		rc.recordResult()
		return rc.exit.Code()
	}

	ledger := entity.NewLedger(doc)
	sess, err := rc.sequence(ctx, ledger)
	if err != nil {
		rc.fail(ctx, err)
	}
	rc.finish(ctx, ledger, sess)
	rc.recordResult()
	return rc.exit.Code()
}

func (rc *RunController) sequence(ctx context.Context, ledger *entity.Ledger) (*Session, error) {
	user, err := rc.auth.EnsureLoggedIn(ctx)
	if err != nil {
		return nil, err
	}
	sess := NewSession(user, ledger.Partition(user))

	for _, src := range rc.sources {
		rc.logger.Info("starting to claim", zap.String("source", src.Name()))
		if err := src.Run(ctx, sess); err != nil {
			return sess, fmt.Errorf("%s: %w", src.Name(), err)
		}
		rc.logger.Info("finished claiming", zap.String("source", src.Name()))
	}
	return sess, nil
}

// fail records err as the run's failure cause and alerts once, unless the
// run was interrupted.
func (rc *RunController) fail(ctx context.Context, err error) {
	ReportFailure(ctx, err, rc.exit, rc.notifier, rc.flushTimeout, rc.logger)
}

// ReportFailure sets the failure code unless a code is already recorded and
// sends "steam failed: <first line>" unless the run was interrupted. It
// returns the resulting exit code.
func ReportFailure(ctx context.Context, err error, exit *ExitStatus, notifier repository.Notifier, timeout time.Duration, logger *zap.Logger) int {
	logger.Error("run failed", zap.Error(err))
	exit.SetIfUnset(ExitFailure)
	if exit.Code() == ExitInterrupted {
		return ExitInterrupted
	}

	if timeout <= 0 {
		timeout = defaultFlushTimeout
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := notifier.Send(sendCtx, "steam failed: "+firstLine(err)); err != nil {
		logger.Error("failed to send failure alert", zap.Error(err))
	}
	return exit.Code()
}

// finish persists the ledger and sends the digest. Errors are only logged.
func (rc *RunController) finish(ctx context.Context, ledger *entity.Ledger, sess *Session) {
	flushCtx, cancel := rc.detached(ctx)
	defer cancel()

	if err := rc.store.Save(flushCtx, ledger.Document()); err != nil {
		rc.logger.Error("failed to write ledger", zap.Error(err))
	}
	if sess == nil {
		return
	}

	if rc.exporter != nil {
		if err := rc.exporter.Export(flushCtx, sess.Username, sess.Ledger.Entries()); err != nil {
			rc.logger.Error("failed to export ledger", zap.String("user", sess.Username), zap.Error(err))
		} else {
			rc.logger.Info("data written to file", zap.String("user", sess.Username))
		}
	}

	if msg, ok := BuildDigest(sess.Username, sess.Records()); ok {
		if err := rc.notifier.Send(flushCtx, msg); err != nil {
			rc.logger.Error("failed to send digest", zap.Error(err))
		}
	}
}

// detached keeps request values but survives cancellation of the run.
func (rc *RunController) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), rc.flushTimeout)
}

func (rc *RunController) recordResult() {
	result := "success"
	switch rc.exit.Code() {
	case ExitOK:
	case ExitInterrupted:
		result = "interrupted"
	default:
		result = "failure"
	}
	rc.metrics.RunsTotal.WithLabelValues(result).Inc()
}
