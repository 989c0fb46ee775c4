// Package supervisor implements the Supervisor (C7): it initializes every
// collaborator in dependency order, wires the pipeline stages together over
// buffered channels, installs a shutdown signal handler, and tears
// everything down in reverse order on exit. An explicit Run/Shutdown
// lifecycle struct rather than one flat main(), using
// golang.org/x/sync/errgroup so sibling goroutines must all succeed or all
// stop together.
package supervisor

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/you/sandwich-sentinel/internal/apperrors"
	"github.com/you/sandwich-sentinel/internal/batcher"
	"github.com/you/sandwich-sentinel/internal/config"
	"github.com/you/sandwich-sentinel/internal/dedup"
	"github.com/you/sandwich-sentinel/internal/detector"
	"github.com/you/sandwich-sentinel/internal/domain"
	"github.com/you/sandwich-sentinel/internal/health"
	"github.com/you/sandwich-sentinel/internal/publisher"
	"github.com/you/sandwich-sentinel/internal/txstream"
	"github.com/you/sandwich-sentinel/internal/validator"
)

// gracePeriod is the shutdown drain budget from §4.7: in-flight work is
// allowed to finish through C3-C6 for up to this long before teardown
// proceeds regardless.
const gracePeriod = 10 * time.Second

// Supervisor owns every collaborator's lifecycle.
type Supervisor struct {
	cfg *config.Config
	log *zap.Logger

	redis     *redis.Client
	subscribe *txstream.Subscriber
	batch     *batcher.Batcher
	detect    *detector.Detector
	dedupe    *dedup.Deduplicator
	validate  *validator.Validator
	publish   *publisher.Publisher

	metrics *health.Metrics
	health  *health.Registry

	httpSrv *http.Server
}

// New initializes every collaborator in dependency order: cache client,
// then the components that depend on it, then the HTTP health surface. If
// any client fails to initialize, New returns a non-nil error and the
// caller must abort startup with a non-zero exit (§4.7).
func New(cfg *config.Config, log *zap.Logger) (*Supervisor, error) {
	log.Info("starting sandwich-sentinel pipeline",
		zap.String("wss_url", config.SanitizeURL(cfg.WSSURL)),
		zap.String("kafka_broker", config.SanitizeURL(cfg.KafkaBroker)),
		zap.String("redis_url", config.SanitizeURL(cfg.RedisURL)))

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfig, "parse REDIS_URL", err)
	}
	redisClient := redis.NewClient(redisOpts)

	reg := prometheus.NewRegistry()
	metrics := health.NewMetrics(reg)

	subscribe := txstream.New(cfg.WSSURL, log.Named("txstream"))
	batch := batcher.New(cfg.BatchSize, cfg.BatchInterval, log.Named("batcher"), metrics)
	detect := detector.New(log.Named("detector"))
	dedupe := dedup.New(redisClient, cfg.DedupTTL, log.Named("dedup"))
	validate := validator.New(cfg.ValidatorHost, cfg.ValidationMinN, log.Named("validator"))
	publish := publisher.New(cfg.KafkaBroker, cfg.KafkaTopic, log.Named("publisher"))

	registry := health.NewRegistry(
		subscribe.HealthSource(),
		dedupe.HealthSource(),
		validate.HealthSource(),
		publish.HealthSource(),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", health.Liveness)
	mux.HandleFunc("/readyz", registry.Readiness)
	mux.HandleFunc("/health", registry.Handler())
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &Supervisor{
		cfg:       cfg,
		log:       log,
		redis:     redisClient,
		subscribe: subscribe,
		batch:     batch,
		detect:    detect,
		dedupe:    dedupe,
		validate:  validate,
		publish:   publish,
		metrics:   metrics,
		health:    registry,
		httpSrv:   &http.Server{Addr: ":9090", Handler: mux},
	}, nil
}

// Run wires the pipeline stages together and blocks until a shutdown
// signal arrives or a stage fails unrecoverably. On signal: C1 is
// canceled (no new input), in-flight work drains through C3-C6 for up to
// gracePeriod, then collaborators are closed in reverse dependency order.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	txs := make(chan domain.Transaction, s.cfg.BatchSize*4)
	batches := make(chan domain.Batch, 1)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.httpSrv.ListenAndServe()
	})

	g.Go(func() error {
		s.subscribe.Stream(gctx, txs)
		return nil
	})

	g.Go(func() error {
		s.batch.Run(gctx, txs, batches)
		return nil
	})

	g.Go(func() error {
		s.runPipeline(gctx, batches)
		return nil
	})

	<-gctx.Done()
	s.log.Info("shutdown signal received, draining in-flight work",
		zap.Duration("grace_period", gracePeriod))

	drainCtx, cancel := context.WithTimeout(context.Background(), gracePeriod)
	defer cancel()
	s.drain(drainCtx, batches)

	s.teardown()

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runPipeline is the C3-C6 chain: detect, dedup, validate, publish. It runs
// until batches is closed or ctx is canceled; the batcher stage is
// responsible for sealing a final batch before that happens.
func (s *Supervisor) runPipeline(ctx context.Context, batches <-chan domain.Batch) {
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-batches:
			if !ok {
				return
			}
			s.processBatch(ctx, b)
		}
	}
}

func (s *Supervisor) processBatch(ctx context.Context, b domain.Batch) {
	// Tags every log line this batch produces through C3-C6 with one
	// correlation ID, so a single sandwich's path through the pipeline can
	// be grepped out of the logs even though its lines interleave with those
	// of the other pipeline stages.
	batchID := uuid.New().String()
	log := s.log.With(zap.String("batch_id", batchID))

	for _, f := range s.detect.Detect(b) {
		result, err := s.dedupe.CheckAndMark(ctx, f.AttackerAddress, s.metrics)
		if err != nil {
			log.Warn("dedup check failed", zap.Error(err))
		}
		if result == dedup.RecentlySeen {
			continue
		}

		confirmed, err := s.validate.Confirm(ctx, f, s.metrics)
		if err != nil {
			log.Warn("validation query failed, dropping finding (fail-closed)", zap.Error(err))
			continue
		}
		if !confirmed {
			continue
		}

		s.recordGasPremium(f)

		alert := domain.AlertFromFinding(f)
		if err := s.publish.Publish(ctx, alert, s.metrics); err != nil {
			log.Error("alert dropped after publish failure", zap.Error(err))
		}
	}
}

// recordGasPremium observes the gas-price delta between the frontrun and
// victim transaction of a confirmed sandwich. Informational only, it never
// gates detection or publication.
func (s *Supervisor) recordGasPremium(f domain.Finding) {
	if s.metrics == nil || f.FrontrunGasPrice == nil || f.VictimGasPrice == nil {
		return
	}
	premium := new(big.Int).Sub(f.FrontrunGasPrice, f.VictimGasPrice)
	if premium.Sign() < 0 {
		return
	}
	s.metrics.GasPremiumWei.Observe(float64WeiApprox(premium))
}

// float64WeiApprox converts a wei-denominated big.Int to float64 for
// histogram observation. Precision loss above 2^53 wei (~0.009 ETH) is
// acceptable here: this feeds an observability bucket, not the detection
// or profit-estimate arithmetic.
func float64WeiApprox(v *big.Int) float64 {
	f := new(big.Float).SetInt(v)
	out, _ := f.Float64()
	return out
}

// drain gives the in-flight pipeline gracePeriod to finish processing
// anything already sealed, then returns regardless.
func (s *Supervisor) drain(ctx context.Context, batches <-chan domain.Batch) {
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-batches:
			if !ok {
				return
			}
			s.processBatch(ctx, b)
		default:
			return
		}
	}
}

// teardown closes external clients in reverse dependency order from New.
func (s *Supervisor) teardown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("health http server shutdown error", zap.Error(err))
	}
	if err := s.publish.Close(); err != nil {
		s.log.Warn("kafka writer close error", zap.Error(err))
	}
	if err := s.redis.Close(); err != nil {
		s.log.Warn("redis client close error", zap.Error(err))
	}
}
