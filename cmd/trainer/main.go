package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0x6flab/namegenerator"
	"github.com/caarlos0/env/v11"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	vigat "github.com/ordanini/vigat"
	"github.com/ordanini/vigat/checkpoint"
	"github.com/ordanini/vigat/dataset"
	"github.com/ordanini/vigat/metric"
	"github.com/ordanini/vigat/nn"
	"github.com/ordanini/vigat/pkg/storage"
	"github.com/ordanini/vigat/trainer"
	"github.com/ordanini/vigat/trainer/api"
	"github.com/ordanini/vigat/trainer/middleware"
)

const (
	svcName         = "trainer"
	pathEnv         = ".env"
	shutdownTimeout = 5 * time.Second
)

type envConfig struct {
	LogLevel     string  `env:"TRAINER_LOG_LEVEL"    envDefault:"info"`
	InstanceID   string  `env:"TRAINER_INSTANCE_ID"`
	HTTPAddress  string  `env:"TRAINER_HTTP_ADDRESS" envDefault:":7171"`
	ConfigPath   string  `env:"TRAINER_CONFIG_PATH"`
	TrainFeats   string  `env:"TRAINER_TRAIN_FEATS"  envDefault:"feats/train.cbor"`
	ValFeats     string  `env:"TRAINER_VAL_FEATS"    envDefault:"feats/val.cbor"`
	RunID        string  `env:"TRAINER_RUN_ID"`
	Seed         int64   `env:"TRAINER_SEED"         envDefault:"2024"`
	NumEpochs    int     `env:"TRAINER_NUM_EPOCHS"   envDefault:"200"`
	BatchSize    int     `env:"TRAINER_BATCH_SIZE"   envDefault:"64"`
	LearningRate float64 `env:"TRAINER_LR"           envDefault:"0.0001"`
	Milestones   []int   `env:"TRAINER_MILESTONES"   envDefault:"110,160"`
	Gamma        float64 `env:"TRAINER_GAMMA"        envDefault:"0.1"`
	Resume       string  `env:"TRAINER_RESUME"`
	SaveFolder   string  `env:"TRAINER_SAVE_FOLDER"  envDefault:"weights"`
	Patience     int     `env:"TRAINER_PATIENCE"     envDefault:"30"`
	MinDelta     float64 `env:"TRAINER_MIN_DELTA"    envDefault:"0.5"`
	Threshold    float64 `env:"TRAINER_THRESHOLD"    envDefault:"95"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if cfg.RunID == "" {
		cfg.RunID = namegenerator.NewGenerator().Generate()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	tcfg := trainer.Config{
		RunID:        cfg.RunID,
		Seed:         cfg.Seed,
		Epochs:       cfg.NumEpochs,
		BatchSize:    cfg.BatchSize,
		LearningRate: cfg.LearningRate,
		Milestones:   cfg.Milestones,
		Gamma:        cfg.Gamma,
		Resume:       cfg.Resume,
		SaveDir:      cfg.SaveFolder,
		Patience:     cfg.Patience,
		MinDelta:     cfg.MinDelta,
		Threshold:    cfg.Threshold,
	}
	if cfg.ConfigPath != "" {
		fileCfg, err := vigat.LoadConfig(cfg.ConfigPath)
		if err != nil {
			logger.Error("failed to load config file", slog.String("path", cfg.ConfigPath), slog.Any("error", err))

			return
		}
		applyFileConfig(&tcfg, fileCfg)
	}

	trainSet, err := dataset.LoadFile(cfg.TrainFeats)
	if err != nil {
		logger.Error("failed to load training features", slog.Any("error", err))

		return
	}
	valSet, err := dataset.LoadFile(cfg.ValFeats)
	if err != nil {
		logger.Error("failed to load validation features", slog.Any("error", err))

		return
	}

	logger.Info("datasets loaded",
		slog.Int("train_albums", trainSet.Len()),
		slog.Int("val_albums", valSet.Len()),
		slog.Int("num_classes", trainSet.NumClasses()))

	localDim, globalDim := trainSet.Dims()
	model, err := nn.NewLinearClassifier(localDim, globalDim, trainSet.NumClasses(), tcfg.Seed)
	if err != nil {
		logger.Error("failed to build model", slog.Any("error", err))

		return
	}
	opt := nn.NewAdam(model.Parameters(), tcfg.LearningRate)
	sched := nn.NewMultiStepLR(opt, tcfg.Milestones, tcfg.Gamma)
	crit := nn.NewBCEWithLogits()

	ckpts, err := checkpoint.NewManager(tcfg.SaveDir, tcfg.RunID)
	if err != nil {
		logger.Error("failed to initialize checkpoint manager", slog.Any("error", err))

		return
	}

	svc, err := trainer.NewService(tcfg, model, opt, sched, crit, trainSet, valSet, ckpts, metric.Partial, storage.NewInMemoryStorage(), trainer.NewMetrics(svcName), logger)
	if err != nil {
		logger.Error("failed to initialize trainer service", slog.Any("error", err))

		return
	}
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(noop.NewTracerProvider().Tracer(svcName), svc)
	counter, latency := makeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	hs := &http.Server{
		Addr:    cfg.HTTPAddress,
		Handler: api.MakeHandler(svc, logger, cfg.InstanceID),
	}

	g.Go(func() error {
		logger.Info("starting HTTP server", slog.String("address", cfg.HTTPAddress))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		return hs.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		defer cancel()

		summary, err := svc.Run(ctx)
		if err != nil {
			return err
		}
		logger.Info("training finished",
			slog.String("run_id", cfg.RunID),
			slog.String("state", summary.State.String()),
			slog.Int("epoch", summary.Epoch),
			slog.Float64("best_map", summary.BestScore))

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}

func applyFileConfig(tcfg *trainer.Config, fileCfg *vigat.Config) {
	if fileCfg.Training.Seed != 0 {
		tcfg.Seed = fileCfg.Training.Seed
	}
	if fileCfg.Training.NumEpochs != 0 {
		tcfg.Epochs = fileCfg.Training.NumEpochs
	}
	if fileCfg.Training.BatchSize != 0 {
		tcfg.BatchSize = fileCfg.Training.BatchSize
	}
	if fileCfg.Training.LearningRate != 0 {
		tcfg.LearningRate = fileCfg.Training.LearningRate
	}
	if len(fileCfg.Training.Milestones) != 0 {
		tcfg.Milestones = make([]int, len(fileCfg.Training.Milestones))
		for i, m := range fileCfg.Training.Milestones {
			tcfg.Milestones[i] = int(m)
		}
	}
	if fileCfg.Training.Gamma != 0 {
		tcfg.Gamma = fileCfg.Training.Gamma
	}
	if fileCfg.EarlyStopping.Patience != 0 {
		tcfg.Patience = fileCfg.EarlyStopping.Patience
	}
	if fileCfg.EarlyStopping.MinDelta != 0 {
		tcfg.MinDelta = fileCfg.EarlyStopping.MinDelta
	}
	if fileCfg.EarlyStopping.Threshold != 0 {
		tcfg.Threshold = fileCfg.EarlyStopping.Threshold
	}
}

func makeMetrics(namespace, subsystem string) (*kitprometheus.Counter, *kitprometheus.Summary) {
	counter := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_count",
		Help:      "Number of requests received.",
	}, []string{"method"})
	latency := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_latency_microseconds",
		Help:      "Total duration of requests in microseconds.",
	}, []string{"method"})

	return counter, latency
}
