package trainer

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// Metrics are the per-epoch training gauges exported on /metrics.
type Metrics struct {
	Epochs          metrics.Counter
	TrainLoss       metrics.Gauge
	ValidationScore metrics.Gauge
	BestScore       metrics.Gauge
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Epochs: kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Name:      "epochs_total",
			Help:      "Number of completed training epochs.",
		}, []string{}),
		TrainLoss: kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "train_loss",
			Help:      "Mean training loss of the last completed epoch.",
		}, []string{}),
		ValidationScore: kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "validation_map",
			Help:      "Macro mAP of the last validation pass.",
		}, []string{}),
		BestScore: kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_validation_map",
			Help:      "Best macro mAP observed in this run.",
		}, []string{}),
	}
}

func NewNopMetrics() *Metrics {
	return &Metrics{
		Epochs:          discard.NewCounter(),
		TrainLoss:       discard.NewGauge(),
		ValidationScore: discard.NewGauge(),
		BestScore:       discard.NewGauge(),
	}
}
