package trainer

import "math"

// EarlyStopper decides after each validation score whether training should
// stop and whether the current model is the best seen. Its state lives for
// one process only; a resumed run starts with a fresh stopper.
type EarlyStopper struct {
	patience  int
	minDelta  float64
	threshold float64
	counter   int
	maxScore  float64
}

func NewEarlyStopper(patience int, minDelta, threshold float64) *EarlyStopper {
	return &EarlyStopper{
		patience:  patience,
		minDelta:  minDelta,
		threshold: threshold,
		maxScore:  math.Inf(-1),
	}
}

// Evaluate returns (stop, saveBest) for a new validation score.
//
// A score at or above the threshold stops immediately and is always best. A
// new high-water mark resets patience and is saved. A regression of more
// than minDelta below the best consumes patience; exceeding the budget
// stops without saving. Scores within minDelta of the best neither reset
// nor consume patience.
func (es *EarlyStopper) Evaluate(score float64) (bool, bool) {
	if score >= es.threshold {
		return true, true
	}
	if score > es.maxScore {
		es.maxScore = score
		es.counter = 0

		return false, true
	}
	if score < es.maxScore-es.minDelta {
		es.counter++
		if es.counter > es.patience {
			return true, false
		}
	}

	return false, false
}

// BestScore is the highest score seen so far, -Inf before the first call.
func (es *EarlyStopper) BestScore() float64 {
	return es.maxScore
}
