package vigat

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// Config is the optional TOML hyperparameter file. Values set here override
// the environment defaults in cmd/trainer.
type Config struct {
	Training      TrainingConfig      `toml:"training"`
	EarlyStopping EarlyStoppingConfig `toml:"early_stopping"`
}

type TrainingConfig struct {
	Seed         int64   `toml:"seed"`
	NumEpochs    int     `toml:"num_epochs"`
	BatchSize    int     `toml:"batch_size"`
	LearningRate float64 `toml:"lr"`
	Milestones   []int64 `toml:"milestones"`
	Gamma        float64 `toml:"gamma"`
}

type EarlyStoppingConfig struct {
	Patience  int     `toml:"patience"`
	MinDelta  float64 `toml:"min_delta"`
	Threshold float64 `toml:"threshold"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
