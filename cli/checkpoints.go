package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ordanini/vigat/checkpoint"
)

type checkpointSummary struct {
	Path    string         `json:"path"`
	Epoch   int            `json:"epoch"`
	Loss    float64        `json:"loss"`
	Tensors map[string]int `json:"tensors"`
}

var checkpointsCmd = []cobra.Command{
	{
		Use:   "view <path>",
		Short: "View checkpoint",
		Long:  `View the epoch, loss and tensor shapes of a checkpoint file.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			state, err := checkpoint.Load(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, summarize(args[0], state))
		},
	},
	{
		Use:   "last <save-dir> <run-id>",
		Short: "View last checkpoint",
		Long:  `View the checkpoint written after the most recent epoch of a run.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			path := filepath.Join(args[0], "last-"+args[1]+".ckpt")
			state, err := checkpoint.Load(path)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, summarize(path, state))
		},
	},
	{
		Use:   "best <save-dir> <run-id>",
		Short: "View best checkpoint",
		Long:  `View the checkpoint of the best validation score of a run.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			path := filepath.Join(args[0], "best-"+args[1]+".ckpt")
			state, err := checkpoint.Load(path)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, summarize(path, state))
		},
	},
}

func NewCheckpointsCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "checkpoints [view|last|best]",
		Short: "Checkpoints inspector",
		Long:  `Inspect training checkpoints without loading them into a model.`,
	}

	for i := range checkpointsCmd {
		cmd.AddCommand(&checkpointsCmd[i])
	}

	return &cmd
}

func summarize(path string, state checkpoint.TrainingState) checkpointSummary {
	tensors := make(map[string]int)
	for name, v := range state.ModelState {
		tensors["model."+name] = len(v)
	}
	for name, v := range state.OptState {
		tensors["opt."+name] = len(v)
	}
	for name, v := range state.SchedState {
		tensors["sched."+name] = len(v)
	}

	return checkpointSummary{
		Path:    path,
		Epoch:   state.Epoch,
		Loss:    state.Loss,
		Tensors: tensors,
	}
}
