package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pack-grader/internal/app"
)

var (
	submitItems      string
	submitPrice      float64
	submitObservedAt string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "提交一个新 bundle 并立即评级",
	RunE: func(cmd *cobra.Command, args []string) error {
		if submitItems == "" {
			return errors.New("--items 必须提供")
		}

		opts := app.SubmitOptions{
			Items: submitItems,
			Price: submitPrice,
		}

		if submitObservedAt != "" {
			observed, err := time.Parse(time.RFC3339, submitObservedAt)
			if err != nil {
				return fmt.Errorf("invalid --observed-at value: %w", err)
			}
			opts.ObservedAt = &observed
		}

		return getApp().Submit(cmd.Context(), opts)
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitItems, "items", "", "Item lines, e.g. pot:10,gem:2")
	submitCmd.Flags().Float64Var(&submitPrice, "price", 0, "Bundle price")
	submitCmd.Flags().StringVar(&submitObservedAt, "observed-at", "", "Observation timestamp (RFC3339, defaults to now)")
}
