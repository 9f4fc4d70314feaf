package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"pack-grader/internal/app"
)

var (
	gradeItems string
	gradePrice float64
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Grade a hypothetical bundle against historical data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if gradeItems == "" {
			return errors.New("--items is required")
		}
		if gradePrice <= 0 {
			return errors.New("--price must be greater than zero")
		}

		opts := app.GradeOptions{
			Items: gradeItems,
			Price: gradePrice,
		}

		return getApp().Grade(cmd.Context(), opts)
	},
}

func init() {
	gradeCmd.Flags().StringVar(&gradeItems, "items", "", "Item lines, e.g. pot:10,gem:2")
	gradeCmd.Flags().Float64Var(&gradePrice, "price", 0, "Bundle price")
}
