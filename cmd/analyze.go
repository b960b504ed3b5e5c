package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/equity-research/internal/model"
	"github.com/sells-group/equity-research/internal/render"
)

var analyzeOutput string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <ticker>",
	Short: "Run a full analysis for one ticker and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker, ok := model.NormalizeTicker(args[0])
		if !ok {
			return eris.Errorf("invalid ticker %q", args[0])
		}

		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		job, err := e.Store.CreateJob(cmd.Context(), ticker)
		if err != nil {
			return eris.Wrap(err, "create job")
		}
		if err := e.Pipeline.Run(cmd.Context(), job.ID, ticker); err != nil {
			return eris.Wrapf(err, "analysis for %s failed", ticker)
		}

		report, err := e.Store.GetReport(cmd.Context(), job.ID)
		if err != nil {
			return eris.Wrap(err, "load report")
		}

		doc := render.Markdown(report)
		if analyzeOutput != "" {
			if err := os.WriteFile(analyzeOutput, []byte(doc), 0o644); err != nil {
				return eris.Wrapf(err, "write report to %s", analyzeOutput)
			}
			fmt.Printf("report written to %s\n", analyzeOutput)
			return nil
		}
		fmt.Println(doc)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write the report to a file instead of stdout")
	rootCmd.AddCommand(analyzeCmd)
}
