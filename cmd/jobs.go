package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/equity-research/internal/model"
	"github.com/sells-group/equity-research/internal/store"
)

var (
	jobsStatus string
	jobsTicker string
	jobsLimit  int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent analysis jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		filter := store.JobFilter{
			Ticker: jobsTicker,
			Limit:  jobsLimit,
		}
		if jobsStatus != "" {
			filter.Status = model.JobStatus(jobsStatus)
		}

		jobs, err := e.Store.ListJobs(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("no jobs found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTICKER\tSTATUS\tPROGRESS\tSTAGE\tCREATED\tERROR")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\t%s\t%s\n",
				j.ID, j.Ticker, j.Status, j.Progress*100, j.CurrentStage,
				j.CreatedAt.Format("2006-01-02 15:04"), j.Error)
		}
		return w.Flush()
	},
}

func init() {
	jobsCmd.Flags().StringVar(&jobsStatus, "status", "", "filter by status (pending, processing, completed, failed)")
	jobsCmd.Flags().StringVar(&jobsTicker, "ticker", "", "filter by ticker")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "maximum jobs to list")
	rootCmd.AddCommand(jobsCmd)
}
