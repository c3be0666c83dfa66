package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/opensimlab/rescuelane/internal/output"
)

var runsArchive string

var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "List or show archived runs",
	Long: `Runs lists the records in the local run archive. With an id
argument it prints the full record for that run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Output.ArchivePath
		if runsArchive != "" {
			path = runsArchive
		}
		store, err := output.OpenRunStore(path)
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 1 {
			rec, found, err := store.Get(args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no run with id '%s'", args[0])
			}
			printRun(rec)
			return nil
		}

		recs, err := store.List()
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No archived runs.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSCENARIO\tSEED\tSTEPS\tINFLUENCED\tCROSSINGS\tFINISHED")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				r.ID, r.Scenario, r.Seed, r.Steps,
				r.InfluencedTotal, r.ManualCrossings,
				r.FinishedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

func printRun(r output.RunRecord) {
	fmt.Printf("Run %s\n", r.ID)
	fmt.Printf("  Scenario:          %s\n", r.Scenario)
	fmt.Printf("  Seed:              %d\n", r.Seed)
	fmt.Printf("  Steps:             %d (%d ms each)\n", r.Steps, r.StepLengthMS)
	fmt.Printf("  Vehicles:          %d\n", r.VehiclesTotal)
	fmt.Printf("  Influenced total:  %d\n", r.InfluencedTotal)
	fmt.Printf("  Influenced peak:   %d\n", r.InfluencedPeak)
	fmt.Printf("  Manual crossings:  %d\n", r.ManualCrossings)
	fmt.Printf("  Foe slowdowns:     %d\n", r.FoeSlowdowns)
	fmt.Printf("  Wall clock:        %.2fs\n", r.WallClockSeconds)
	fmt.Printf("  Finished:          %s\n", r.FinishedAt.Format("2006-01-02 15:04:05 MST"))
}

func init() {
	runsCmd.Flags().StringVar(&runsArchive, "archive", "", "run archive database (default from config)")
}
