package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/opensimlab/rescuelane/internal/device/bluelight"
	"github.com/opensimlab/rescuelane/internal/output"
	"github.com/opensimlab/rescuelane/internal/scenario"
)

var (
	runSteps        int
	runSeed         int64
	runReplications int
	runRealtime     bool
	runTripInfo     string
	runArchive      string
)

var runCmd = &cobra.Command{
	Use:   "run [scenario.yaml]",
	Short: "Run a simulation scenario",
	Long: `Run loads a scenario file, steps the simulation for the configured
number of steps and writes trip output plus a run record to the local
archive. With --replications each run uses a distinct seed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarioPath := cfg.Sim.Scenario
		if len(args) > 0 {
			scenarioPath = args[0]
		}
		if scenarioPath == "" {
			return fmt.Errorf("no scenario file given (pass one as argument or set sim.scenario)")
		}

		if runSteps > 0 {
			cfg.Sim.Steps = runSteps
		}
		if cmd.Flags().Changed("seed") {
			cfg.Sim.Seed = runSeed
		}
		if runTripInfo != "" {
			cfg.Output.TripInfoPath = runTripInfo
		}
		if runArchive != "" {
			cfg.Output.ArchivePath = runArchive
		}

		scn, err := scenario.Load(scenarioPath)
		if err != nil {
			return err
		}
		logger.WithFields(map[string]any{
			"scenario":     scn.Name,
			"steps":        cfg.Sim.Steps,
			"replications": runReplications,
		}).Info("Starting simulation")

		store, err := output.OpenRunStore(cfg.Output.ArchivePath)
		if err != nil {
			return err
		}
		defer store.Close()

		g, ctx := errgroup.WithContext(cmd.Context())
		for i := 0; i < runReplications; i++ {
			rep := i
			g.Go(func() error {
				rec, err := runOnce(ctx, scn, rep)
				if err != nil {
					return fmt.Errorf("replication %d: %w", rep, err)
				}
				if err := store.Save(rec); err != nil {
					return fmt.Errorf("replication %d: %w", rep, err)
				}
				logger.WithFields(map[string]any{
					"run":              rec.ID,
					"seed":             rec.Seed,
					"influenced_total": rec.InfluencedTotal,
					"influenced_peak":  rec.InfluencedPeak,
					"manual_crossings": rec.ManualCrossings,
					"foe_slowdowns":    rec.FoeSlowdowns,
				}).Info("Replication finished")
				return nil
			})
		}
		return g.Wait()
	},
}

// runOnce executes a single replication and returns its run record.
func runOnce(ctx context.Context, scn *scenario.Scenario, replication int) (output.RunRecord, error) {
	repCfg := *cfg
	repCfg.Sim.Seed = cfg.Sim.Seed + int64(replication)

	engine, err := scn.Build(&repCfg)
	if err != nil {
		return output.RunRecord{}, err
	}

	// hold on to the priority devices so their counters survive the
	// holders arriving and leaving the fleet
	var devices []*bluelight.Device
	for _, id := range engine.Fleet().IDs() {
		v := engine.Fleet().Vehicle(id)
		for _, d := range v.Devices() {
			if bd, ok := d.(*bluelight.Device); ok {
				devices = append(devices, bd)
			}
		}
	}

	tripPath := repCfg.Output.TripInfoPath
	if runReplications > 1 {
		tripPath = fmt.Sprintf("%s.%d", tripPath, replication)
	}
	f, err := os.Create(tripPath)
	if err != nil {
		return output.RunRecord{}, err
	}
	defer f.Close()
	trips := output.NewTripWriter(f)
	trips.OpenTag("tripinfos")
	engine.SetTripWriter(trips)

	vehiclesTotal := len(engine.Fleet().IDs())
	start := time.Now()
	if runRealtime {
		pace := rate.NewLimiter(rate.Every(time.Duration(repCfg.Sim.StepLengthMS)*time.Millisecond), 1)
		for i := 0; i < repCfg.Sim.Steps; i++ {
			if err := pace.Wait(ctx); err != nil {
				return output.RunRecord{}, err
			}
			engine.Step()
		}
	} else {
		engine.Run(repCfg.Sim.Steps)
	}
	if err := trips.Close(); err != nil {
		return output.RunRecord{}, err
	}

	rec := output.RunRecord{
		ID:               uuid.NewString(),
		Scenario:         scn.Name,
		Seed:             repCfg.Sim.Seed,
		Steps:            repCfg.Sim.Steps,
		StepLengthMS:     repCfg.Sim.StepLengthMS,
		VehiclesTotal:    vehiclesTotal,
		WallClockSeconds: time.Since(start).Seconds(),
		FinishedAt:       time.Now().UTC(),
	}
	for _, d := range devices {
		st := d.Stats()
		rec.InfluencedTotal += st.InfluencedTotal
		rec.ManualCrossings += st.ManualCrossings
		rec.FoeSlowdowns += st.FoeSlowdowns
		if st.InfluencedPeak > rec.InfluencedPeak {
			rec.InfluencedPeak = st.InfluencedPeak
		}
	}
	return rec, nil
}

func init() {
	runCmd.Flags().IntVar(&runSteps, "steps", 0, "number of simulation steps (default from config)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 42, "base random seed")
	runCmd.Flags().IntVar(&runReplications, "replications", 1, "number of replications with distinct seeds")
	runCmd.Flags().BoolVar(&runRealtime, "realtime", false, "pace steps to wall-clock step length")
	runCmd.Flags().StringVar(&runTripInfo, "tripinfo", "", "trip output file (default from config)")
	runCmd.Flags().StringVar(&runArchive, "archive", "", "run archive database (default from config)")
}
