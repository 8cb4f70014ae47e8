package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/log"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/race"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/simulate"
)

type raceOptions struct {
	seconds  int
	interval time.Duration
	ecoBonus float64
	seed     int64
}

func newRaceCmd() *cobra.Command {
	opts := &raceOptions{}
	cmd := &cobra.Command{
		Use:   "race",
		Short: "drive a simulated race and print the result",
		Long: `Drives a race with random samples (10-40 km/h) until --seconds ticks
were recorded or the command is interrupted, then prints the lap figures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runRace(ctx, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.seconds, "seconds", "n", 30,
		"number of ticks to drive (0 drives until interrupted)")
	cmd.Flags().DurationVar(&opts.interval, "interval", time.Second,
		"wall-clock time between ticks")
	cmd.Flags().Float64Var(&opts.ecoBonus, "eco-bonus", race.DefaultEcoBonus,
		"points multiplier")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0,
		"random seed (0 picks one from the clock)")
	return cmd
}

func runRace(ctx context.Context, out io.Writer, opts *raceOptions) error {
	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := log.Default().Named("race")

	s := race.NewSession(race.WithEcoBonus(opts.ecoBonus))
	if err := s.Start(); err != nil {
		return err
	}
	n, err := simulate.Drive(ctx, s, simulate.NewRandomSource(seed), opts.interval, opts.seconds)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		logger.Info("race interrupted", zap.Int("ticks", n))
	default:
		return err
	}
	if err := s.Stop(); err != nil {
		return err
	}
	r, err := s.Result()
	if err != nil {
		return err
	}
	return printResult(out, r)
}

func printResult(out io.Writer, r race.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Lap time\t%s\n", r.LapTime)
	fmt.Fprintf(w, "Distance\t%.2f km\n", r.DistanceKm)
	fmt.Fprintf(w, "Avg speed\t%.1f km/h\n", r.AvgSpeedKmh)
	fmt.Fprintf(w, "CO2 saved\t%.3f kg\n", r.CO2SavedKg)
	fmt.Fprintf(w, "Points\t%d (base %d x %g)\n", r.TotalPoints, r.BasePoints, r.EcoBonus)
	return w.Flush()
}
