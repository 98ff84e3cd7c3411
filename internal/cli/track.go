package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-beat/dsp/track"
	"github.com/cwbudde/algo-beat/internal/config"
	"github.com/cwbudde/algo-beat/stats/rhythm"
)

// steadyTolerance is the relative inter-beat interval deviation still
// reported as steady.
const steadyTolerance = 0.05

func newTrackCmd() *cobra.Command {
	var beatsOnly, samples bool

	cmd := &cobra.Command{
		Use:   "track <envelope-file>",
		Short: "Estimate tempo and beats of an onset envelope",
		Long: `Reads an onset envelope (whitespace-separated values, '-' for stdin) and
prints the per-window tempo table followed by the beat times in seconds, or
in audio samples with --samples.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Get()
			if err != nil {
				return err
			}

			values, err := readEnvelopeFile(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			tb := settings.TimeBase()
			env := track.Envelope{Values: values, SampleRate: tb.SampleRate, HopLength: tb.HopLength}

			logger := newLogger(cmd.ErrOrStderr(), settings.Debug)
			tr, err := track.New(settings.TrackConfig(),
				track.WithMaxWorkers(settings.Workers),
				track.WithRefinement(settings.Refine),
				track.WithLogger(logger))
			if err != nil {
				return err
			}

			res, err := tr.Track(cmd.Context(), env)
			if err != nil {
				return err
			}
			logger.Debug("tracking done", "frames", len(res.Frames), "beats", len(res.Beats), "mean_bpm", res.MeanBPM())

			if beatsOnly {
				return writeBeats(cmd.OutOrStdout(), res, env, samples)
			}
			return writeReport(cmd.OutOrStdout(), res, env, samples)
		},
	}

	cmd.Flags().BoolVar(&beatsOnly, "beats-only", false, "print only beat times, one per line")
	cmd.Flags().BoolVar(&samples, "samples", false, "print beat times as audio sample indices instead of seconds")
	return cmd
}

func readEnvelopeFile(stdin io.Reader, path string) ([]float64, error) {
	if path == "-" {
		return ReadEnvelope(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	values, err := ReadEnvelope(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

func writeReport(w io.Writer, res *track.Result, env track.Envelope, samples bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FRAME\tTIME\tBPM\tLAG\tPHASE\tSTEP\tCONSISTENT\tREFINED")
	for _, f := range res.Frames {
		fmt.Fprintf(tw, "%d\t%.3f\t%.2f\t%d\t%d\t%s\t%s\t%s\n",
			f.Index, env.Seconds(f.Offset), f.Estimate.BPM, f.Estimate.Lag, f.Phase,
			mark(f.Step), mark(f.Consistent), mark(f.Refined))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	curve := rhythm.Calculate(res.Tempo())
	fmt.Fprintf(w, "\nmean tempo: %.2f BPM\n", res.MeanBPM())
	fmt.Fprintf(w, "tempo range: %.2f-%.2f BPM (median %.2f, std %.2f)\n", curve.Min, curve.Max, curve.Median, curve.StdDev)
	if beatTempo := rhythm.BeatTempo(res.Beats, env.TimeBase().FrameRate()); len(beatTempo) > 0 {
		fmt.Fprintf(w, "beat tempo: median %.2f BPM, %.0f%% of intervals steady\n",
			rhythm.Calculate(beatTempo).Median, 100*rhythm.Stability(res.Beats, steadyTolerance))
	}
	fmt.Fprintf(w, "beats: %d\n", len(res.Beats))
	return writeBeats(w, res, env, samples)
}

func writeBeats(w io.Writer, res *track.Result, env track.Envelope, samples bool) error {
	if samples {
		for _, s := range res.BeatSamples(env) {
			if _, err := fmt.Fprintln(w, s); err != nil {
				return err
			}
		}
		return nil
	}
	for _, s := range res.BeatSeconds(env) {
		if _, err := fmt.Fprintln(w, strconv.FormatFloat(s, 'f', 3, 64)); err != nil {
			return err
		}
	}
	return nil
}

func mark(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
