package cli

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-beat/dsp/core"
	"github.com/cwbudde/algo-beat/dsp/signal"
	"github.com/cwbudde/algo-beat/internal/config"
)

type synthOptions struct {
	tempos []float64
	length int
	phase  int
	noise  float64
	seed   int64
	peak   float64
}

func newSynthCmd() *cobra.Command {
	var o synthOptions

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Print a synthetic click-train onset envelope",
		Long: `Generates an onset envelope with one click per beat at the given tempos.
Each tempo fills --length envelope points; the time base comes from the
configured sample rate and envelope hop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Get()
			if err != nil {
				return err
			}
			tb := settings.TimeBase()
			g := signal.NewGeneratorWithOptions(
				[]core.AnalysisOption{core.WithSampleRate(tb.SampleRate), core.WithHopLength(tb.HopLength)},
				signal.WithSeed(o.seed))

			values, err := synthesize(g, o)
			if err != nil {
				return err
			}
			return WriteEnvelope(cmd.OutOrStdout(), values)
		},
	}

	flags := cmd.Flags()
	flags.Float64SliceVarP(&o.tempos, "tempo", "t", []float64{120}, "tempo of each segment in BPM")
	flags.IntVarP(&o.length, "length", "n", 1000, "envelope points per segment")
	flags.IntVar(&o.phase, "phase", 0, "offset of the first click in envelope points")
	flags.Float64Var(&o.noise, "noise", 0, "amplitude of rectified noise added to the clicks")
	flags.Int64Var(&o.seed, "seed", 1, "noise seed")
	flags.Float64Var(&o.peak, "peak", 1, "peak value after normalization")
	return cmd
}

func synthesize(g *signal.Generator, o synthOptions) ([]float64, error) {
	values, err := g.Segments(o.tempos, o.length)
	if err != nil {
		return nil, err
	}
	if o.phase > 0 {
		values = append(make([]float64, o.phase), values[:len(values)-min(o.phase, len(values))]...)
	}
	if o.noise > 0 {
		if values, err = g.AddNoise(values, o.noise); err != nil {
			return nil, err
		}
	}
	return signal.Normalize(values, o.peak)
}
