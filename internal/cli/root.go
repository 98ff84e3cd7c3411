package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/algo-beat/internal/config"
)

// flagKeys maps persistent flags to the config keys they override.
var flagKeys = map[string]string{
	"sample-rate":  "sample_rate",
	"envelope-hop": "envelope_hop",
	"window":       "win_length",
	"hop":          "hop_length",
	"bpm":          "expected_bpm",
	"sensitivity":  "sensitivity",
	"workers":      "workers",
	"debug":        "debug",
}

var rootCmd = NewRootCmd()

// Execute runs the beattrack command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Config is loaded and flags are bound
// when a subcommand runs, so each tree reads the current viper state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "beattrack",
		Short: "Tempo and beat tracking from onset envelopes",
		Long: `Estimates tempo and beat positions from a precomputed onset-strength envelope.
The envelope is analysed in overlapping windows; each window yields a tempo and
a beat phase, and the windows are stitched into one beat track.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	flags := root.PersistentFlags()
	flags.Float64P("sample-rate", "r", 44100, "sample rate of the source audio in Hz")
	flags.Float64P("envelope-hop", "e", 512, "audio samples between envelope points")
	flags.IntP("window", "w", 512, "analysis window length in envelope points")
	flags.IntP("hop", "p", 128, "envelope points between analysis windows")
	flags.Float64P("bpm", "b", 0, "expected tempo in BPM (0 disables the tempo prior)")
	flags.Float64P("sensitivity", "s", 43, "Rayleigh comb shape in lags")
	flags.IntP("workers", "j", 0, "windows analysed in parallel (0 = one per CPU)")
	flags.BoolP("debug", "D", false, "enable debug output")

	root.AddCommand(newTrackCmd(), newSynthCmd())
	return root
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if err := config.Init(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	for name, key := range flagKeys {
		if err := viper.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
