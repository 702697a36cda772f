// Package cli implements the sigstream command line interface: it consumes a
// wire protocol stream (stdin by default) and writes a container file named
// by the single positional argument.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/canwire/sigstream"
	"github.com/canwire/sigstream/compress"
	"github.com/canwire/sigstream/container"
)

var rootCmd = &cobra.Command{
	Use:   "sigstream <output-file>",
	Short: "Convert a CAN signal wire stream into a time-series container file",
	Long: `sigstream reads a binary signal stream (protocol versions 1-3) from
standard input and writes every non-empty signal, with its unit and value
table, to the container file named by the argument.

Diagnostics go to standard error. The exit status is non-zero on any fatal
decode error: bad magic, truncated stream, invalid UTF-8 or an unknown type
marker.

Example:
  can-decoder measurement.blf | sigstream measurement.sgc
  sigstream --input capture.bin --compression lz4 capture.sgc`,
	Args:          cobra.ExactArgs(1),
	RunE:          runConvert,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().String("input", "", "read the wire stream from a file instead of stdin")
	rootCmd.Flags().String("compression", "zstd", "container payload compression: none, zstd, s2 or lz4")
	rootCmd.Flags().BoolP("verbose", "v", false, "log per-signal progress")

	_ = viper.BindPFlag("input", rootCmd.Flags().Lookup("input"))
	_ = viper.BindPFlag("compression", rootCmd.Flags().Lookup("compression"))
	_ = viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))

	viper.SetEnvPrefix("SIGSTREAM")
	viper.AutomaticEnv()
}

func runConvert(cmd *cobra.Command, args []string) error {
	outputPath := args[0]

	log := newLogger(viper.GetBool("verbose"))

	ctype, err := compress.ParseType(viper.GetString("compression"))
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if path := viper.GetString("input"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	w, err := container.Create(outputPath, container.WithCompression(ctype))
	if err != nil {
		return err
	}

	started := time.Now()
	stats, convErr := sigstream.Convert(in, w, sigstream.WithLogger(log))
	if closeErr := w.Close(); convErr == nil {
		convErr = closeErr
	}
	// main prints the returned error; logging it here would report it twice.
	if convErr != nil {
		return convErr
	}

	log.Info().
		Str("output", outputPath).
		Uint8("protocol_version", stats.Version).
		Int("signals", stats.SignalsWritten).
		Int("dropped_empty", stats.SignalsDropped).
		Int("samples", stats.Samples).
		Stringer("compression", ctype).
		Dur("elapsed", time.Since(started)).
		Msg("container written")

	return nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
