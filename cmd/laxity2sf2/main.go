// Command laxity2sf2 converts a Laxity NewPlayer v21 SID binary into the
// target tracker editor's project file. It is a thin argv-to-library-call
// shim: every reverse-engineering decision lives in the laxity2sf2 package,
// not here.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sidforge/laxity2sf2"
	"github.com/sidforge/laxity2sf2/laxerr"
)

const (
	exitOK                    = 0
	exitInternal              = 1
	exitUnrecognisedContainer = 2
	exitUnsupportedPlayer     = 3
	exitTableNotLocated       = 4
)

var driverFlag string
var newLoadFlag uint16

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	root := &cobra.Command{
		Use:   "laxity2sf2 <input.sid> <output>",
		Short: "Convert a Laxity NewPlayer v21 SID into an editable SF2 project",
		Args:  cobra.ExactArgs(2),
		RunE:  run,
	}
	root.Flags().StringVar(&driverFlag, "driver", "auto", "driver detection override: auto|legacy|target")
	root.Flags().Uint16Var(&newLoadFlag, "load-addr", 0, "relocate to this load address (0 keeps the source address)")

	if err := root.Execute(); err != nil {
		os.Exit(exitInternal)
	}
}

func run(cmd *cobra.Command, args []string) error {
	inputPath, outputPath := args[0], args[1]

	mode, err := parseDriverMode(driverFlag)
	if err != nil {
		log.Error().Err(err).Msg("invalid --driver value")
		os.Exit(exitInternal)
	}

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		log.Error().Err(err).Str("path", inputPath).Msg("failed to read input")
		os.Exit(exitInternal)
	}

	result, err := laxity2sf2.Convert(raw, laxity2sf2.ConvertOptions{
		Driver:      mode,
		NewLoadAddr: newLoadFlag,
	})
	if err != nil {
		os.Exit(exitCodeFor(err))
	}

	for _, w := range result.Warnings {
		log.Warn().Msg(w)
	}

	if err := os.WriteFile(outputPath, result.Output, 0o644); err != nil {
		log.Error().Err(err).Str("path", outputPath).Msg("failed to write output")
		os.Exit(exitInternal)
	}

	log.Info().
		Int("instruments", result.Tables.Instruments.Count).
		Int("wavetable", result.Tables.Wavetable.Count).
		Int("pulse", result.Tables.Pulse.Count).
		Int("filter", result.Tables.Filter.Count).
		Msg("conversion complete")
	return nil
}

func parseDriverMode(s string) (laxity2sf2.DriverMode, error) {
	switch s {
	case "", "auto":
		return laxity2sf2.DriverAuto, nil
	case "legacy":
		return laxity2sf2.DriverLegacy, nil
	case "target":
		return laxity2sf2.DriverTarget, nil
	default:
		return 0, fmt.Errorf("unknown --driver %q, want auto|legacy|target", s)
	}
}

// exitCodeFor maps the error taxonomy of laxerr to the exit codes §6.4
// fixes; UnsupportedPlayer additionally gets the --driver target
// suggestion since it is by far the most common error in the wild (files
// already exported from the target editor hitting this core again).
func exitCodeFor(err error) int {
	var e *laxerr.Error
	if !errors.As(err, &e) {
		log.Error().Err(err).Msg("conversion failed")
		return exitInternal
	}

	switch e.Kind {
	case laxerr.UnrecognisedContainer:
		log.Error().Err(e).Msg("unrecognised container")
		return exitUnrecognisedContainer
	case laxerr.UnsupportedPlayer:
		log.Error().Err(e).Msg("unsupported player; if this file was exported from the target editor, retry with --driver target")
		return exitUnsupportedPlayer
	case laxerr.TableNotLocated:
		log.Error().Err(e).Msg("table location failed")
		return exitTableNotLocated
	default:
		log.Error().Err(e).Msg("conversion failed")
		return exitInternal
	}
}

