package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	sc "github.com/reoring/shapecheck"
	"github.com/reoring/shapecheck/source"
)

// errInvalid reports that at least one input failed validation. The
// details have already been printed.
var errInvalid = errors.New("validation failed")

func newCheckCmd(g *globalFlags) *cobra.Command {
	var (
		sf     schemaFlags
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "check INPUT...",
		Short: "Validate documents against a schema",
		Long: `Validate each input document against the root schema of a definition
file. Use "-" to read from standard input (JSON unless --format is set).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return fmt.Errorf("unknown output %q (want text or json)", output)
			}
			doc, err := sf.load(g)
			if err != nil {
				return err
			}
			schema, err := doc.Root()
			if err != nil {
				return err
			}

			failed := 0
			for _, in := range args {
				v, err := readInput(cmd, in, format)
				if err != nil {
					return fmt.Errorf("%s: %w", in, err)
				}
				res := sc.Validate(v, schema)
				g.log.Debug().Str("input", in).Bool("ok", res.OK()).Msg("validated")
				if res.OK() {
					if output == "text" {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", in)
					}
					continue
				}
				failed++
				if err := report(cmd.OutOrStdout(), in, res.Failure(), output); err != nil {
					return err
				}
			}
			if failed > 0 {
				g.log.Info().Int("failed", failed).Int("total", len(args)).Msg("check finished")
				return errInvalid
			}
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json)")
	cmd.Flags().StringVar(&format, "format", "", "input format (json, yaml); inferred from the file extension by default")
	return cmd
}

func readInput(cmd *cobra.Command, path, format string) (any, error) {
	f, err := inputFormat(path, format)
	if err != nil {
		return nil, err
	}
	if path == "-" {
		return source.Decode(cmd.InOrStdin(), f)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return source.Decode(fh, f)
}

func inputFormat(path, format string) (source.Format, error) {
	switch {
	case format != "":
		return source.ParseFormat(format)
	case path == "-":
		return source.FormatJSON, nil
	default:
		return source.FormatFromPath(path)
	}
}

func report(w io.Writer, in string, f *sc.Failure, output string) error {
	if output == "json" {
		out, err := json.Marshal(map[string]any{"input": in, "failure": f})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}
	for _, is := range f.Issues() {
		fmt.Fprintf(w, "%s: %s: %s (%s)\n", in, is.Path, is.Message, is.Code)
	}
	return nil
}
