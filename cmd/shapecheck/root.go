package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reoring/shapecheck/i18n"
	"github.com/reoring/shapecheck/schemadef"
)

type globalFlags struct {
	lang     string
	logLevel string
	log      zerolog.Logger
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:   "shapecheck",
		Short: "Validate JSON and YAML documents against declarative schemas",
		Long: `shapecheck validates data documents against schemas declared in a
schema definition file (YAML or JSON).

  shapecheck check --schema defs.yaml payload.json
  shapecheck export --schema defs.yaml --root user`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := zerolog.ParseLevel(g.logLevel)
			if err != nil {
				return err
			}
			g.log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
				Level(lvl).With().Timestamp().Logger()
			i18n.SetLanguage(g.lang)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.lang, "lang", "en", "message language (en, ja)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.SetErr(os.Stderr)

	root.AddCommand(newCheckCmd(g), newExportCmd(g), newVersionCmd())
	return root
}

// schemaFlags are shared by commands that load a definition file.
type schemaFlags struct {
	path string
	root string
}

func (s *schemaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.path, "schema", "s", "", "schema definition file")
	cmd.Flags().StringVar(&s.root, "root", "", "definition to use as the root schema")
	_ = cmd.MarkFlagRequired("schema")
}

func (s *schemaFlags) load(g *globalFlags) (*schemadef.Document, error) {
	opts := []schemadef.Option{schemadef.WithLogger(g.log)}
	if s.root != "" {
		opts = append(opts, schemadef.WithRoot(s.root))
	}
	return schemadef.LoadFile(s.path, opts...)
}
