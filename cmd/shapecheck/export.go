package main

import (
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/shapecheck/jsonschema"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var sf schemaFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the root schema as JSON Schema (draft 2020-12)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := sf.load(g)
			if err != nil {
				return err
			}
			root, err := doc.Root()
			if err != nil {
				return err
			}
			js, err := jsonschema.From(root)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(js)
		},
	}
	sf.register(cmd)
	return cmd
}
