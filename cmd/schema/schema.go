package schema

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/sagan/promptmeta/cmd"
	"github.com/sagan/promptmeta/features/aimeta"
	"github.com/sagan/promptmeta/util/helper"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: `Print the JSON schema of "parse --json" output`,
	Long: `Print the JSON schema of "parse --json" output.

Example:
  promptmeta schema -o promptmeta.schema.json`,
	Args: cobra.NoArgs,
	RunE: doSchema,
}

var (
	flagForce  bool
	flagOutput string
)

func init() {
	schemaCmd.Flags().BoolVarP(&flagForce, "force", "", false, "Override existing file")
	schemaCmd.Flags().StringVarP(&flagOutput, "output", "o", "-", `Output file path. Use "-" for stdout`)
	cmd.RootCmd.AddCommand(schemaCmd)
}

func doSchema(cmd *cobra.Command, args []string) error {
	if err := helper.CheckOutput(flagOutput, flagForce); err != nil {
		return err
	}
	var output bytes.Buffer
	enc := json.NewEncoder(&output)
	enc.SetIndent("", "  ")
	if err := enc.Encode(aimeta.Schema()); err != nil {
		return err
	}
	return helper.WriteOutput(cmd.OutOrStdout(), flagOutput, &output)
}
