package diff

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagan/promptmeta/cmd"
	"github.com/sagan/promptmeta/config"
	"github.com/sagan/promptmeta/features/aimeta"
	"github.com/sagan/promptmeta/util/datautil"
	"github.com/sagan/promptmeta/util/helper"
)

var diffCmd = &cobra.Command{
	Use:   "diff {left_image} {right_image}",
	Short: "Diff the AI generation parameters of two image files",
	Long: `Diff the AI generation parameters of two image files.

Output lines:
  ~ key: left -> right   (changed)
  - key = left           (only in left image)
  + key = right          (only in right image)

If the two images have different metadata formats, a "~ (format)" line is printed first.
One of the {image} can be "-" for stdin.`,
	Args: cobra.ExactArgs(2),
	RunE: doDiff,
}

var (
	flagForce  bool
	flagJson   bool
	flagOutput string
)

func init() {
	diffCmd.Flags().BoolVarP(&flagForce, "force", "", false, "Override existing file")
	diffCmd.Flags().BoolVarP(&flagJson, "json", "", false, `Output the changes as a JSON array`)
	diffCmd.Flags().StringVarP(&flagOutput, "output", "o", "-", `Output file path. Use "-" for stdout`)
	cmd.RootCmd.AddCommand(diffCmd)
}

func doDiff(cmd *cobra.Command, args []string) (err error) {
	if args[0] == "-" && args[1] == "-" {
		return fmt.Errorf("at most one {image} can be stdin")
	}
	if err := helper.CheckOutput(flagOutput, flagForce); err != nil {
		return err
	}
	var sides [2]*aimeta.ParsedMetadata
	for i, arg := range args {
		if arg == "-" {
			sides[i], err = aimeta.ExtractReader(cmd.InOrStdin(), config.GetMaxImageSize())
		} else {
			sides[i], err = aimeta.ExtractFile(arg, config.GetMaxImageSize())
		}
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
	}

	result := datautil.Diff(sides[0].Params.All(), sides[1].Params.All())
	if result == nil {
		result = &datautil.DiffResult{}
	}
	if sides[0].Format != sides[1].Format {
		formatChange := datautil.Change{Key: "(format)", Op: datautil.OpChanged,
			From: sides[0].Format, To: sides[1].Format}
		result.Changes = append([]datautil.Change{formatChange}, result.Changes...)
	}

	var output bytes.Buffer
	if flagJson {
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		output.Write(data)
		output.WriteByte('\n')
	} else if err := result.Print(&output); err != nil {
		return err
	}
	return helper.WriteOutput(cmd.OutOrStdout(), flagOutput, &output)
}
