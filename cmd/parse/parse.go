package parse

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagan/promptmeta/cmd"
	"github.com/sagan/promptmeta/config"
	"github.com/sagan/promptmeta/constants"
	"github.com/sagan/promptmeta/features/aimeta"
	"github.com/sagan/promptmeta/util"
	"github.com/sagan/promptmeta/util/helper"
)

var parseCmd = &cobra.Command{
	Use:   "parse {image | -}",
	Short: "Parse AI generation parameters from an image file",
	Long: `Parse AI generation parameters from an image file.

Supported sources:
  - NovelAI: PNG "Software" = "NovelAI" with a JSON "Comment".
  - A1111 / Civitai: PNG "parameters" text, or JPEG EXIF UserComment.
  - ComfyUI: PNG "prompt" (and "workflow") JSON, or a JSON JPEG EXIF comment.

If {image} is "-", read from stdin.
By default it prints a human readable report. Use --json (or --format) for machine readable output.
Use --template flag to format the output. The template can access ".format", ".params" (map),
".param_keys" (params keys in original order), ".raw_text", ".workflow_text" and ".source" fields.

It exits with code 1 if the file does not exist or no metadata is found.

Examples:
  promptmeta parse input.png
  promptmeta parse input.jpg --json
  promptmeta parse input.png --format yaml -o meta.yaml
  promptmeta parse input.png -t "{{.params.Seed}}"`,
	Args: cobra.ExactArgs(1),
	RunE: doParse,
}

var (
	flagForce    bool
	flagJson     bool
	flagFormat   string
	flagTemplate string
	flagOutput   string
)

func init() {
	parseCmd.Flags().BoolVarP(&flagForce, "force", "", false, "Override existing file")
	parseCmd.Flags().BoolVarP(&flagJson, "json", "", false, `Output JSON. Equivalent to "--format json"`)
	parseCmd.Flags().StringVarP(&flagFormat, "format", "f", aimeta.RenderText,
		`Output format: `+strings.Join(aimeta.RenderFormats, ", "))
	parseCmd.Flags().StringVarP(&flagTemplate, "template", "t", "", `Template to format the output. `+
		constants.HELP_TEMPLATE_FLAG)
	parseCmd.Flags().StringVarP(&flagOutput, "output", "o", "-", `Output file path. Use "-" for stdout`)
	cmd.RootCmd.AddCommand(parseCmd)
}

func doParse(cmd *cobra.Command, args []string) (err error) {
	if flagJson {
		flagFormat = aimeta.RenderJSON
	}
	if err := helper.CheckOutput(flagOutput, flagForce); err != nil {
		return err
	}
	argFilename := args[0]
	var md *aimeta.ParsedMetadata
	if argFilename == "-" {
		md, err = aimeta.ExtractReader(cmd.InOrStdin(), config.GetMaxImageSize())
	} else {
		if exists, err := util.FileExists(argFilename); err != nil {
			return err
		} else if !exists {
			return fmt.Errorf("File not found: %s", argFilename)
		}
		md, err = aimeta.ExtractFile(argFilename, config.GetMaxImageSize())
	}
	if err != nil {
		return err
	}

	var output bytes.Buffer
	if flagTemplate != "" {
		tpl, err := helper.GetTemplate(flagTemplate, true)
		if err != nil {
			return fmt.Errorf("invalid template: %w", err)
		}
		result, err := tpl.Exec(TemplateData(md))
		if err != nil {
			return err
		}
		output.WriteString(result + "\n")
	} else if err := aimeta.Render(&output, md, flagFormat); err != nil {
		return err
	}
	return helper.WriteOutput(cmd.OutOrStdout(), flagOutput, &output)
}

// TemplateData is the data of --template.
func TemplateData(md *aimeta.ParsedMetadata) map[string]any {
	workflow := ""
	if md.WorkflowText != nil {
		workflow = *md.WorkflowText
	}
	return map[string]any{
		"format":        md.Format,
		"params":        md.Params.Map(),
		"param_keys":    md.Params.Keys(),
		"raw_text":      md.RawText,
		"workflow_text": workflow,
		"source":        md.Source.String(),
	}
}
