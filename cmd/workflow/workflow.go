package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sagan/promptmeta/cmd"
	"github.com/sagan/promptmeta/config"
	"github.com/sagan/promptmeta/features/aimeta"
	"github.com/sagan/promptmeta/util/helper"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow {image | -}",
	Short: "Print the ComfyUI workflow (or prompt) JSON embedded in an image file",
	Long: `Print the ComfyUI workflow (or prompt) JSON embedded in an image file.

It outputs the sanitized "workflow" text of a ComfyUI generated PNG image,
or the "prompt" text (the API format graph) if --prompt flag is set.
The prompt of a ComfyUI JPEG image (stored in EXIF comment) is also supported.
When stdout is a terminal, or --indent flag is set, the JSON is indented.

If {image} is "-", read from stdin.

Examples:
  promptmeta workflow input.png -o workflow.json
  promptmeta workflow input.png --prompt | jq .`,
	Args: cobra.ExactArgs(1),
	RunE: doWorkflow,
}

var (
	flagForce  bool
	flagPrompt bool
	flagIndent bool
	flagOutput string
)

func init() {
	workflowCmd.Flags().BoolVarP(&flagForce, "force", "", false, "Override existing file")
	workflowCmd.Flags().BoolVarP(&flagPrompt, "prompt", "p", false, `Output the "prompt" instead of "workflow"`)
	workflowCmd.Flags().BoolVarP(&flagIndent, "indent", "", false, "Indent the output JSON")
	workflowCmd.Flags().StringVarP(&flagOutput, "output", "o", "-", `Output file path. Use "-" for stdout`)
	cmd.RootCmd.AddCommand(workflowCmd)
}

func doWorkflow(cmd *cobra.Command, args []string) (err error) {
	if err := helper.CheckOutput(flagOutput, flagForce); err != nil {
		return err
	}
	var md *aimeta.ParsedMetadata
	if args[0] == "-" {
		md, err = aimeta.ExtractReader(cmd.InOrStdin(), config.GetMaxImageSize())
	} else {
		md, err = aimeta.ExtractFile(args[0], config.GetMaxImageSize())
	}
	if err != nil {
		return err
	}
	text, err := ComfyText(md, flagPrompt)
	if err != nil {
		return err
	}
	if flagIndent || (flagOutput == "-" && isTerminal(cmd.OutOrStdout())) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(text), "", "  "); err != nil {
			log.Debugf("output as is, not valid JSON: %v", err)
		} else {
			text = buf.String()
		}
	}
	return helper.WriteOutput(cmd.OutOrStdout(), flagOutput, strings.NewReader(text+"\n"))
}

// ComfyText returns the workflow text of a ComfyUI metadata, or the prompt text if prompt is true.
func ComfyText(md *aimeta.ParsedMetadata, prompt bool) (string, error) {
	if md.Format != aimeta.FormatComfyUI && md.Format != aimeta.FormatComfyUIJPEG {
		return "", fmt.Errorf("not a ComfyUI image (format: %s)", md.Format)
	}
	if prompt {
		return md.RawText, nil
	}
	if md.WorkflowText == nil {
		return "", fmt.Errorf("no workflow in image, try --prompt")
	}
	return *md.WorkflowText, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
