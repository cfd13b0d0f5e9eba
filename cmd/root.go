package cmd

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sagan/promptmeta/config"
	"github.com/sagan/promptmeta/constants"
	"github.com/sagan/promptmeta/features/aimeta"
	"github.com/sagan/promptmeta/version"
)

var flagLogLevel string

var RootCmd = &cobra.Command{
	Use:   "promptmeta",
	Short: "promptmeta " + version.Version,
	Long: `promptmeta ` + version.Version + "." + `
Extract AI image generation parameters (A1111 / Civitai, ComfyUI, NovelAI)
embedded in PNG text chunks and JPEG EXIF comments.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(flagLogLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		log.SetLevel(level)
		return nil
	},
}

func init() {
	log.SetOutput(os.Stderr)
	RootCmd.PersistentFlags().StringVarP(&flagLogLevel, "log-level", "", config.GetLogLevel(),
		constants.HELP_LOG_LEVEL)
}

// ErrorMessage is the line Execute prints to stderr for err.
func ErrorMessage(err error) string {
	if errors.Is(err, aimeta.ErrNoMetadata) {
		return "No metadata found in image"
	}
	return fmt.Sprintf("Error: %v", err)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ErrorMessage(err))
		os.Exit(1)
	}
}
