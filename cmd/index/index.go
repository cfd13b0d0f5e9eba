package index

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sagan/promptmeta/cmd"
	"github.com/sagan/promptmeta/config"
	"github.com/sagan/promptmeta/constants"
	"github.com/sagan/promptmeta/util"
	"github.com/sagan/promptmeta/util/helper"
)

var (
	flagForce     bool
	flagOnlyFound bool
	flagJobs      int
	flagFormat    string
	flagOutput    string
	flagExcludes  []string
	flagTypes     []string
)

var indexCmd = &cobra.Command{
	Use:   "index {dir}",
	Short: "Extract AI generation metadata of all image files in a directory",
	Long: `Extract AI generation metadata of all image files in a directory (recursively).

Image files are recognized by extension: jpg, jpeg, png, gif, tif, tiff, bmp, webp.
Hidden files / dirs and temporary files are skipped.

It outputs one row per image file, sorted by path:
  csv (default): "path,format,params" columns with a header row; params is a JSON object.
  jsonl: one {"path","format","params","error"} JSON object per line.
Files without metadata have empty format and params, unless --only-found flag is set.
Files that can't be read are logged and have the "error" field (jsonl only).

Examples:
  promptmeta index ./outputs -o index.csv
  promptmeta index ./outputs --format jsonl --exclude "thumbs/**" --type png`,
	Args: cobra.ExactArgs(1),
	RunE: index,
}

func init() {
	cmd.RootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&flagForce, "force", "", false, "Override existing file")
	indexCmd.Flags().BoolVarP(&flagOnlyFound, "only-found", "F", false, "Only output files with metadata")
	indexCmd.Flags().IntVarP(&flagJobs, "jobs", "j", config.GetIndexJobs(),
		`Number of files processed in parallel. Default from `+constants.ENV_INDEX_JOBS+` env`)
	indexCmd.Flags().StringVarP(&flagFormat, "format", "f", constants.INDEX_FORMAT_CSV,
		`Output format: "`+constants.INDEX_FORMAT_CSV+`" or "`+constants.INDEX_FORMAT_JSONL+`"`)
	indexCmd.Flags().StringVarP(&flagOutput, "output", "o", "-", `Output file path. Use "-" for stdout`)
	indexCmd.Flags().StringArrayVarP(&flagExcludes, "exclude", "x", nil,
		`Exclude files / dirs matching the glob pattern, against the relative path (e.g. "tmp/**") `+
			`or the name (e.g. "*_mask.png"). Can be set multiple times`)
	indexCmd.Flags().StringSliceVarP(&flagTypes, "type", "", nil,
		`Only index these image types, comma-separated, e.g. "png,jpeg"`)
}

func index(cmd *cobra.Command, args []string) (err error) {
	if flagFormat != constants.INDEX_FORMAT_CSV && flagFormat != constants.INDEX_FORMAT_JSONL {
		return fmt.Errorf("invalid --format %q", flagFormat)
	}
	if err := helper.CheckOutput(flagOutput, flagForce); err != nil {
		return err
	}
	options := IndexOptions{Jobs: flagJobs, MaxSize: config.GetMaxImageSize()}
	for _, pattern := range flagExcludes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return fmt.Errorf("invalid --exclude %q: %w", pattern, err)
		}
		options.Excludes = append(options.Excludes, g)
	}
	if flagTypes != nil {
		options.Types = util.Map(flagTypes, func(t string) string {
			t = strings.ToUpper(strings.TrimPrefix(t, "."))
			switch t {
			case "JPG":
				return "JPEG"
			case "TIF":
				return "TIFF"
			}
			return t
		})
	}
	inputDir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	entries, err := doIndex(cmd.Context(), inputDir, options)
	if err != nil {
		return err
	}
	log.Infof("indexed %d image files", len(entries))
	if flagOnlyFound {
		entries = entries.Found()
	}

	reader, writer := io.Pipe()
	go func() {
		if flagFormat == constants.INDEX_FORMAT_JSONL {
			writer.CloseWithError(entries.SaveJsonl(writer))
		} else {
			writer.CloseWithError(entries.SaveCsv(writer))
		}
	}()
	return helper.WriteOutput(cmd.OutOrStdout(), flagOutput, reader)
}
