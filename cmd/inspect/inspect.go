package inspect

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/saintfish/chardet"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sagan/promptmeta/cmd"
	"github.com/sagan/promptmeta/config"
	"github.com/sagan/promptmeta/constants"
	"github.com/sagan/promptmeta/features/aimeta"
	"github.com/sagan/promptmeta/features/exifcomment"
	"github.com/sagan/promptmeta/features/imagecodec"
	"github.com/sagan/promptmeta/util"
	"github.com/sagan/promptmeta/util/helper"
	"github.com/sagan/promptmeta/util/stringutil"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect {image | -}...",
	Short: "Dump all metadata of an image file",
	Long: `Dump all metadata of an image file: format, size, color mode,
text info entries (PNG chunks), EXIF IFD0 tags and Exif sub-IFD tags,
followed by the detected AI generation metadata format (if any).

Long values are truncated and newlines are shown as spaces.
Byte valued tags are decoded with charset detection; UserComment / XP* tags
use the same decoding as "parse".

Multiple {image} args and "*.png" style globs are accepted; each dump is then
preceded by a "==> {image} <==" line.
If {image} is "-", read from stdin.`,
	Args: cobra.MinimumNArgs(1),
	RunE: doInspect,
}

func init() {
	cmd.RootCmd.AddCommand(inspectCmd)
}

func doInspect(cmd *cobra.Command, args []string) error {
	filenames := args
	if len(args) > 1 || args[0] != "-" {
		filenames = helper.ParseFilenameArgs(args...)
	}
	if len(filenames) > 1 && slices.Contains(filenames, "-") {
		return fmt.Errorf(`"-" (stdin) can not be used with other {image} args`)
	}
	var output bytes.Buffer
	errorCnt := 0
	for i, filename := range filenames {
		if len(filenames) > 1 {
			if i > 0 {
				output.WriteString("\n")
			}
			fmt.Fprintf(&output, "==> %s <==\n", filename)
		}
		img, err := decodeImage(cmd.InOrStdin(), filename)
		if err != nil {
			if len(filenames) == 1 {
				return err
			}
			log.Errorf("%s: %v", filename, err)
			fmt.Fprintf(&output, "Error: %v\n", err)
			errorCnt++
			continue
		}
		PrintImage(&output, img)
	}
	if _, err := cmd.OutOrStdout().Write(output.Bytes()); err != nil {
		return err
	}
	if errorCnt > 0 {
		return fmt.Errorf("%d errors", errorCnt)
	}
	return nil
}

func decodeImage(stdin io.Reader, filename string) (*imagecodec.Image, error) {
	if filename == "-" {
		return imagecodec.Decode(stdin, config.GetMaxImageSize())
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return imagecodec.Decode(f, config.GetMaxImageSize())
}

type row struct {
	key   string
	value string
}

// PrintImage writes the human readable dump of img.
func PrintImage(w io.Writer, img *imagecodec.Image) {
	fmt.Fprintf(w, "Format: %s\n", img.Format)
	fmt.Fprintf(w, "Size: %dx%d\n", img.Width, img.Height)
	fmt.Fprintf(w, "Mode: %s\n", img.Mode)

	var rows []row
	for _, key := range img.InfoKeys {
		rows = append(rows, row{key, img.Info[key].String()})
	}
	printSection(w, "Info", rows, constants.INSPECT_INFO_LENGTH)

	rows = nil
	for _, tag := range util.Keys(img.ExifTags) {
		rows = append(rows, row{tagLabel(imagecodec.IFDPathRoot, tag), fieldText(tag, img.ExifTags[tag])})
	}
	printSection(w, "EXIF", rows, constants.INSPECT_EXIF_LENGTH)

	rows = nil
	for _, tag := range util.Keys(img.ExifIFD) {
		rows = append(rows, row{tagLabel(imagecodec.IFDPathExif, tag), fieldText(tag, img.ExifIFD[tag])})
	}
	printSection(w, "Exif IFD", rows, constants.INSPECT_EXIF_IFD_LENGTH)

	fmt.Fprintln(w)
	if md := aimeta.Extract(img); md != nil {
		fmt.Fprintf(w, "Detected: %s (%s)\n", md.Format, md.Source)
	} else {
		fmt.Fprintln(w, "Detected: (none)")
	}
}

func printSection(w io.Writer, title string, rows []row, maxLength int) {
	fmt.Fprintf(w, "\n%s:\n", title)
	if len(rows) == 0 {
		fmt.Fprintln(w, "  (empty)")
		return
	}
	width := 0
	for _, r := range rows {
		width = max(width, runewidth.StringWidth(r.key))
	}
	for _, r := range rows {
		fmt.Fprint(w, "  ")
		stringutil.PrintStringInWidth(w, r.key, width, true)
		value := stringutil.ReplaceNewLinesWithSpace(r.value)
		fmt.Fprintf(w, "  %s\n", stringutil.StringPrefixInRunes(value, maxLength))
	}
}

func tagLabel(ifdPath string, tag uint16) string {
	name := imagecodec.TagName(ifdPath, tag)
	id := strconv.Itoa(int(tag))
	if name == id {
		return id
	}
	return fmt.Sprintf("%s (%s)", name, id)
}

func fieldText(tag uint16, field imagecodec.Field) string {
	if text, ok := field.Text(); ok {
		return text
	}
	if tag == exifcomment.TagUserComment || (0x9C9B <= tag && tag <= 0x9C9F) { // XP* tags
		result := exifcomment.DecodeField(tag, field)
		if result.Placeholder {
			return result.Text
		}
		return fmt.Sprintf("[%s] %s", result.Encoding, result.Text)
	}
	return detectText(field.Bytes())
}

// detectText decodes b as UTF-8, or else using the charset guessed by chardet.
func detectText(b []byte) string {
	placeholder := fmt.Sprintf("<bytes: %d bytes>", len(b))
	trimmed := bytes.TrimRight(b, "\x00")
	if len(trimmed) == 0 {
		return placeholder
	}
	if utf8.Valid(trimmed) {
		if !hasControl(string(trimmed)) {
			return string(trimmed)
		}
		return placeholder
	}
	result, err := chardet.NewTextDetector().DetectBest(trimmed)
	if err != nil {
		return placeholder
	}
	text, err := stringutil.DecodeText(trimmed, result.Charset, false)
	if err != nil || hasControl(string(text)) {
		log.Debugf("decode %d bytes as %s: %v", len(trimmed), result.Charset, err)
		return placeholder
	}
	return string(text)
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsControl(r) && !unicode.IsSpace(r)
	}) >= 0
}
