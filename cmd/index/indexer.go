package index

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sagan/promptmeta/features/aimeta"
	"github.com/sagan/promptmeta/util"
	"github.com/sagan/promptmeta/util/imgutil"
)

var IgnoreFilenames = []string{
	".DS_Store",   // macOS directory metadata
	"Thumbs.db",   // Windows thumbnail cache
	"desktop.ini", // Windows folder customization
}

var IgnoreFilenameSuffixes = []string{
	".partial",    // rclone transfer temporary file
	".crdownload", // Chrome partial download
	".part",       // Firefox partial download
	".tmp",        // Temporary file
}

// Entry is the index row of one image file.
type Entry struct {
	Path   string         `json:"path"` // slash separated path relative to the indexed dir
	Format string         `json:"format"`
	Params *aimeta.Params `json:"params"`
	Error  string         `json:"error,omitempty"`
}

type EntryList []*Entry

type IndexOptions struct {
	Excludes []glob.Glob
	Types    []string // upper case image formats, e.g. "PNG"; nil means all
	Jobs     int
	MaxSize  int64
}

func shouldIgnore(filename string) bool {
	if strings.HasPrefix(filename, ".") {
		return true
	}
	if slices.Contains(IgnoreFilenames, filename) {
		return true
	}
	return slices.ContainsFunc(IgnoreFilenameSuffixes, func(suffix string) bool {
		return strings.HasSuffix(filename, suffix)
	})
}

func excluded(excludes []glob.Glob, relPath string, name string) bool {
	return slices.ContainsFunc(excludes, func(g glob.Glob) bool {
		return g.Match(relPath) || g.Match(name)
	})
}

// listImages returns the slash separated relative paths of image files in dir, sorted.
func listImages(dir string, options IndexOptions) (paths []string, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		if shouldIgnore(d.Name()) || excluded(options.Excludes, relPath, d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !imgutil.IsImageFile(d.Name()) ||
			(options.Types != nil && !slices.Contains(options.Types, imgutil.ImageFormat(d.Name()))) {
			return nil
		}
		paths = append(paths, relPath)
		return nil
	})
	slices.Sort(paths)
	return paths, err
}

// doIndex extracts the metadata of every image file in dir, at most options.Jobs files at a time.
// Per file failures are recorded in Entry.Error.
func doIndex(ctx context.Context, dir string, options IndexOptions) (EntryList, error) {
	paths, err := listImages(dir, options)
	if err != nil {
		return nil, err
	}
	entries := make(EntryList, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(options.Jobs, 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry := &Entry{Path: path, Params: aimeta.NewParams()}
			md, err := aimeta.ExtractFile(filepath.Join(dir, filepath.FromSlash(path)), options.MaxSize)
			switch {
			case err == nil:
				entry.Format = md.Format
				entry.Params = md.Params
			case !errors.Is(err, aimeta.ErrNoMetadata):
				log.Warnf("%s: %v", path, err)
				entry.Error = err.Error()
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Found returns the entries with a detected metadata format.
func (el EntryList) Found() EntryList {
	return util.FilterSlice(el, func(e *Entry) bool { return e.Format != "" })
}

// SaveCsv writes a "path,format,params" csv with header row. params is the ordered JSON object.
func (el EntryList) SaveCsv(writer io.Writer) error {
	w := csv.NewWriter(writer)
	if err := w.Write([]string{"path", "format", "params"}); err != nil {
		return err
	}
	for _, entry := range el {
		params, err := entry.Params.MarshalJSON()
		if err != nil {
			return err
		}
		if err := w.Write([]string{entry.Path, entry.Format, string(params)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// SaveJsonl writes one JSON object per entry per line.
func (el EntryList) SaveJsonl(writer io.Writer) error {
	enc := json.NewEncoder(writer)
	enc.SetEscapeHTML(false)
	for _, entry := range el {
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}
