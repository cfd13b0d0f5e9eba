// functions with side effect
package helper

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/go-sprout/sprout"
	"github.com/go-sprout/sprout/group/all"
	"github.com/gobwas/glob"
	"github.com/natefinch/atomic"

	"github.com/sagan/promptmeta/util"
)

// Recognize "*.png" style glob, return parsed filenames.
// An arg that is not a glob, or matches nothing, is kept as is.
func ParseFilenameArgs(args ...string) []string {
	names := []string{}
	for _, arg := range args {
		filenames := ParseGlobFilenames(arg)
		if len(filenames) == 0 {
			names = append(names, arg)
		} else {
			names = append(names, filenames...)
		}
	}
	return util.UniqueSlice(names)
}

// ParseGlobFilenames expands a shell-like glob pattern (e.g. "*.png") into
// matching filenames on disk, sorted lexicographically.
// It returns nil if pattern contains no glob meta char or is invalid.
// "**" matches across directories; names starting with "." are only matched
// by a pattern segment that starts with ".".
func ParseGlobFilenames(pattern string) []string {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || !strings.ContainsAny(pattern, globMetas) {
		return nil
	}
	pattern = filepath.Clean(pattern)
	patSlash := filepath.ToSlash(pattern)
	g, err := glob.Compile(patSlash, '/')
	if err != nil {
		return nil
	}
	isAbs := filepath.IsAbs(pattern)
	matches := []string{}
	_ = filepath.WalkDir(walkRoot(pattern), func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		var target string
		if isAbs {
			abs, err := filepath.Abs(path)
			if err != nil {
				return nil
			}
			target = filepath.ToSlash(abs)
		} else {
			target = filepath.ToSlash(filepath.Clean(path))
		}
		if !dotfileOK(patSlash, target) {
			return nil
		}
		if g.Match(target) {
			matches = append(matches, filepath.FromSlash(target))
		}
		return nil
	})
	sort.Strings(matches)
	return matches
}

const globMetas = "*?[{"

// Directory part of the longest prefix of pattern without glob meta chars.
func walkRoot(pattern string) string {
	prefix := pattern
	if i := strings.IndexAny(pattern, globMetas); i >= 0 {
		prefix = pattern[:i]
	}
	if i := strings.LastIndexAny(prefix, `/\`); i >= 0 {
		prefix = prefix[:i+1]
	} else {
		prefix = ""
	}
	if prefix == "" {
		return "."
	}
	return filepath.Clean(prefix)
}

func dotfileOK(patternSlash, targetSlash string) bool {
	pSeg := strings.Split(patternSlash, "/")
	tSeg := strings.Split(targetSlash, "/")
	if len(pSeg) != len(tSeg) {
		return true
	}
	for i := range tSeg {
		if strings.HasPrefix(tSeg[i], ".") && !strings.HasPrefix(pSeg[i], ".") {
			return false
		}
	}
	return true
}

// CheckOutput returns an error if output is an existing file (or can't be accessed)
// and force is false. "-" (stdout) always passes.
func CheckOutput(output string, force bool) error {
	if output == "-" || force {
		return nil
	}
	if exists, err := util.FileExists(output); exists || err != nil {
		return fmt.Errorf("output file %q exists or can't access, err=%w", output, err)
	}
	return nil
}

// WriteOutput writes contents to output, or to stdout if output is "-".
// A file is written atomically (temp file then rename).
func WriteOutput(stdout io.Writer, output string, contents io.Reader) error {
	if output == "-" {
		_, err := io.Copy(stdout, contents)
		return err
	}
	return atomic.WriteFile(output, contents)
}

var handler *sprout.DefaultHandler

// sprout provided template funcs
var templateFuncs map[string]any

func init() {
	handler = sprout.New()
	handler.AddGroups(all.RegistryGroup())
	templateFuncs = handler.Build()
}

// Simple wrapper on Go text template.Template.
type Template struct {
	*template.Template
}

// Execute Go text template and return rendered string.
// The result string is trim spaced.
func (t *Template) Exec(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Get a Go text template instance from tpl string.
// If tpl starts with "@" char, treat it (the rest part after @) as a file name
// and read template contents from it instead.
func GetTemplate(tpl string, strict bool) (*Template, error) {
	if strings.HasPrefix(tpl, "@") {
		contents, err := os.ReadFile(tpl[1:])
		if err != nil {
			return nil, err
		}
		tpl = string(contents)
	}
	templateInstance := template.New("template").Funcs(templateFuncs)
	if strict {
		templateInstance = templateInstance.Option("missingkey=error")
	}
	t, err := templateInstance.Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{Template: t}, nil
}
