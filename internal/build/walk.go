package build

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	sderrors "github.com/conneroisu/sketchdoc/internal/errors"
)

// Documents lists the documents under the source directory as paths
// relative to it, in lexical order. Hidden directories, the output
// directory and files matching an exclude pattern are left out.
func (b *Builder) Documents() ([]string, error) {
	root := b.cfg.Docs.SourceDir
	outAbs, _ := filepath.Abs(b.cfg.Docs.OutputDir)

	var docs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || b.excluded(rel) {
				return filepath.SkipDir
			}
			if abs, _ := filepath.Abs(p); abs == outAbs {
				return filepath.SkipDir
			}
			return nil
		}

		if b.IsDocument(rel) {
			docs = append(docs, rel)
		}
		return nil
	})
	if err != nil {
		return nil, sderrors.NewIOError("WALK_SOURCES", "failed to list documents in "+root, err)
	}
	return docs, nil
}

// IsDocument reports whether rel, relative to the source directory, names
// a document the builder converts.
func (b *Builder) IsDocument(rel string) bool {
	if strings.HasPrefix(filepath.Base(rel), ".") || b.excluded(rel) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(rel))
	for _, want := range b.cfg.Docs.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// excluded matches rel against the exclude patterns, both as a whole
// slash separated path and by base name.
func (b *Builder) excluded(rel string) bool {
	slashed := filepath.ToSlash(rel)
	for _, pattern := range b.cfg.Docs.Exclude {
		if ok, _ := path.Match(pattern, slashed); ok {
			return true
		}
		if ok, _ := path.Match(pattern, path.Base(slashed)); ok {
			return true
		}
	}
	return false
}

// relative maps a path given on the command line or by the watcher to a
// document path relative to the source directory.
func (b *Builder) relative(p string) (string, bool) {
	root, err := filepath.Abs(b.cfg.Docs.SourceDir)
	if err != nil {
		return "", false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return "", false
	}
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return "", false
		}
	}
	if !b.IsDocument(rel) {
		return "", false
	}
	return rel, true
}
