package dsp

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/Bithero-Agency/ninox.d-dsp/ast"
	"github.com/Bithero-Agency/ninox.d-dsp/dspjs"
)

// Build is the result of compiling a bundle, one File per template input,
// in the order the inputs were added.
type Build struct {
	Files []*File
}

// File is one compiled template.
type File struct {
	Name      string        // template name, e.g. "home"
	Namespace string        // destination namespace, e.g. "pages.admin"
	Path      string        // source path; "" for in-memory sources
	OutPath   string        // bundle-relative output path, e.g. "admin/home.js"
	Template  *ast.Template // parsed form
	JS        []byte        // generated rendering code
}

// Entry returns the dot-joined name under which the compiled render
// function is defined.
func (f *File) Entry() string {
	return dspjs.Options{Namespace: f.Namespace, Name: f.Name}.EntryName()
}

// File returns the compiled file defining the given entry name, or nil if
// the build has none.
func (b *Build) File(entry string) *File {
	for _, f := range b.Files {
		if f.Entry() == entry {
			return f
		}
	}
	return nil
}

// Write writes each generated file beneath outDir, creating directories as
// needed.  With outDir empty, output lands next to each source file, and
// in-memory sources are skipped.  Files are written through a rename, so a
// partially written file is never visible.
func (b *Build) Write(outDir string) error {
	for _, f := range b.Files {
		var dest string
		switch {
		case outDir != "":
			dest = filepath.Join(outDir, filepath.FromSlash(f.OutPath))
		case f.Path != "":
			dest = strings.TrimSuffix(f.Path, ".dsp") + ".js"
		default:
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		if err := atomic.WriteFile(dest, bytes.NewReader(f.JS)); err != nil {
			return err
		}
	}
	return nil
}
