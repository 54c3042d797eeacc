package dsp

import (
	"bytes"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/Bithero-Agency/ninox.d-dsp/dspjs"
	"github.com/Bithero-Agency/ninox.d-dsp/parse"
)

// Logger receives notifications and compile errors from the "WatchFiles"
// feature.  Replace it to route them elsewhere.
var Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// srcFile is one template source held by a bundle.  rel names the template
// relative to the bundle: "admin/home.dsp" compiles under namespace
// "admin" with name "home".
type srcFile struct {
	rel     string
	path    string // filesystem path; "" for in-memory sources
	fromDir bool   // added by a directory walk
	content string
}

// Bundle is a collection of dsp template sources.  It acts as input for the
// compiler.
type Bundle struct {
	namespace             string
	ignore                []string
	files                 []srcFile
	dirs                  []string
	err                   error
	watcher               *fsnotify.Watcher
	recompilationCallback func(*Build)
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{}
}

// WatchFiles tells dsp to watch the directories of any template files added
// to this bundle and re-compile as necessary.  It should be called once,
// before adding any files.
func (b *Bundle) WatchFiles(watch bool) *Bundle {
	if watch && b.err == nil && b.watcher == nil {
		b.watcher, b.err = fsnotify.NewWatcher()
	}
	return b
}

// Namespace sets the root namespace that all templates in this bundle are
// defined under.  It should be called before Compile.
func (b *Bundle) Namespace(ns string) *Bundle {
	b.namespace = ns
	return b
}

// Ignore adds .dspignore-style patterns applied to every directory added
// to the bundle, in addition to each directory's own .dspignore file.  It
// should be called before AddTemplateDir.
func (b *Bundle) Ignore(patterns ...string) *Bundle {
	b.ignore = append(b.ignore, patterns...)
	return b
}

// AddTemplateDir adds all *.dsp files found within the given directory
// (including sub-directories) to the bundle.  Files matching a .dspignore
// at the directory root are skipped.  The path of each file relative to
// root determines its namespace and name.
func (b *Bundle) AddTemplateDir(root string) *Bundle {
	if b.err != nil {
		return b
	}
	ignore, err := readIgnore(filepath.Join(root, ignoreFile))
	if err != nil {
		b.err = err
		return b
	}
	ignore.patterns = append(append([]string(nil), b.ignore...), ignore.patterns...)
	b.dirs = append(b.dirs, root)
	err = filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if b.watcher != nil {
				return b.watcher.Add(p)
			}
			return nil
		}
		if !strings.HasSuffix(p, ".dsp") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if ignore.Match(rel) {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		b.files = append(b.files, srcFile{rel: rel, path: p, fromDir: true, content: string(content)})
		return nil
	})
	if err != nil {
		b.err = err
	}
	return b
}

// AddTemplateFile adds the template file at path to the bundle under the
// given dotted name, e.g. AddTemplateFile("admin.home", "views/home.dsp").
// If WatchFiles is on, its directory is watched for updates.
func (b *Bundle) AddTemplateFile(name, path string) *Bundle {
	if b.err != nil {
		return b
	}
	content, err := os.ReadFile(path)
	if err != nil {
		b.err = err
		return b
	}
	if b.watcher != nil {
		if err := b.watcher.Add(filepath.Dir(path)); err != nil {
			b.err = err
			return b
		}
	}
	b.files = append(b.files, srcFile{rel: relName(name), path: path, content: string(content)})
	return b
}

// AddTemplateString adds the given template source under the given dotted
// name.  The name is used for error messages and output naming; it does
// not need to correspond to a file.
func (b *Bundle) AddTemplateString(name, src string) *Bundle {
	b.files = append(b.files, srcFile{rel: relName(name), content: src})
	return b
}

// SetRecompilationCallback assigns the bundle a function to call after each
// successful recompilation in watch mode.
func (b *Bundle) SetRecompilationCallback(c func(*Build)) *Bundle {
	b.recompilationCallback = c
	return b
}

// Compile compiles every template in this bundle, in the order added, and
// returns the resulting build.  The first failing template aborts the
// compile.
func (b *Bundle) Compile() (*Build, error) {
	if b.err != nil {
		return nil, b.err
	}
	var build = &Build{}
	for _, src := range b.files {
		file, err := b.compile(src)
		if err != nil {
			return nil, err
		}
		build.Files = append(build.Files, file)
	}
	if b.watcher != nil {
		go b.recompiler(build)
	}
	return build, nil
}

// Stop ends watch mode.  The watcher and its goroutine shut down; the
// bundle may still be compiled again.
func (b *Bundle) Stop() {
	if b.watcher != nil {
		b.watcher.Close()
		b.watcher = nil
	}
}

func (b *Bundle) compile(src srcFile) (*File, error) {
	tmpl, err := parse.ParseString(src.rel, src.content)
	if err != nil {
		return nil, err
	}
	var (
		dir  = path.Dir(src.rel)
		base = strings.TrimSuffix(path.Base(src.rel), ".dsp")
		opts = dspjs.Options{
			Namespace: b.namespaceFor(dir),
			Name:      sanitizeSegment(base),
		}
	)
	var buf bytes.Buffer
	if err := dspjs.Write(&buf, tmpl, opts); err != nil {
		return nil, err
	}
	return &File{
		Name:      opts.Name,
		Namespace: opts.Namespace,
		Path:      src.path,
		OutPath:   strings.TrimSuffix(src.rel, ".dsp") + ".js",
		Template:  tmpl,
		JS:        buf.Bytes(),
	}, nil
}

// recompiler rebuilds the bundle when a template changes.  Like the rest of
// watch mode it is a development aid; the build swap is not synchronized.
func (b *Bundle) recompiler(build *Build) {
	for {
		select {
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if !watchRelevant(ev.Name) {
				continue
			}

			// Rebuild from the original sources.  Directories are walked
			// again so new and deleted files are picked up.
			var fresh = NewBundle().Namespace(b.namespace).Ignore(b.ignore...)
			for _, dir := range b.dirs {
				fresh.AddTemplateDir(dir)
			}
			for _, src := range b.files {
				switch {
				case src.fromDir:
					// re-added by the directory walk
				case src.path != "":
					fresh.AddTemplateFile(nameOf(src.rel), src.path)
				default:
					fresh.AddTemplateString(nameOf(src.rel), src.content)
				}
			}
			next, err := fresh.Compile()
			if err != nil {
				Logger.Error("recompile failed", "error", err)
				continue
			}

			if b.recompilationCallback != nil {
				b.recompilationCallback(next)
			}
			*build = *next
			Logger.Info("templates updated", "path", ev.Name)

		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			Logger.Error("watch error", "error", err)
		}
	}
}

// namespaceFor derives the namespace of a template in the given bundle
// directory, "" or "." meaning the top level.
func (b *Bundle) namespaceFor(dir string) string {
	var segs []string
	if b.namespace != "" {
		segs = append(segs, b.namespace)
	}
	if dir != "" && dir != "." {
		for _, seg := range strings.Split(dir, "/") {
			segs = append(segs, sanitizeSegment(seg))
		}
	}
	return strings.Join(segs, ".")
}

// sanitizeSegment maps a path segment to a usable JavaScript property
// name.  Characters outside [A-Za-z0-9_] become underscores, and a leading
// digit gets an underscore prefix.
func sanitizeSegment(seg string) string {
	var sb strings.Builder
	for _, r := range seg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	var out = sb.String()
	if out == "" || out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// relName is the bundle-relative source name of a dotted template name.
func relName(name string) string {
	return strings.ReplaceAll(name, ".", "/") + ".dsp"
}

// nameOf is the inverse of relName.
func nameOf(rel string) string {
	return strings.ReplaceAll(strings.TrimSuffix(rel, ".dsp"), "/", ".")
}

// watchRelevant filters watch events down to the files that affect a
// compile.
func watchRelevant(name string) bool {
	return strings.HasSuffix(name, ".dsp") || filepath.Base(name) == ignoreFile
}
