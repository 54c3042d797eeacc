package dsp

import (
	"bufio"
	"os"
	"path"
	"strings"
)

// ignoreFile is looked up at the root of every directory added to a
// bundle.
const ignoreFile = ".dspignore"

// ignoreList holds the patterns of one .dspignore file.  A pattern ending
// in "/" excludes the whole subtree beneath it; any other pattern is a
// path.Match glob against the slash-separated path relative to the added
// directory.  Malformed patterns never match.
type ignoreList struct {
	patterns []string
}

// readIgnore loads the ignore file at p.  A missing file yields an empty
// list.  Blank lines and lines starting with "#" are skipped.
func readIgnore(p string) (*ignoreList, error) {
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return &ignoreList{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var list ignoreList
	var scanner = bufio.NewScanner(f)
	for scanner.Scan() {
		var line = strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list.patterns = append(list.patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &list, nil
}

// Match reports whether the given relative path is excluded.
func (l *ignoreList) Match(rel string) bool {
	for _, pat := range l.patterns {
		if strings.HasSuffix(pat, "/") {
			if strings.HasPrefix(rel, pat) {
				return true
			}
			continue
		}
		if ok, err := path.Match(pat, rel); ok && err == nil {
			return true
		}
	}
	return false
}
