package archive

import (
	"path"

	"github.com/bmatcuk/doublestar/v4"
)

// Predicate decides whether a staged file is retained by the writer. It
// receives the archive-relative path (forward-slash separated). The three
// families below are used by the builders; families are combined by choosing
// one, never mixed.
type Predicate func(relPath string) bool

// IncludeAll retains every regular file.
func IncludeAll() Predicate {
	return func(string) bool { return true }
}

// ExcludeBasenames retains files whose basename is absent from the exclusion
// set. Addon builders derive the set from the core archive so that core and
// addons never ship overlapping copies of the same file.
func ExcludeBasenames(set map[string]struct{}) Predicate {
	return func(relPath string) bool {
		_, excluded := set[path.Base(relPath)]
		return !excluded
	}
}

// MatchPatterns retains files whose basename matches any of the glob
// patterns. Bad patterns never match.
func MatchPatterns(patterns []string) Predicate {
	return func(relPath string) bool {
		base := path.Base(relPath)
		for _, pat := range patterns {
			if ok, err := doublestar.Match(pat, base); err == nil && ok {
				return true
			}
		}
		return false
	}
}

// CoreBasenames collects the basenames of every entry in a CORE archive blob.
// The addon builders feed the result to ExcludeBasenames.
func CoreBasenames(core []byte) (map[string]struct{}, error) {
	r, err := NewCoreReader(core)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for {
		entry, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		set[path.Base(entry.Path)] = struct{}{}
	}
	return set, nil
}
