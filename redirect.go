package mson

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// RedirectFileName is the per-user redirect source, resolved under the home
// directory. Each entry maps a fully-qualified old type path to a new one:
//
//	old/module/path.OldClass: new/module/path.NewClass
const RedirectFileName = ".mson.yaml"

// RedirectTable maps old type identities to their current ones. It is
// immutable once loaded; decoding consults it before any reconstruction.
type RedirectTable map[string]map[string]Identity

// Lookup returns the redirected identity for (module, class), if any.
func (t RedirectTable) Lookup(id Identity) (Identity, bool) {
	classes, ok := t[id.Module]
	if !ok {
		return Identity{}, false
	}
	target, ok := classes[id.Class]
	return target, ok
}

// LoadRedirects reads a redirect table from a YAML file. A missing file yields
// an empty table, not an error; malformed YAML propagates.
func LoadRedirects(path string) (RedirectTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RedirectTable{}, nil
		}
		return nil, wrapError(CodeParse, "unreadable redirect file", err)
	}
	var flat map[string]string
	if err := yaml.Unmarshal(raw, &flat); err != nil {
		return nil, wrapError(CodeParse, "malformed redirect file", err)
	}
	table := RedirectTable{}
	for oldPath, newPath := range flat {
		oldID := splitTypePath(oldPath)
		newID := splitTypePath(newPath)
		classes, ok := table[oldID.Module]
		if !ok {
			classes = map[string]Identity{}
			table[oldID.Module] = classes
		}
		classes[oldID.Class] = newID
	}
	return table, nil
}

// splitTypePath splits "some/module/path.Class" at the final dot.
func splitTypePath(p string) Identity {
	i := strings.LastIndexByte(p, '.')
	if i < 0 {
		return Identity{Class: p}
	}
	return Identity{Module: p[:i], Class: p[i+1:]}
}

var (
	redirectOnce sync.Once
	redirectTab  RedirectTable
	redirectErr  error
)

// processRedirects loads the per-user redirect table exactly once. The table
// is read-only after initialization and safe for concurrent use.
func processRedirects() (RedirectTable, error) {
	redirectOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			redirectTab = RedirectTable{}
			return
		}
		redirectTab, redirectErr = LoadRedirects(filepath.Join(home, RedirectFileName))
	})
	return redirectTab, redirectErr
}
