package storeconfig

import (
	"fmt"
	"io/fs"
	"strconv"

	"github.com/mitchellh/go-homedir"
	"github.com/nspcc-dev/seqtree/cmd/seqtree-lens/config"
)

const (
	subsection = "store"

	// PermDefault is a default permission of created directories.
	PermDefault fs.FileMode = 0o700

	// WorkersDefault is a default number of routines verifying a tree.
	WorkersDefault = 4
)

// Path returns the value of "path" config parameter from "store" section
// with "~" expanded to the home directory.
//
// Returns "" if the value is not set.
func Path(c *config.Config) (string, error) {
	p := config.StringSafe(c.Sub(subsection), "path")
	if p == "" {
		return "", nil
	}

	res, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("expand store path %q: %w", p, err)
	}

	return res, nil
}

// Range returns the value of "range" config parameter from "store" section.
//
// Returns 0 if the value is missing or invalid.
func Range(c *config.Config) uint64 {
	return config.UintSafe(c.Sub(subsection), "range")
}

// ReadCache returns the value of "read_cache" config parameter from "store"
// section.
//
// Returns 0 if the value is missing or not a positive number.
func ReadCache(c *config.Config) int {
	v := config.IntSafe(c.Sub(subsection), "read_cache")
	if v > 0 {
		return int(v)
	}

	return 0
}

// Perm returns the value of "perm" config parameter from "store" section. The
// value is an octal string.
//
// Returns PermDefault if the value is not set.
func Perm(c *config.Config) (fs.FileMode, error) {
	s := config.StringSafe(c.Sub(subsection), "perm")
	if s == "" {
		return PermDefault, nil
	}

	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid store permissions %q: %w", s, err)
	}

	return fs.FileMode(v) & fs.ModePerm, nil
}

// Workers returns the value of "workers" config parameter from "store"
// section.
//
// Returns WorkersDefault if the value is not a positive number.
func Workers(c *config.Config) int {
	v := config.IntSafe(c.Sub(subsection), "workers")
	if v > 0 {
		return int(v)
	}

	return WorkersDefault
}
