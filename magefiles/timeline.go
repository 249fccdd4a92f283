//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Index loads the converted data file into the SQLite timeline index and
// writes timeline/index/export.yaml.
func Index() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath(), "timeline", "index")
}
