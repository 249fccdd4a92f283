//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert builds the CLI and converts public/data/comprehensiveSampleData.json
// in place, keeping a .backup copy of the original.
func Convert() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath(), "convert")
}

// Validate checks the converted data file.
func Validate() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "validate")
}
