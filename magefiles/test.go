//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups the test targets.
type Test mg.Namespace

// All runs every package's tests in release mode.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Debug runs every package's tests with assertions compiled in, which
// also enables the assertion-only test files.
func (Test) Debug() error {
	return sh.RunV(binGo, "test", "-tags", debugTag, "./...")
}

// Race runs the tests under the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover writes a coverage profile to bin/cover.out.
func (Test) Cover() error {
	mg.Deps(Build)
	profile := filepath.Join(binaryDir, "cover.out")
	if err := sh.RunV(binGo, "test", "-coverprofile", profile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", profile)
}

// Scenarios builds poolctl and runs every script under scenarios/ against
// a throwaway config and data directory.
func Scenarios() error {
	mg.Deps(Build)

	scripts, err := filepath.Glob(filepath.Join(scenarioDir, "*.yaml"))
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		fmt.Println("No scenario scripts found.")
		return nil
	}
	sort.Strings(scripts)

	tmp, err := sh.Output("mktemp", "-d")
	if err != nil {
		return err
	}
	defer sh.Rm(tmp)

	bin := filepath.Join(binaryDir, binaryName)
	for _, script := range scripts {
		err := sh.RunV(bin,
			"--config-dir", filepath.Join(tmp, "config"),
			"--data-dir", filepath.Join(tmp, "data"),
			"run", "--journal", script)
		if err != nil {
			return fmt.Errorf("%s: %w", script, err)
		}
	}
	return sh.RunV(bin,
		"--config-dir", filepath.Join(tmp, "config"),
		"--data-dir", filepath.Join(tmp, "data"),
		"journal")
}
