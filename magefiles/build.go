//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for kernelpool using Mage.
//
// Usage:
//
//	mage build          Compile poolctl to bin/
//	mage test:all       Run all tests
//	mage test:debug     Run all tests with pool assertions compiled in
//	mage test:race      Run all tests under the race detector
//	mage scenarios      Build poolctl and run every script in scenarios/
//	mage lint           Run golangci-lint
//	mage vet            Run go vet in both assertion modes
//	mage clean          Remove build artifacts
//	mage install        Install poolctl to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo       = "go"
	binaryName  = "poolctl"
	binaryDir   = "bin"
	cmdDir      = "./cmd/poolctl"
	scenarioDir = "scenarios"

	// debugTag compiles the queue and pool assertions in.
	debugTag = "kpooldebug"
)

// Build compiles the poolctl binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// BuildDebug compiles poolctl with assertions enabled.
func BuildDebug() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	out := filepath.Join(binaryDir, binaryName+"-debug")
	return sh.RunV(binGo, "build", "-v", "-tags", debugTag, "-o", out, cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
