// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main contains Mage build targets for wodmix developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "wodmix"
	cmdPkg  = "./cmd/wodmix"
	dataDir = "data"
)

// Init creates the data directory used by the playlist history.
func Init() error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dataDir, err)
	}
	fmt.Println("  ", dataDir)
	return nil
}

// Build compiles the CLI binary into bin/, stamping the version from git.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	ldflags := "-X main.version=" + buildVersion()
	// go-sqlite3 needs cgo.
	env := map[string]string{"CGO_ENABLED": "1"}
	if err := sh.RunWithV(env, "go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

func buildVersion() string {
	v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || v == "" {
		return "dev"
	}
	return v
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and the tests.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Demo composes a playlist for every workout in workouts/ using the mock backend.
func Demo() error {
	mg.Deps(Build)
	files, err := filepath.Glob("workouts/*.yaml")
	if err != nil {
		return err
	}
	bin := filepath.Join(binDir, binName)
	for _, f := range files {
		fmt.Printf("== %s\n", f)
		if err := sh.RunV(bin, "compose", "--workout", f, "--backend", "mock"); err != nil {
			return fmt.Errorf("composing %s: %w", f, err)
		}
	}
	return nil
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}

// Stats prints Go production and test line counts per package.
func Stats() error {
	prod, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	tests, err := countGoLines(".", true)
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(prod))
	for d := range prod {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var totalProd, totalTest int
	for _, d := range dirs {
		fmt.Printf("%-28s %6d %6d\n", d, prod[d], tests[d])
		totalProd += prod[d]
		totalTest += tests[d]
	}
	fmt.Printf("%-28s %6d %6d\n", "total", totalProd, totalTest)
	return nil
}

// countGoLines walks the tree and counts non-blank lines in Go files per
// directory. If testOnly is true, only _test.go files are counted.
func countGoLines(root string, testOnly bool) (map[string]int, error) {
	counts := map[string]int{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == binDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		dir := filepath.Dir(path)
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				counts[dir]++
			}
		}
		return nil
	})
	return counts, err
}
