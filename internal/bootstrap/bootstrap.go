// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package bootstrap prepares the external tool repositories.
//
// The pipeline stages shell out into three community repositories. Bootstrap
// clones or updates them under the working directory and applies any local
// fix patches before the first stage references them. It runs git through
// the same Runner as every other external tool, so tests never hit the
// network.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/gnw-tools/gwsetup/internal/assets"
	"github.com/gnw-tools/gwsetup/internal/invoke"
)

// Repo is one external tool repository.
type Repo struct {
	Name string // directory name under the workdir
	URL  string
}

// Repos are the tool repositories the workflows depend on, in setup order.
var Repos = []Repo{
	{Name: "game-and-watch-backup", URL: "https://github.com/stacksmashing/game-and-watch-backup.git"},
	{Name: "game-and-watch-patch", URL: "https://github.com/BrianPugh/game-and-watch-patch.git"},
	{Name: "retro-go", URL: "https://github.com/sylverb/game-and-watch-retro-go.git"},
}

// Ensure clones or fast-forwards every tool repository under layout's
// workdir, then applies local patches from patchesDir (may be empty).
func Ensure(ctx context.Context, r invoke.Runner, layout assets.Layout, patchesDir string) error {
	for _, repo := range Repos {
		dir := filepath.Join(layout.Workdir, repo.Name)
		var cmd invoke.Command
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			cmd = invoke.Command{
				Path: "git",
				Args: []string{"-C", dir, "pull", "--ff-only", "--recurse-submodules"},
			}
		} else {
			cmd = invoke.Command{
				Path: "git",
				Args: []string{"clone", "--recurse-submodules", repo.URL, dir},
			}
		}
		if _, err := r.Run(ctx, cmd); err != nil {
			return fmt.Errorf("bootstrap of %s: %w", repo.Name, err)
		}
		if err := applyPatches(ctx, r, dir, filepath.Join(patchesDir, repo.Name)); err != nil {
			return err
		}
	}
	return nil
}

// applyPatches applies every *.patch under dir's patch directory. A patch
// that no longer applies cleanly is assumed to be already applied upstream
// and skipped with a log line.
func applyPatches(ctx context.Context, r invoke.Runner, repoDir, patchDir string) error {
	matches, err := filepath.Glob(filepath.Join(patchDir, "*.patch"))
	if err != nil || len(matches) == 0 {
		return nil
	}
	sort.Strings(matches)

	for _, patch := range matches {
		abs, err := filepath.Abs(patch)
		if err != nil {
			return err
		}
		check := invoke.Command{
			Path: "git",
			Args: []string{"-C", repoDir, "apply", "--check", abs},
		}
		if _, err := r.Run(ctx, check); err != nil {
			log.Printf("patch %s does not apply to %s, skipping (already applied?)",
				filepath.Base(patch), filepath.Base(repoDir))
			continue
		}
		apply := invoke.Command{
			Path: "git",
			Args: []string{"-C", repoDir, "apply", abs},
		}
		if _, err := r.Run(ctx, apply); err != nil {
			return fmt.Errorf("applying %s: %w", patch, err)
		}
		log.Printf("applied %s to %s", filepath.Base(patch), filepath.Base(repoDir))
	}
	return nil
}
