// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package internal wires the command line to the workflow pipeline.
package internal

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gnw-tools/gwsetup/internal/adapter"
	"github.com/gnw-tools/gwsetup/internal/assets"
	"github.com/gnw-tools/gwsetup/internal/bootstrap"
	"github.com/gnw-tools/gwsetup/internal/config"
	"github.com/gnw-tools/gwsetup/internal/device"
	"github.com/gnw-tools/gwsetup/internal/invoke"
	"github.com/gnw-tools/gwsetup/internal/pipeline"
)

type Options struct {
	Workflow pipeline.Workflow

	Adapter    string // raw adapter name; empty means auto-detect
	Device     string // raw variant name; empty means the default variant
	ConfigPath string

	Workdir   string
	RomsDir   string
	BackupDir string

	Jobs          int
	PatchesDir    string
	SkipBootstrap bool
}

// merge fills unset options from the configuration file. Flags win over the
// file, the file wins over built-in defaults.
func (opts *Options) merge(cfg config.Config) {
	if opts.Adapter == "" {
		opts.Adapter = cfg.Adapter
	}
	if opts.Device == "" {
		opts.Device = cfg.Device
	}
	if opts.Workdir == "" {
		opts.Workdir = cfg.Workdir
	}
	if opts.RomsDir == "" {
		opts.RomsDir = cfg.RomsDir
	}
	if opts.BackupDir == "" {
		opts.BackupDir = cfg.BackupDir
	}
	if opts.Jobs <= 0 {
		opts.Jobs = cfg.Jobs
	}
}

// resolveAdapter picks the debug probe: the explicit name if given, otherwise
// a USB scan, otherwise the default.
func resolveAdapter(raw string) (adapter.Adapter, error) {
	if raw != "" {
		return adapter.Resolve(raw)
	}
	if a, ok := adapter.Detect(); ok {
		log.Println("detected debug probe:", a)
		return a, nil
	}
	log.Println("no debug probe detected, assuming", adapter.Default)
	return adapter.Default, nil
}

func Main(ctx context.Context, t0 time.Time, opts *Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	opts.merge(cfg)

	adp, err := resolveAdapter(opts.Adapter)
	if err != nil {
		return err
	}

	variant, err := device.ParseVariant(opts.Device)
	if err != nil {
		return err
	}
	profile, err := device.Resolve(variant, opts.Workflow.ProfileKind())
	if err != nil {
		return err
	}
	if cfg.CoverflowSet {
		profile.Coverflow = cfg.Coverflow
	}
	log.Println("device profile:", profile)

	layout := assets.Layout{Workdir: opts.Workdir}
	runner := invoke.NewRunner()

	if opts.SkipBootstrap {
		log.Println("skipping tool repository bootstrap")
	} else {
		if err := bootstrap.Ensure(ctx, runner, layout, opts.PatchesDir); err != nil {
			return err
		}
	}

	sources := assets.Sources{RomsDir: opts.RomsDir, BackupDir: opts.BackupDir}
	placed, err := assets.Place(profile, layout, sources, opts.Workflow.StrictAssets())
	if err != nil {
		return err
	}
	if len(placed) > 0 {
		log.Printf("placed %d asset file(s)", len(placed))
	}

	plan, err := pipeline.NewPlan(opts.Workflow, pipeline.RunContext{
		Adapter: adp,
		Profile: profile,
		Layout:  layout,
		Jobs:    opts.Jobs,
	})
	if err != nil {
		return err
	}

	orch := &pipeline.Orchestrator{
		Runner:   runner,
		Prompter: pipeline.NewTerminalPrompter(),
	}
	report, execErr := orch.Execute(ctx, plan)

	// The table goes out even on failure, so the operator can see exactly
	// which stage stopped and where to resume.
	fmt.Fprintln(os.Stdout, report.Render())

	if execErr != nil {
		return execErr
	}

	log.Printf("all %d stage(s) finished in %v", len(report.Outcomes), time.Since(t0).Round(time.Second))
	return nil
}
