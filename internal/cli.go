// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package internal

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/alecthomas/kingpin"

	"github.com/gnw-tools/gwsetup/internal/pipeline"
)

func cliParse(args []string) (opts Options, err error) {
	app := kingpin.New("gwsetup", "Game & Watch firmware bring-up tool")
	app.Flag("adapter", "debug probe: stlink or jlink (default: auto-detect)").
		StringVar(&opts.Adapter)
	app.Flag("device", "device variant: mario or zelda").Short('d').StringVar(&opts.Device)
	app.Flag("config", "defaults file").Default("gwsetup.ini").StringVar(&opts.ConfigPath)
	app.Flag("workdir", "directory holding the tool repositories").StringVar(&opts.Workdir)
	app.Flag("roms", "directory with ROM files to install").StringVar(&opts.RomsDir)
	app.Flag("backups", "directory with firmware backup files").StringVar(&opts.BackupDir)
	app.Flag("jobs", "parallel make jobs").Short('j').IntVar(&opts.Jobs)
	app.Flag("patches", "directory with local fix patches for the tool repositories").
		Default("patches").StringVar(&opts.PatchesDir)
	app.Flag("skip-bootstrap", "do not clone or update the tool repositories").
		BoolVar(&opts.SkipBootstrap)

	app.Command(string(pipeline.WorkflowBackup),
		"back up the factory firmware and unlock the device")
	app.Command(string(pipeline.WorkflowPatch),
		"build and flash the dual-boot patched firmware")
	app.Command(string(pipeline.WorkflowFlashSingleBoot),
		"flash retro-go over the whole external flash")
	app.Command(string(pipeline.WorkflowFlashDualBoot),
		"flash retro-go alongside the patched factory firmware")

	cmd, err := app.Parse(args)
	if err != nil {
		return opts, fmt.Errorf("error: %w, try --help", err)
	}

	opts.Workflow, err = pipeline.ParseWorkflow(cmd)
	if err != nil {
		return opts, err
	}

	return opts, nil
}

func CLIMain(ctx context.Context, t0 time.Time, args []string) error {
	opts, err := cliParse(args)
	if err != nil {
		return err
	}

	if err := Main(ctx, t0, &opts); err != nil {
		return err
	}

	log.Printf("%s workflow completed successfully", opts.Workflow)

	return nil
}
