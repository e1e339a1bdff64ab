// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package internal

import (
	"testing"

	"github.com/frankban/quicktest"

	"github.com/gnw-tools/gwsetup/internal/config"
	"github.com/gnw-tools/gwsetup/internal/pipeline"
)

func TestOptionsMerge(t *testing.T) {
	fileCfg := config.Config{
		Adapter:   "jlink",
		Device:    "zelda",
		Workdir:   "/from-file",
		RomsDir:   "/from-file/roms",
		BackupDir: "/from-file/backups",
		Jobs:      2,
	}

	for name, test := range map[string]struct {
		opts Options
		cfg  config.Config
		want Options
	}{
		"flags-win-over-file": {
			opts: Options{
				Workflow: pipeline.WorkflowBackup,
				Adapter:  "stlink",
				Device:   "mario",
				Workdir:  "/from-flag",
				Jobs:     8,
			},
			cfg: fileCfg,
			want: Options{
				Workflow:  pipeline.WorkflowBackup,
				Adapter:   "stlink",
				Device:    "mario",
				Workdir:   "/from-flag",
				RomsDir:   "/from-file/roms",
				BackupDir: "/from-file/backups",
				Jobs:      8,
			},
		},
		"unset-flags-take-file-values": {
			opts: Options{Workflow: pipeline.WorkflowPatch},
			cfg:  fileCfg,
			want: Options{
				Workflow:  pipeline.WorkflowPatch,
				Adapter:   "jlink",
				Device:    "zelda",
				Workdir:   "/from-file",
				RomsDir:   "/from-file/roms",
				BackupDir: "/from-file/backups",
				Jobs:      2,
			},
		},
		"zero-jobs-takes-file-jobs": {
			opts: Options{Workflow: pipeline.WorkflowBackup, Jobs: 0},
			cfg:  config.Config{Workdir: ".", Jobs: 4},
			want: Options{Workflow: pipeline.WorkflowBackup, Workdir: ".", Jobs: 4},
		},
		"negative-jobs-takes-file-jobs": {
			opts: Options{Workflow: pipeline.WorkflowBackup, Jobs: -1},
			cfg:  config.Config{Workdir: ".", Jobs: 4},
			want: Options{Workflow: pipeline.WorkflowBackup, Workdir: ".", Jobs: 4},
		},
	} {
		t.Run(name, func(t *testing.T) {
			qt := quicktest.New(t)
			opts := test.opts
			opts.merge(test.cfg)
			qt.Check(opts, quicktest.Equals, test.want)
		})
	}
}
