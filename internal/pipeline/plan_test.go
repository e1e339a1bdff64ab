// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pipeline

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"

	"github.com/gnw-tools/gwsetup/internal/adapter"
	"github.com/gnw-tools/gwsetup/internal/assets"
	"github.com/gnw-tools/gwsetup/internal/device"
)

func testRunContext(t *testing.T, variant device.Variant, kind device.ProfileKind) RunContext {
	t.Helper()
	profile, err := device.Resolve(variant, kind)
	if err != nil {
		t.Fatal(err)
	}
	return RunContext{
		Adapter: adapter.STLink,
		Profile: profile,
		Layout:  assets.Layout{Workdir: "/work"},
		Jobs:    4,
	}
}

func stageNames(stages []StageSpec) []string {
	names := make([]string, 0, len(stages))
	for _, st := range stages {
		names = append(names, st.Name)
	}
	return names
}

func TestPlanStageOrder(t *testing.T) {
	for name, test := range map[string]struct {
		workflow Workflow
		kind     device.ProfileKind
		want     []string
	}{
		"backup": {
			workflow: WorkflowBackup,
			kind:     device.KindDefault,
			want: []string{
				"sanity-check",
				"backup-external-flash",
				"backup-internal-flash",
				"unlock",
				"restore",
			},
		},
		"patch": {
			workflow: WorkflowPatch,
			kind:     device.KindDualBoot,
			want:     []string{"apply-dual-boot-patch-and-flash"},
		},
		"flash-single-boot": {
			workflow: WorkflowFlashSingleBoot,
			kind:     device.KindDefault,
			want:     []string{"flash-firmware"},
		},
		"flash-dual-boot": {
			workflow: WorkflowFlashDualBoot,
			kind:     device.KindDualBoot,
			want:     []string{"flash-retro-go"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			c := qt.New(t)
			plan, err := NewPlan(test.workflow, testRunContext(t, device.Mario, test.kind))
			c.Assert(err, qt.IsNil)
			c.Check(cmp.Diff(stageNames(plan.Stages()), test.want), qt.Equals, "")
		})
	}
}

func TestPlanRejectsMismatchedGeometry(t *testing.T) {
	c := qt.New(t)

	_, err := NewPlan(WorkflowFlashDualBoot, testRunContext(t, device.Mario, device.KindDefault))
	c.Assert(err, qt.ErrorMatches,
		"workflow flash-dual-boot needs a dual-boot-patched profile, got default")
}

func TestBackupScriptCommands(t *testing.T) {
	c := qt.New(t)

	plan, err := NewPlan(WorkflowBackup, testRunContext(t, device.Zelda, device.KindDefault))
	c.Assert(err, qt.IsNil)

	cmd := plan.Stages()[0].Command(plan.Run())
	c.Check(cmd.Path, qt.Equals, "./1_sanity_check.sh")
	c.Check(cmp.Diff(cmd.Args, []string{"stlink", "zelda"}), qt.Equals, "")
	c.Check(cmd.Dir, qt.Equals, "/work/game-and-watch-backup")
}

func TestPatchCommand(t *testing.T) {
	c := qt.New(t)

	plan, err := NewPlan(WorkflowPatch, testRunContext(t, device.Mario, device.KindDualBoot))
	c.Assert(err, qt.IsNil)

	st := plan.Stages()[0]
	c.Check(st.Irreversible, qt.IsTrue)

	cmd := st.Command(plan.Run())
	c.Check(cmd.Path, qt.Equals, "make")
	c.Check(cmp.Diff(cmd.Args, []string{
		"-C", "/work/game-and-watch-patch",
		"clean", "flash",
		"ADAPTER=stlink",
		"PATCH_PARAMS=--device=mario",
		"LARGE_FLASH=1",
	}), qt.Equals, "")
}

// The flash parameter sets must match the downstream build exactly; a wrong
// offset or size here corrupts the patched bootloader region.
func TestFlashCommands(t *testing.T) {
	for name, test := range map[string]struct {
		workflow Workflow
		variant  device.Variant
		kind     device.ProfileKind
		want     []string
	}{
		"dual-boot-mario": {
			workflow: WorkflowFlashDualBoot,
			variant:  device.Mario,
			kind:     device.KindDualBoot,
			want: []string{
				"-C", "/work/retro-go", "-j4",
				"ADAPTER=stlink",
				"GNW_TARGET=mario",
				"EXTFLASH_SIZE_MB=63",
				"EXTFLASH_OFFSET=1048576",
				"INTFLASH_BANK=2",
				"COVERFLOW=1",
				"flash",
			},
		},
		"dual-boot-zelda": {
			workflow: WorkflowFlashDualBoot,
			variant:  device.Zelda,
			kind:     device.KindDualBoot,
			want: []string{
				"-C", "/work/retro-go", "-j4",
				"ADAPTER=stlink",
				"GNW_TARGET=zelda",
				"EXTFLASH_SIZE_MB=60",
				"EXTFLASH_OFFSET=4194304",
				"INTFLASH_BANK=2",
				"COVERFLOW=1",
				"flash",
			},
		},
		"single-boot-mario": {
			workflow: WorkflowFlashSingleBoot,
			variant:  device.Mario,
			kind:     device.KindDefault,
			want: []string{
				"-C", "/work/retro-go", "-j4",
				"ADAPTER=stlink",
				"GNW_TARGET=mario",
				"EXTFLASH_SIZE_MB=64",
				"EXTFLASH_OFFSET=0",
				"INTFLASH_BANK=1",
				"COVERFLOW=0",
				"flash",
			},
		},
	} {
		t.Run(name, func(t *testing.T) {
			c := qt.New(t)
			plan, err := NewPlan(test.workflow, testRunContext(t, test.variant, test.kind))
			c.Assert(err, qt.IsNil)
			cmd := plan.Stages()[0].Command(plan.Run())
			c.Check(cmd.Path, qt.Equals, "make")
			c.Check(cmp.Diff(cmd.Args, test.want), qt.Equals, "")
		})
	}
}

// Every stage that writes the device must be shielded from cancellation;
// a killed half-finished write can brick the device. Read-only stages stay
// interruptible.
func TestWriteStagesRunToCompletion(t *testing.T) {
	for name, test := range map[string]struct {
		workflow Workflow
		kind     device.ProfileKind
		want     map[string]bool
	}{
		"backup": {
			workflow: WorkflowBackup,
			kind:     device.KindDefault,
			want: map[string]bool{
				"sanity-check":          false,
				"backup-external-flash": false,
				"backup-internal-flash": false,
				"unlock":                true,
				"restore":               true,
			},
		},
		"patch": {
			workflow: WorkflowPatch,
			kind:     device.KindDualBoot,
			want:     map[string]bool{"apply-dual-boot-patch-and-flash": true},
		},
		"flash-single-boot": {
			workflow: WorkflowFlashSingleBoot,
			kind:     device.KindDefault,
			want:     map[string]bool{"flash-firmware": true},
		},
		"flash-dual-boot": {
			workflow: WorkflowFlashDualBoot,
			kind:     device.KindDualBoot,
			want:     map[string]bool{"flash-retro-go": true},
		},
	} {
		t.Run(name, func(t *testing.T) {
			c := qt.New(t)
			plan, err := NewPlan(test.workflow, testRunContext(t, device.Mario, test.kind))
			c.Assert(err, qt.IsNil)
			got := map[string]bool{}
			for _, st := range plan.Stages() {
				got[st.Name] = st.Command(plan.Run()).RunToCompletion
			}
			c.Check(cmp.Diff(got, test.want), qt.Equals, "")
		})
	}
}

func TestPlanMachineRejectsOutOfOrder(t *testing.T) {
	c := qt.New(t)

	plan, err := NewPlan(WorkflowBackup, testRunContext(t, device.Mario, device.KindDefault))
	c.Assert(err, qt.IsNil)

	m := plan.machine()
	ctx := context.Background()

	// unlock must not be reachable before both backups have completed.
	c.Check(m.Can("unlock"), qt.IsFalse)
	c.Assert(m.Event(ctx, "unlock"), qt.IsNotNil)

	c.Assert(m.Event(ctx, "sanity-check"), qt.IsNil)
	c.Assert(m.Event(ctx, "backup-external-flash"), qt.IsNil)
	c.Check(m.Can("unlock"), qt.IsFalse)
	c.Assert(m.Event(ctx, "backup-internal-flash"), qt.IsNil)
	c.Check(m.Can("unlock"), qt.IsTrue)
}

func TestParseWorkflow(t *testing.T) {
	c := qt.New(t)

	w, err := ParseWorkflow("flash-dual-boot")
	c.Assert(err, qt.IsNil)
	c.Check(w, qt.Equals, WorkflowFlashDualBoot)

	_, err = ParseWorkflow("install")
	c.Check(err, qt.ErrorMatches, `unknown workflow "install"`)
}
