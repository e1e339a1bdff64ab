// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pipeline

import (
	"fmt"
	"strconv"

	"github.com/looplab/fsm"

	"github.com/gnw-tools/gwsetup/internal/invoke"
)

// Plan is the immutable ordered stage list for one workflow, bound to a
// resolved adapter and device profile.
type Plan struct {
	Workflow Workflow
	run      RunContext
	stages   []StageSpec
}

// NewPlan builds the plan for workflow. The profile in rc must carry the
// geometry the workflow requires; passing a full-size profile into a
// dual-boot workflow (or vice versa) is refused here, before any command
// is constructed.
func NewPlan(workflow Workflow, rc RunContext) (*Plan, error) {
	if got, want := rc.Profile.Kind, workflow.ProfileKind(); got != want {
		return nil, fmt.Errorf("workflow %s needs a %s profile, got %s", workflow, want, got)
	}

	p := &Plan{Workflow: workflow, run: rc}
	switch workflow {
	case WorkflowBackup:
		p.stages = backupStages()
	case WorkflowPatch:
		p.stages = patchStages()
	case WorkflowFlashSingleBoot:
		p.stages = []StageSpec{flashStage("flash-firmware",
			"flash the firmware image at offset 0 with the full-size geometry", "")}
	case WorkflowFlashDualBoot:
		p.stages = []StageSpec{flashStage("flash-retro-go",
			"flash retro-go at the dual-boot offset",
			"cannot verify that the dual-boot patch ran on this device; "+
				"without it the flashed image will not boot")}
	default:
		return nil, fmt.Errorf("unknown workflow %q", workflow)
	}
	return p, nil
}

// Stages returns a copy of the ordered stage list.
func (p *Plan) Stages() []StageSpec {
	out := make([]StageSpec, len(p.stages))
	copy(out, p.stages)
	return out
}

// Run returns the plan's bound run context.
func (p *Plan) Run() RunContext {
	return p.run
}

const machineStart = "start"

// machine compiles the stage order into a state machine. Each stage is an
// event whose only valid source is the preceding stage's state, so firing
// stages out of order is an error rather than a convention.
func (p *Plan) machine() *fsm.FSM {
	events := make(fsm.Events, 0, len(p.stages))
	prev := machineStart
	for _, st := range p.stages {
		events = append(events, fsm.EventDesc{Name: st.Name, Src: []string{prev}, Dst: st.Name})
		prev = st.Name
	}
	return fsm.NewFSM(machineStart, events, nil)
}

// backupStages is the factory firmware rescue sequence. Unlock erases the
// internal flash, so both dumps must exist before it runs; restore then
// writes the dump back onto the unlocked device.
func backupStages() []StageSpec {
	return []StageSpec{
		{
			Name:       "sanity-check",
			Summary:    "verify tools are installed and the probe sees the device",
			Checkpoint: "Connect the device to the probe and power it on.",
			Command:    backupScript("1_sanity_check.sh", readsOnly),
		},
		{
			Name:    "backup-external-flash",
			Summary: "dump the factory external SPI flash",
			Checkpoint: "Power-cycle the device and leave it on. " +
				"The screen may glitch while the flash is read.",
			Command: backupScript("2_backup_flash.sh", readsOnly),
		},
		{
			Name:       "backup-internal-flash",
			Summary:    "extract the factory internal flash through the exploit payload",
			Checkpoint: "Power-cycle the device again and leave it on.",
			Command:    backupScript("3_backup_internal_flash.sh", readsOnly),
		},
		{
			Name:    "unlock",
			Summary: "strip flash readout protection; this ERASES the internal flash",
			Checkpoint: "Hold the power button so the device stays in programming mode " +
				"until this stage finishes.",
			Irreversible: true,
			Command:      backupScript("4_unlock_device.sh", writesDevice),
		},
		{
			Name:       "restore",
			Summary:    "write the factory firmware back onto the unlocked device",
			Checkpoint: "Keep holding the power button; release once flashing completes.",
			Command:    backupScript("5_restore_firmware.sh", writesDevice),
		},
	}
}

// Stages that write the device must never be killed by cancellation; an
// interrupt takes effect between stages instead. Read-only stages may be
// interrupted freely.
const (
	readsOnly    = false
	writesDevice = true
)

func backupScript(script string, writes bool) func(RunContext) invoke.Command {
	return func(rc RunContext) invoke.Command {
		return invoke.Command{
			Path:            "./" + script,
			Args:            []string{string(rc.Adapter), string(rc.Profile.Variant)},
			Dir:             rc.Layout.BackupRepo(),
			RunToCompletion: writes,
		}
	}
}

// patchStages applies the dual-boot patch and flashes it in one combined
// stage. There is deliberately no dry-run split; the patch build writes the
// device as part of the same make target.
func patchStages() []StageSpec {
	return []StageSpec{
		{
			Name: "apply-dual-boot-patch-and-flash",
			Summary: "build the dual-boot bootloader from the factory dump and " +
				"flash it over both internal banks",
			Checkpoint: "Power-cycle the device and hold the power button to keep it " +
				"in programming mode.",
			Irreversible: true,
			Command: func(rc RunContext) invoke.Command {
				return invoke.Command{
					Path: "make",
					Args: []string{
						"-C", rc.Layout.PatchRepo(),
						"clean", "flash",
						"ADAPTER=" + string(rc.Adapter),
						"PATCH_PARAMS=--device=" + string(rc.Profile.Variant),
						"LARGE_FLASH=1",
					},
					RunToCompletion: true,
				}
			},
		},
	}
}

func flashStage(name, summary, warning string) StageSpec {
	return StageSpec{
		Name:    name,
		Summary: summary,
		Warning: warning,
		Checkpoint: "Power-cycle the device and hold the power button to keep it " +
			"in programming mode.",
		Command: func(rc RunContext) invoke.Command {
			return invoke.Command{
				Path: "make",
				Args: []string{
					"-C", rc.Layout.RetroGoRepo(),
					"-j" + strconv.Itoa(rc.Jobs),
					"ADAPTER=" + string(rc.Adapter),
					"GNW_TARGET=" + string(rc.Profile.Variant),
					fmt.Sprintf("EXTFLASH_SIZE_MB=%d", rc.Profile.ExtFlashSizeMB()),
					fmt.Sprintf("EXTFLASH_OFFSET=%d", rc.Profile.ExtFlashOffset),
					fmt.Sprintf("INTFLASH_BANK=%d", rc.Profile.IntFlashBank),
					"COVERFLOW=" + boolFlag(rc.Profile.Coverflow),
					"flash",
				},
				RunToCompletion: true,
			}
		},
	}
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
