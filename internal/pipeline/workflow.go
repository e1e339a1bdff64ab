// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pipeline

import (
	"fmt"

	"github.com/gnw-tools/gwsetup/internal/assets"
	"github.com/gnw-tools/gwsetup/internal/device"
)

// Workflow names an ordered stage list.
type Workflow string

const (
	WorkflowBackup          Workflow = "backup"
	WorkflowPatch           Workflow = "patch"
	WorkflowFlashSingleBoot Workflow = "flash-single-boot"
	WorkflowFlashDualBoot   Workflow = "flash-dual-boot"
)

// ParseWorkflow validates a raw workflow name.
func ParseWorkflow(raw string) (Workflow, error) {
	switch Workflow(raw) {
	case WorkflowBackup, WorkflowPatch, WorkflowFlashSingleBoot, WorkflowFlashDualBoot:
		return Workflow(raw), nil
	default:
		return "", fmt.Errorf("unknown workflow %q", raw)
	}
}

// ProfileKind returns the flash geometry the workflow must use. Selecting
// the geometry per workflow (not per flag) is what keeps offset and size
// paired: dual-boot workflows always get the offset geometry, everything
// else the full-size one.
func (w Workflow) ProfileKind() device.ProfileKind {
	switch w {
	case WorkflowPatch, WorkflowFlashDualBoot:
		return device.KindDualBoot
	default:
		return device.KindDefault
	}
}

// StrictAssets lists the asset kinds the workflow cannot run without.
func (w Workflow) StrictAssets() []assets.Kind {
	switch w {
	case WorkflowPatch:
		// The patch build links the factory internal flash dump into the
		// patched image and verifies the external dump.
		return []assets.Kind{assets.KindExternalBackup, assets.KindInternalBackup}
	default:
		return nil
	}
}
