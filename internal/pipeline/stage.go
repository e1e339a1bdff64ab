// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package pipeline sequences the bring-up stages for one workflow.
//
// The stage order used to live only in the tool repositories' READMEs; here
// it is data. A Plan owns its ordered stages, the Orchestrator is the only
// component that runs them, and a state machine compiled from the plan
// refuses any out-of-order execution. Stages that depend on physical device
// state the software cannot observe carry an operator checkpoint and block
// until the operator confirms.
package pipeline

import (
	"github.com/gnw-tools/gwsetup/internal/adapter"
	"github.com/gnw-tools/gwsetup/internal/assets"
	"github.com/gnw-tools/gwsetup/internal/device"
	"github.com/gnw-tools/gwsetup/internal/invoke"
)

// RunContext carries everything a stage needs to render its command.
// It is fixed at plan construction; stages never mutate it.
type RunContext struct {
	Adapter adapter.Adapter
	Profile device.Profile
	Layout  assets.Layout
	Jobs    int // parallel make jobs for firmware builds
}

// StageSpec is one ordered unit of work.
type StageSpec struct {
	Name    string
	Summary string

	// Checkpoint is an operator instruction that must be acknowledged
	// before the stage runs, typically a power-cycle into programming mode.
	// Empty means the stage needs no operator action.
	Checkpoint string

	// Warning is logged before the stage runs, for preconditions the
	// software cannot verify (e.g. that the dual-boot patch ran earlier).
	Warning string

	// Irreversible stages can destroy the only copy of the factory
	// firmware; they additionally require an explicit affirmative
	// confirmation, never a default-accept.
	Irreversible bool

	// Command renders the external tool invocation for this stage.
	Command func(RunContext) invoke.Command
}
