// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gnw-tools/gwsetup/internal/invoke"
)

var (
	// ErrCheckpointDeclined means the operator aborted at a checkpoint.
	// A clean, non-retryable abort: nothing was invoked for that stage.
	ErrCheckpointDeclined = errors.New("operator declined checkpoint")

	// ErrConfirmationDeclined means an irreversible stage did not receive
	// its explicit affirmative. The stage was refused, not executed.
	ErrConfirmationDeclined = errors.New("irreversible stage not confirmed")
)

// StageError reports the stage that halted the pipeline.
type StageError struct {
	Stage  string
	Result invoke.Result
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed with exit status %d", e.Stage, e.Result.ExitStatus)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Orchestrator runs plans. It is the sole place stage order is enforced;
// stages never reorder or skip themselves.
type Orchestrator struct {
	Runner   invoke.Runner
	Prompter Prompter
}

// Execute runs every stage of plan in order and halts on the first failure.
// The returned report holds exactly the stages that were invoked, in order,
// whether or not an error is returned. Completed stages are never rolled
// back: recovery from a partial flash is its own explicit workflow, not
// something to automate blindly.
func (o *Orchestrator) Execute(ctx context.Context, plan *Plan) (*Report, error) {
	report := &Report{Workflow: plan.Workflow}
	guard := plan.machine()

	for _, st := range plan.Stages() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !guard.Can(st.Name) {
			return report, fmt.Errorf("stage %s cannot run from state %s", st.Name, guard.Current())
		}

		if st.Warning != "" {
			log.Printf("warning: %s: %s", st.Name, st.Warning)
		}
		if st.Checkpoint != "" {
			ready, err := o.Prompter.Checkpoint(st.Name, st.Checkpoint)
			if err != nil {
				return report, err
			}
			if !ready {
				return report, fmt.Errorf("stage %s: %w", st.Name, ErrCheckpointDeclined)
			}
		}
		if st.Irreversible {
			confirmed, err := o.Prompter.ConfirmIrreversible(st.Name, st.Summary)
			if err != nil {
				return report, err
			}
			if !confirmed {
				return report, fmt.Errorf("stage %s: %w", st.Name, ErrConfirmationDeclined)
			}
		}

		log.Printf("stage %s: %s", st.Name, st.Summary)
		res, err := o.Runner.Run(ctx, st.Command(plan.Run()))
		report.Outcomes = append(report.Outcomes, Outcome{Stage: st.Name, Result: res, Err: err})
		if err != nil || res.ExitStatus != 0 {
			return report, &StageError{Stage: st.Name, Result: res, Err: err}
		}

		if err := guard.Event(ctx, st.Name); err != nil {
			return report, fmt.Errorf("stage order violated after %s: %w", st.Name, err)
		}
	}

	return report, nil
}
