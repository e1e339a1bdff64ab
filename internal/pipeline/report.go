// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pipeline

import (
	"strconv"
	"time"

	"github.com/gosuri/uitable"

	"github.com/gnw-tools/gwsetup/internal/invoke"
)

// Outcome is the recorded result of one executed stage.
type Outcome struct {
	Stage  string
	Result invoke.Result
	Err    error
}

// Failed reports whether the stage halted the pipeline.
func (o Outcome) Failed() bool {
	return o.Err != nil || o.Result.ExitStatus != 0
}

// Report collects the outcomes of one pipeline run. It lives only for the
// duration of the process; nothing is persisted across runs.
type Report struct {
	Workflow Workflow
	Outcomes []Outcome
}

// Failed reports whether any executed stage failed.
func (r *Report) Failed() bool {
	for _, o := range r.Outcomes {
		if o.Failed() {
			return true
		}
	}
	return false
}

// Render formats the report as a table for the operator.
func (r *Report) Render() string {
	t := uitable.New()
	t.MaxColWidth = 60
	t.AddRow("STAGE", "STATUS", "EXIT", "ELAPSED")
	for _, o := range r.Outcomes {
		status := "ok"
		if o.Failed() {
			status = "FAILED"
		}
		t.AddRow(o.Stage, status, strconv.Itoa(o.Result.ExitStatus),
			o.Result.Elapsed.Round(time.Millisecond).String())
	}
	return t.String()
}
