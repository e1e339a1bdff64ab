// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package invoke

import (
	"bytes"
	"context"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func testRunner(out *bytes.Buffer) Runner {
	return &execRunner{stdout: out, stderr: out}
}

func TestRunStreamsAndCaptures(t *testing.T) {
	c := qt.New(t)

	var out bytes.Buffer
	r := testRunner(&out)

	res, err := r.Run(context.Background(), Command{
		Path: "sh",
		Args: []string{"-c", "echo flashing"},
	})
	c.Assert(err, qt.IsNil)
	c.Check(res.ExitStatus, qt.Equals, 0)
	c.Check(res.Output, qt.Equals, "flashing\n")
	c.Check(out.String(), qt.Equals, "flashing\n")
	c.Check(res.Command, qt.Equals, "sh -c echo flashing")
}

func TestRunSurfacesExitStatus(t *testing.T) {
	c := qt.New(t)

	var out bytes.Buffer
	r := testRunner(&out)

	res, err := r.Run(context.Background(), Command{
		Path: "sh",
		Args: []string{"-c", "echo broken >&2; exit 3"},
	})
	c.Assert(err, qt.IsNotNil)
	c.Check(res.ExitStatus, qt.Equals, 3)
	c.Check(strings.Contains(res.Output, "broken"), qt.IsTrue)
}

func TestRunToCompletionSurvivesCancel(t *testing.T) {
	c := qt.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	r := testRunner(&out)

	// A device write in flight when the operator hits Ctrl-C must still
	// finish; the pipeline honors the interrupt before the next stage.
	res, err := r.Run(ctx, Command{
		Path:            "sh",
		Args:            []string{"-c", "echo flash-complete"},
		RunToCompletion: true,
	})
	c.Assert(err, qt.IsNil)
	c.Check(res.ExitStatus, qt.Equals, 0)
	c.Check(res.Output, qt.Equals, "flash-complete\n")
}

func TestRunCancelKillsInterruptibleCommand(t *testing.T) {
	c := qt.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	r := testRunner(&out)

	_, err := r.Run(ctx, Command{
		Path: "sh",
		Args: []string{"-c", "sleep 10"},
	})
	c.Assert(err, qt.IsNotNil)
}

func TestRunMissingTool(t *testing.T) {
	c := qt.New(t)

	var out bytes.Buffer
	r := testRunner(&out)

	res, err := r.Run(context.Background(), Command{Path: "gwsetup-no-such-tool"})
	c.Assert(err, qt.IsNotNil)
	c.Check(res.ExitStatus, qt.Equals, -1)
}
