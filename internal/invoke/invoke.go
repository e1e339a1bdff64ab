// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package invoke runs the external build and flash tools.
//
// Every hardware operation in this program happens inside some external
// program (the backup scripts, make, openocd underneath them). This package
// is the single place they are spawned: output is streamed to the operator
// as it appears and captured for the final report, and a non-zero exit is
// always surfaced to the caller. There is no retry; an interrupted flash can
// leave the device needing manual recovery, so repeating a failed write
// blindly is never safe.
package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Command describes one external tool invocation.
type Command struct {
	Path string
	Args []string
	Dir  string   // working directory; empty means inherit
	Env  []string // appended to the inherited environment

	// RunToCompletion shields the invocation from context cancellation.
	// Killing a tool partway through a device write can leave the device
	// corrupted, so for these commands cancellation is only honored
	// between invocations, never inside one.
	RunToCompletion bool
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Result is the outcome of one invocation.
type Result struct {
	Command    string
	ExitStatus int
	Output     string // combined stdout+stderr
	Elapsed    time.Duration
}

// Runner runs Commands. The pipeline orchestrator holds a Runner so tests
// can substitute one that never touches hardware.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// NewRunner returns a Runner that streams tool output to this process's
// stdout and stderr while capturing it.
func NewRunner() Runner {
	return &execRunner{stdout: os.Stdout, stderr: os.Stderr}
}

type execRunner struct {
	stdout io.Writer
	stderr io.Writer
}

func (r *execRunner) Run(ctx context.Context, c Command) (Result, error) {
	if c.RunToCompletion {
		ctx = context.WithoutCancel(ctx)
	}
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var capture bytes.Buffer
	cmd.Stdout = io.MultiWriter(r.stdout, &capture)
	cmd.Stderr = io.MultiWriter(r.stderr, &capture)

	t0 := time.Now()
	err := cmd.Run()
	res := Result{
		Command: c.String(),
		Output:  capture.String(),
		Elapsed: time.Since(t0),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitStatus = exitErr.ExitCode()
		} else {
			res.ExitStatus = -1
		}
		return res, fmt.Errorf("%s failed: %w", c, err)
	}
	return res, nil
}
