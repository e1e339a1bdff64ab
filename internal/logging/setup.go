// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// timingWriter prefixes every log line with the seconds elapsed since t0,
// so operator output can be correlated with how long a flash has been running.
type timingWriter struct {
	out io.Writer
	t0  time.Time
}

var _ io.Writer = timingWriter{}

func (w timingWriter) Write(b []byte) (int, error) {
	return fmt.Fprintf(w.out, "%6.2fs %s", time.Since(w.t0).Seconds(), string(b))
}

// SetUp routes the standard logger through an elapsed-time writer on stderr.
func SetUp(t0 time.Time) {
	SetUpWithOutput(os.Stderr, t0)
}

// SetUpWithOutput is SetUp with a caller-chosen sink, for tests.
func SetUpWithOutput(out io.Writer, t0 time.Time) {
	log.SetFlags(0)
	log.SetOutput(timingWriter{out: out, t0: t0})
}
