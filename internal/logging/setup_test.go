// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package logging

import (
	"bytes"
	"log"
	"regexp"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestTimingWriter(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	SetUpWithOutput(&buf, time.Now())
	defer SetUp(time.Now())

	log.Println("hello")
	c.Assert(buf.String(), qt.Matches, regexp.MustCompile(`\s*\d+\.\d\ds hello\n`).String())
}
