// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package progress logs throughput of sequential file copies.
// Asset placement moves multi-megabyte firmware backups around; a line per
// second with percentage and rate is enough feedback for that.
package progress

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

const rateWindow = 5

// formatUnit optionally formats n with a size (K, M, G, T) suffix.
func formatUnit(n float64) string {
	var unit string
	for _, unit = range []string{"", "K", "M", "G", "T"} {
		if n < 1000 {
			break
		}
		n /= 1000
	}
	return strings.TrimRight(fmt.Sprintf("%#.3g", n), ".") + unit
}

// formatSize formats n out of total, collapsing to a single figure when done.
func formatSize(n, total int64) string {
	if n == total {
		return formatUnit(float64(n)) + "B"
	}
	return fmt.Sprintf("%sB/%sB", formatUnit(float64(n)), formatUnit(float64(total)))
}

// Writer counts bytes written through it and logs progress at most once per
// second. Close logs the final line.
type Writer struct {
	name       string
	n          int64
	total      int64
	lastUpdate time.Time
	rate       *estimator
}

var _ io.WriteCloser = &Writer{}

// NewWriter creates a Writer for a copy of total bytes named name in the log.
func NewWriter(name string, total int64) *Writer {
	return &Writer{
		name:  name,
		total: total,
		rate:  newEstimator(rateWindow),
	}
}

func (w *Writer) Write(b []byte) (int, error) {
	w.n += int64(len(b))

	now := time.Now()
	if now.Sub(w.lastUpdate) > time.Second {
		w.log()
		w.lastUpdate = now
	}

	return len(b), nil
}

func (w *Writer) log() {
	total := w.total
	if total == 0 {
		total = 1 // prevent div by zero
	}
	log.Printf(
		"[%s]  %5.1f%%  %sbps  %s",
		w.name,
		100*float64(w.n)/float64(total),
		formatUnit(w.rate.add(float64(w.n*8))),
		formatSize(w.n, w.total),
	)
}

func (w *Writer) Close() error {
	w.log()
	return nil
}
