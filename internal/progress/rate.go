// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package progress

import "time"

type record struct {
	value float64
	at    time.Time
}

// estimator computes the average growth per second of a monotonically
// increasing value over a sliding window of observations.
type estimator struct {
	records []record
	next    int
	full    bool
}

func newEstimator(window int) *estimator {
	return &estimator{records: make([]record, window)}
}

// add records a new observation and returns the growth per second between
// the oldest retained observation and this one.
func (e *estimator) add(value float64) float64 {
	back := record{value: value, at: time.Now()}

	front := e.records[e.next]
	if !e.full {
		front = e.records[0]
		if e.next == 0 {
			front = back
		}
	}

	e.records[e.next] = back
	e.next++
	if e.next == len(e.records) {
		e.next = 0
		e.full = true
	}

	t := back.at.Sub(front.at).Seconds()
	if t == 0 {
		return 0
	}
	return (back.value - front.value) / t
}
