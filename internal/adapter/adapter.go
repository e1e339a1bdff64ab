// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package adapter identifies the debug probe wired to the device.
package adapter

import "fmt"

// Adapter is a supported debug probe.
type Adapter string

const (
	STLink Adapter = "stlink"
	JLink  Adapter = "jlink"
)

// Default applies when nothing is specified and no probe is detected.
const Default = STLink

// UnsupportedError reports a probe name outside the supported set.
type UnsupportedError struct {
	Name string
}

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported adapter %q (supported: %s, %s)", e.Name, STLink, JLink)
}

// Resolve validates a raw adapter name. Empty input resolves to Default.
// The result is interpolated into external command lines, so anything
// outside the closed set is rejected here, before any command is built.
func Resolve(raw string) (Adapter, error) {
	switch Adapter(raw) {
	case "":
		return Default, nil
	case STLink, JLink:
		return Adapter(raw), nil
	default:
		return "", UnsupportedError{Name: raw}
	}
}
