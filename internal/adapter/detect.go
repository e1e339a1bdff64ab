// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package adapter

import "github.com/google/gousb"

const (
	vendorSTMicro gousb.ID = 0x0483 // ST-Link probes
	vendorSegger  gousb.ID = 0x1366 // J-Link probes
)

// Detect scans USB for a known debug probe and returns the matching adapter.
// Best effort only: it reports ok=false when no probe, more than one kind of
// probe, or no usable USB stack is found, and the caller falls back to
// Default. Detection never overrides an adapter the operator named
// explicitly.
func Detect() (Adapter, bool) {
	usb := gousb.NewContext()
	defer usb.Close()

	seen := map[Adapter]bool{}
	// The opener returns false for every descriptor: we only inspect vendor
	// IDs and never claim a device the flash tools are about to use.
	devs, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		switch desc.Vendor {
		case vendorSTMicro:
			seen[STLink] = true
		case vendorSegger:
			seen[JLink] = true
		}
		return false
	})
	for _, d := range devs {
		d.Close()
	}
	if err != nil {
		return "", false
	}

	if len(seen) != 1 {
		return "", false
	}
	for a := range seen {
		return a, true
	}
	return "", false
}
