// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package device holds the per-variant flashing parameters.
//
// The numbers in this file are load-bearing. The external flash offset and
// size are only valid as a pair: the dual-boot patch reserves the first part
// of the replacement chip for the patched bootloader and metadata, and
// flashing retro-go with a full-size geometry over a patched device (or the
// other way round) corrupts whichever image owns that region.
package device

import "fmt"

// Variant is a supported hardware model. The set is closed; resolution of
// anything else must fail rather than guess a flash geometry.
type Variant string

const (
	Mario Variant = "mario"
	Zelda Variant = "zelda"
)

// DefaultVariant applies when the operator specifies nothing at all.
const DefaultVariant = Mario

// UnknownVariantError reports a variant name outside the supported set.
type UnknownVariantError struct {
	Name string
}

func (e UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown device variant %q (supported: %s, %s)", e.Name, Mario, Zelda)
}

// ParseVariant validates a raw variant name. Empty input resolves to
// DefaultVariant; this is the only place a variant is ever defaulted.
func ParseVariant(raw string) (Variant, error) {
	switch Variant(raw) {
	case "":
		return DefaultVariant, nil
	case Mario, Zelda:
		return Variant(raw), nil
	default:
		return "", UnknownVariantError{Name: raw}
	}
}

// ProfileKind selects between the two geometries each variant has.
type ProfileKind string

const (
	// KindDefault is the full-size single-boot geometry: the whole
	// replacement chip, image at offset 0.
	KindDefault ProfileKind = "default"
	// KindDualBoot is the geometry after the dual-boot patch: the patched
	// bootloader and metadata occupy the start of the chip, the alternate
	// firmware begins at the variant's offset.
	KindDualBoot ProfileKind = "dual-boot-patched"
)

const (
	mib = 1 << 20

	// physicalCapacity is the replacement SPI flash installed during setup.
	physicalCapacity = 64 * mib

	intFlashBank1Base = 0x08000000
	intFlashBank2Base = 0x08100000
)

// Profile is the resolved parameter set for one variant and geometry.
// It is a value object; copy it freely.
type Profile struct {
	Variant        Variant
	Kind           ProfileKind
	ExtFlashSize   int64 // bytes available to the firmware image
	ExtFlashOffset int64 // bytes from the start of the external chip
	IntFlashBank   int   // internal flash bank holding the bootable image
	Coverflow      bool  // cover art browser feature flag for the build
}

// ExtFlashSizeMB returns the size in MiB, the unit the build tool takes.
func (p Profile) ExtFlashSizeMB() int64 {
	return p.ExtFlashSize / mib
}

// BankAddress returns the internal flash base address of the profile's bank.
func (p Profile) BankAddress() uint32 {
	if p.IntFlashBank == 2 {
		return intFlashBank2Base
	}
	return intFlashBank1Base
}

func (p Profile) String() string {
	return fmt.Sprintf("%s/%s: extflash %dMB at offset %d, intflash bank %d (0x%08X)",
		p.Variant, p.Kind, p.ExtFlashSizeMB(), p.ExtFlashOffset, p.IntFlashBank, p.BankAddress())
}

// registry is the closed per-variant parameter table. Offsets and sizes must
// match the dual-boot patch's layout exactly; they are not tunable.
var registry = map[Variant]map[ProfileKind]Profile{
	Mario: {
		KindDefault: {
			Variant:      Mario,
			Kind:         KindDefault,
			ExtFlashSize: 64 * mib,
			IntFlashBank: 1,
		},
		KindDualBoot: {
			Variant:        Mario,
			Kind:           KindDualBoot,
			ExtFlashSize:   63 * mib,
			ExtFlashOffset: 1048576,
			IntFlashBank:   2,
			Coverflow:      true,
		},
	},
	Zelda: {
		KindDefault: {
			Variant:      Zelda,
			Kind:         KindDefault,
			ExtFlashSize: 64 * mib,
			IntFlashBank: 1,
		},
		KindDualBoot: {
			Variant:        Zelda,
			Kind:           KindDualBoot,
			ExtFlashSize:   60 * mib,
			ExtFlashOffset: 4194304,
			IntFlashBank:   2,
			Coverflow:      true,
		},
	},
}

// Resolve looks up the profile for a variant and geometry. Pure lookup, no
// side effects, no silent defaulting.
func Resolve(variant Variant, kind ProfileKind) (Profile, error) {
	kinds, ok := registry[variant]
	if !ok {
		return Profile{}, UnknownVariantError{Name: string(variant)}
	}
	p, ok := kinds[kind]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile kind %q for variant %s", kind, variant)
	}
	if p.ExtFlashOffset+p.ExtFlashSize > physicalCapacity {
		// Unreachable with the table above; guards future edits.
		return Profile{}, fmt.Errorf("profile %s overflows the %dMB chip", p, physicalCapacity/mib)
	}
	return p, nil
}
