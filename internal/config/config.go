// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package config reads the optional gwsetup.ini defaults file.
//
// The file only provides defaults; command line flags always win. A missing
// file is not an error, the built-in defaults apply.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/ini.v1"
)

// Config are the operator defaults.
type Config struct {
	Adapter string // raw adapter name, validated later
	Device  string // raw variant name, validated later

	Workdir   string
	RomsDir   string
	BackupDir string

	Jobs         int
	Coverflow    bool
	CoverflowSet bool // whether the file overrides the profile's flag
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Workdir: ".",
		Jobs:    runtime.NumCPU(),
	}
}

// Load reads path over the built-in defaults. A nonexistent file yields the
// defaults without error so the tool works with no configuration at all.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot load %s: %w", path, err)
	}

	dev := f.Section("device")
	cfg.Adapter = dev.Key("adapter").String()
	cfg.Device = dev.Key("target").String()

	paths := f.Section("paths")
	if v := paths.Key("workdir").String(); v != "" {
		cfg.Workdir = v
	}
	cfg.RomsDir = paths.Key("roms").String()
	cfg.BackupDir = paths.Key("backups").String()

	build := f.Section("build")
	if v, err := build.Key("jobs").Int(); err == nil && v > 0 {
		cfg.Jobs = v
	}
	if build.HasKey("coverflow") {
		cfg.Coverflow = build.Key("coverflow").MustBool(false)
		cfg.CoverflowSet = true
	}

	return cfg, nil
}
