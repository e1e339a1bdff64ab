// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestLoadMissingFile(t *testing.T) {
	c := qt.New(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "gwsetup.ini"))
	c.Assert(err, qt.IsNil)
	c.Check(cfg, qt.Equals, Defaults())
}

func TestLoad(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(t.TempDir(), "gwsetup.ini")
	c.Assert(os.WriteFile(path, []byte(`
[device]
adapter = jlink
target  = zelda

[paths]
workdir = /opt/gw
roms    = /opt/gw/roms
backups = /opt/gw/backups

[build]
jobs      = 4
coverflow = false
`), 0644), qt.IsNil)

	cfg, err := Load(path)
	c.Assert(err, qt.IsNil)
	c.Check(cfg, qt.Equals, Config{
		Adapter:      "jlink",
		Device:       "zelda",
		Workdir:      "/opt/gw",
		RomsDir:      "/opt/gw/roms",
		BackupDir:    "/opt/gw/backups",
		Jobs:         4,
		Coverflow:    false,
		CoverflowSet: true,
	})
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(t.TempDir(), "gwsetup.ini")
	c.Assert(os.WriteFile(path, []byte("[device]\nadapter = stlink\n"), 0644), qt.IsNil)

	cfg, err := Load(path)
	c.Assert(err, qt.IsNil)
	c.Check(cfg.Adapter, qt.Equals, "stlink")
	c.Check(cfg.Workdir, qt.Equals, Defaults().Workdir)
	c.Check(cfg.Jobs, qt.Equals, Defaults().Jobs)
	c.Check(cfg.CoverflowSet, qt.IsFalse)
}
