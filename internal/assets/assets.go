// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package assets copies user-supplied ROMs and firmware backups into the
// directory layout the downstream tool repositories expect.
//
// Placement is idempotent: re-running overwrites earlier placements, so an
// aborted workflow can simply be started again. A missing asset is fatal
// only when the selected workflow strictly requires it; otherwise it is a
// warning, because most workflows can run without, say, any ROMs at all.
package assets

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gnw-tools/gwsetup/internal/device"
	"github.com/gnw-tools/gwsetup/internal/progress"
)

// Kind names a category of user-supplied asset.
type Kind string

const (
	KindExternalBackup Kind = "external-flash-backup"
	KindInternalBackup Kind = "internal-flash-backup"
	KindRoms           Kind = "roms"
)

// MissingAssetError reports a strictly required asset that is not available.
type MissingAssetError struct {
	Kind Kind
	Path string // where it was looked for; empty if no source dir was given
}

func (e MissingAssetError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("no source directory provided for required asset %s", e.Kind)
	}
	return fmt.Sprintf("required asset %s not found at %s", e.Kind, e.Path)
}

// Sources are the operator-provided asset directories. Either may be empty.
type Sources struct {
	RomsDir   string
	BackupDir string
}

// Layout maps the working directory to the tool repositories inside it.
type Layout struct {
	Workdir string
}

func (l Layout) BackupRepo() string {
	return filepath.Join(l.Workdir, "game-and-watch-backup")
}

func (l Layout) PatchRepo() string {
	return filepath.Join(l.Workdir, "game-and-watch-patch")
}

func (l Layout) RetroGoRepo() string {
	return filepath.Join(l.Workdir, "retro-go")
}

// BackupsDir is where the backup scripts read and write firmware dumps.
func (l Layout) BackupsDir() string {
	return filepath.Join(l.BackupRepo(), "backups")
}

// ExternalBackupName is the file name the tools use for a variant's external
// flash dump.
func ExternalBackupName(v device.Variant) string {
	return fmt.Sprintf("flash_backup_%s.bin", v)
}

// InternalBackupName is the file name the tools use for a variant's internal
// flash dump.
func InternalBackupName(v device.Variant) string {
	return fmt.Sprintf("internal_flash_backup_%s.bin", v)
}

// systemFolders routes ROM file extensions to retro-go's roms/<system>
// directories.
var systemFolders = map[string]string{
	"gb":  "gb",
	"gbc": "gb",
	"nes": "nes",
	"fds": "nes",
	"nsf": "nes",
	"sms": "sms",
	"gg":  "gg",
	"col": "col",
	"sg":  "sg",
	"pce": "pce",
	"md":  "md",
	"gen": "md",
	"gw":  "gw",
	"msx": "msx",
	"mx1": "msx",
	"mx2": "msx",
	"sv":  "wsv",
	"a78": "a7800",
}

// Place copies the assets for profile's variant into layout. Kinds listed in
// strict must be available or Place fails before any stage runs; all other
// missing assets only produce warnings. Returns the destination paths
// written, in placement order.
func Place(profile device.Profile, layout Layout, src Sources, strict []Kind) ([]string, error) {
	need := make(map[Kind]bool, len(strict))
	for _, k := range strict {
		need[k] = true
	}

	var placed []string

	place := func(kind Kind, name string, dests ...string) error {
		if src.BackupDir == "" {
			if need[kind] {
				return MissingAssetError{Kind: kind}
			}
			return nil
		}
		from := filepath.Join(src.BackupDir, name)
		if _, err := os.Stat(from); err != nil {
			if need[kind] {
				return MissingAssetError{Kind: kind, Path: from}
			}
			log.Printf("optional asset %s not found at %s, continuing", kind, from)
			return nil
		}
		for _, to := range dests {
			if err := copyFile(to, from); err != nil {
				return err
			}
			placed = append(placed, to)
		}
		return nil
	}

	// Backups feed both the restore scripts and the dual-boot patch build,
	// keyed by variant so a mario dump can never land in a zelda build.
	extName := ExternalBackupName(profile.Variant)
	if err := place(KindExternalBackup, extName,
		filepath.Join(layout.BackupsDir(), extName)); err != nil {
		return placed, err
	}
	intName := InternalBackupName(profile.Variant)
	if err := place(KindInternalBackup, intName,
		filepath.Join(layout.BackupsDir(), intName),
		filepath.Join(layout.PatchRepo(), intName)); err != nil {
		return placed, err
	}

	romPaths, err := placeRoms(layout, src, need[KindRoms])
	if err != nil {
		return placed, err
	}
	placed = append(placed, romPaths...)

	return placed, nil
}

func placeRoms(layout Layout, src Sources, required bool) ([]string, error) {
	if src.RomsDir == "" {
		if required {
			return nil, MissingAssetError{Kind: KindRoms}
		}
		return nil, nil
	}

	entries, err := os.ReadDir(src.RomsDir)
	if err != nil {
		if required {
			return nil, MissingAssetError{Kind: KindRoms, Path: src.RomsDir}
		}
		log.Printf("cannot read ROM directory %s, continuing: %v", src.RomsDir, err)
		return nil, nil
	}

	var placed []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name()), "."))
		folder, ok := systemFolders[ext]
		if !ok {
			log.Printf("skipping %s: no emulated system takes .%s files", e.Name(), ext)
			continue
		}
		to := filepath.Join(layout.RetroGoRepo(), "roms", folder, e.Name())
		if err := copyFile(to, filepath.Join(src.RomsDir, e.Name())); err != nil {
			return placed, err
		}
		placed = append(placed, to)
	}
	if required && len(placed) == 0 {
		return placed, MissingAssetError{Kind: KindRoms, Path: src.RomsDir}
	}
	return placed, nil
}

// copyChunked copies r to w in fixed-size chunks.
func copyChunked(w io.Writer, r io.Reader, buf []byte) (written int64, err error) {
	for {
		n, err := io.ReadFull(r, buf)
		if err != nil && err != io.ErrUnexpectedEOF {
			if err == io.EOF {
				break
			}
			return written, err
		}
		if m, err := w.Write(buf[:n]); err != nil {
			return written, err
		} else {
			written += int64(m)
		}
	}
	return written, nil
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", dst, err)
	}

	pw := progress.NewWriter(filepath.Base(dst), info.Size())
	defer pw.Close()

	if _, err := copyChunked(out, io.TeeReader(in, pw), make([]byte, 1<<20)); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s failed: %w", dst, err)
	}
	return out.Close()
}
