// SPDX-License-Identifier: MPL-2.0
// SPDX-FileCopyrightText: Copyright (c) 2024, Emir Aganovic

package session

import (
	"bufio"
	"os"
	"path"

	"github.com/google/uuid"

	"github.com/roc-go/roc/audio"
)

// flushSize mirrors the teacher's recording buffer size for PCM dumps.
const flushSize = 4096

// RawDumper writes a session's decoded output frames to a uniquely
// named raw L16 file under the OS temp dir, for offline inspection of
// a misbehaving stream. Unlike the teacher's MonitorPCMStereo (which
// interleaves a reader and a writer side into one stereo recording),
// a receiver session has only one side to capture, so this keeps a
// single file instead of a read/write pair.
type RawDumper struct {
	file *os.File
	w    *bufio.Writer
}

// NewRawDumper creates <tmp>/<uuid>_session.raw and returns a dumper
// writing to it.
func NewRawDumper() (*RawDumper, error) {
	name := path.Join(os.TempDir(), uuid.New().String()+"_session.raw")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	return &RawDumper{file: f, w: bufio.NewWriterSize(f, flushSize)}, nil
}

// Write appends fr's samples, L16-encoded, to the dump file.
func (d *RawDumper) Write(fr *audio.Frame) error {
	_, err := d.w.Write(audio.EncodeL16(fr.Samples, fr.Spec.Channels))
	return err
}

// Path returns the dump file's path.
func (d *RawDumper) Path() string { return d.file.Name() }

// Close flushes and closes the dump file.
func (d *RawDumper) Close() error {
	if err := d.w.Flush(); err != nil {
		d.file.Close()
		return err
	}
	return d.file.Close()
}
