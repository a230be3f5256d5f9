// Package journal keeps a transcript of every message shown during a test
// session, so the host can fetch the results afterwards.
//
// The transcript lives in a LittleFS filesystem. The firmware mounts it on a
// RAM block device, so it starts empty on every boot.
package journal

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/littlefs"
)

const (
	resultsDir  = "/results"
	resultsFile = "/results/session.txt"
	tempSuffix  = ".tmp"

	// DefaultMaxBytes bounds the transcript when New is given no limit.
	DefaultMaxBytes = 8 * 1024
)

var (
	ErrLineTooLong = errors.New("journal line exceeds size limit")
	ErrClosed      = errors.New("journal closed")
)

// Journal is an append-only transcript with a byte budget.
// When an append would exceed the budget the oldest lines are dropped.
type Journal struct {
	fs       *littlefs.LFS
	maxBytes int
	mounted  bool
}

// NewMemory creates a journal on a fresh RAM block device sized for maxBytes.
func NewMemory(maxBytes int) (*Journal, error) {
	// 256 byte pages, 4 KiB blocks. LittleFS needs a few spare blocks for
	// metadata and the temp file used by atomic writes.
	blocks := (maxBytes/4096)*2 + 8
	return New(tinyfs.NewMemoryDevice(256, 4096, blocks), true, maxBytes)
}

// New mounts the filesystem on blockDev. If format is true and mount fails,
// the device is formatted first. Any transcript left on the device is kept.
func New(blockDev tinyfs.BlockDevice, format bool, maxBytes int) (*Journal, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	lfs := littlefs.New(blockDev)
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 128,
	})

	if err := lfs.Mount(); err != nil {
		if !format {
			return nil, err
		}
		if err := lfs.Format(); err != nil {
			return nil, err
		}
		if err := lfs.Mount(); err != nil {
			return nil, err
		}
	}

	j := &Journal{
		fs:       lfs,
		maxBytes: maxBytes,
		mounted:  true,
	}

	if err := j.fs.Mkdir(resultsDir, 0755); err != nil && !isExist(err) {
		lfs.Unmount()
		return nil, err
	}
	// A temp file means the last write never completed; the previous
	// transcript is still intact.
	j.fs.Remove(resultsFile + tempSuffix)

	return j, nil
}

// Close unmounts the filesystem.
func (j *Journal) Close() error {
	if j.mounted {
		j.mounted = false
		return j.fs.Unmount()
	}
	return nil
}

// Append adds one line to the transcript. Newlines inside line are replaced
// by spaces so each message stays on one transcript line.
func (j *Journal) Append(line string) error {
	if !j.mounted {
		return ErrClosed
	}

	line = strings.ReplaceAll(line, "\n", " ")
	if len(line)+1 > j.maxBytes {
		return ErrLineTooLong
	}

	data, err := j.read()
	if err != nil {
		return err
	}

	data = append(data, line...)
	data = append(data, '\n')
	for len(data) > j.maxBytes {
		i := bytes.IndexByte(data, '\n')
		data = data[i+1:]
	}

	return j.atomicWrite(resultsFile, data)
}

// Lines returns the transcript, oldest line first.
func (j *Journal) Lines() ([]string, error) {
	if !j.mounted {
		return nil, ErrClosed
	}
	data, err := j.read()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []string{}, nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"), nil
}

// Text returns the raw transcript, one message per line.
func (j *Journal) Text() ([]byte, error) {
	if !j.mounted {
		return nil, ErrClosed
	}
	return j.read()
}

// read returns the whole transcript, or nothing if it does not exist yet.
func (j *Journal) read() ([]byte, error) {
	f, err := j.fs.Open(resultsFile)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	return readAll(f)
}

// readAll reads r until io.EOF and returns any other read error.
func readAll(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 256)
	for {
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return buf.Bytes(), nil
		}
	}
}

// atomicWrite writes data to a temporary file, syncs it, then renames.
// The transcript is never left partially written.
func (j *Journal) atomicWrite(filepath string, data []byte) error {
	tempPath := filepath + tempSuffix

	j.fs.Remove(tempPath)

	f, err := j.fs.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		j.fs.Remove(tempPath)
		return err
	}

	if syncer, ok := f.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			f.Close()
			j.fs.Remove(tempPath)
			return err
		}
	}

	if err := f.Close(); err != nil {
		j.fs.Remove(tempPath)
		return err
	}

	// LittleFS rename does not replace an existing file.
	j.fs.Remove(filepath)

	if err := j.fs.Rename(tempPath, filepath); err != nil {
		j.fs.Remove(tempPath)
		return err
	}

	return nil
}

// isExist checks for "already exists". LittleFS errors don't always match
// os.IsExist, so the message is checked too.
func isExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "already exists")
}

func isNotExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsNotExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "No directory entry")
}
