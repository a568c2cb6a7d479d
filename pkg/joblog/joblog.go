// Package joblog stores the captured output of executed jobs.
package joblog

import (
	"fmt"
	"io"
	"os"

	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
)

type StashConfig struct {
	// Storage type: "memory" or "disk"
	StorageType string `mapstructure:"storage"`

	// Path to store job logs (for disk storage)
	Path string `mapstructure:"path"`
}

func (c *StashConfig) SetDefaults() {
	if c.StorageType == "" {
		c.StorageType = "memory"
	}
}

// Create the filesystem backing the stash.
func (c *StashConfig) CreateFs() (afero.Fs, error) {
	switch c.StorageType {
	case "disk":
		if c.Path == "" {
			return nil, fmt.Errorf("no path configured for job log disk storage")
		}

		os := afero.NewOsFs()
		if err := os.MkdirAll(c.Path, 0777); err != nil {
			return nil, err
		}

		log.Info("Job logs stored in", c.Path)
		return afero.NewBasePathFs(os, c.Path), nil

	case "", "memory":
		log.Info("Job logs stored in memory")
		return afero.NewMemMapFs(), nil

	default:
		return nil, fmt.Errorf("invalid job log storage type configured: %s", c.StorageType)
	}
}

type Stash interface {
	// Append output for the given job id.
	Append(id string) (io.WriteCloser, error)

	// Read the stored output of the given job id.
	Read(id string) (io.ReadCloser, error)
}

// Filesystem stash. Logs are stored gzip compressed.
type fsStash struct {
	fs afero.Fs
}

func NewStash(fs afero.Fs) Stash {
	return &fsStash{fs: fs}
}

func (s *fsStash) logPath(id string) string {
	return id + ".gz"
}

func (s *fsStash) Append(id string) (io.WriteCloser, error) {
	file, err := s.fs.OpenFile(s.logPath(id), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	log.Debug("add - log - id:", id)

	return &stashWriter{
		file: file,
		gzip: gzip.NewWriter(file),
	}, nil
}

func (s *fsStash) Read(id string) (io.ReadCloser, error) {
	file, err := s.fs.Open(s.logPath(id))
	if err != nil {
		return nil, err
	}

	reader, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	// Gzip members are concatenated when a log is appended to.
	reader.Multistream(true)

	return &stashReader{
		file: file,
		gzip: reader,
	}, nil
}

type stashWriter struct {
	file afero.File
	gzip *gzip.Writer
}

func (w *stashWriter) Write(data []byte) (int, error) {
	return w.gzip.Write(data)
}

func (w *stashWriter) Close() error {
	if err := w.gzip.Close(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

type stashReader struct {
	file afero.File
	gzip *gzip.Reader
}

func (r *stashReader) Read(data []byte) (int, error) {
	return r.gzip.Read(data)
}

func (r *stashReader) Close() error {
	r.gzip.Close()
	return r.file.Close()
}
