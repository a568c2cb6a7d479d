// Package rendezvous persists the coordinator's endpoint at a well-known
// path so that workers can discover it without prior configuration.
package rendezvous

import (
	"fmt"

	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/fsteinmetz/runlib/pkg/protocol"
	"github.com/fsteinmetz/runlib/pkg/utils"
	"github.com/spf13/afero"
)

// Default rendezvous file name, relative to the working directory.
const DefaultPath = "server.status"

// Single-writer, multi-reader endpoint store backed by a filesystem.
// Atomic replace semantics guarantee that a reader never observes a
// partially written entry. The store enforces no single-coordinator
// policy; callers decide what an existing entry means.
type Store struct {
	fs   afero.Fs
	path string
}

func NewStore(fs afero.Fs, path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{
		fs:   fs,
		path: path,
	}
}

func (s *Store) Path() string {
	return s.path
}

// Returns true if an entry is currently published.
func (s *Store) Exists() bool {
	ok, _ := afero.Exists(s.fs, s.path)
	return ok
}

// Write the endpoint to the rendezvous path, replacing any stale entry.
// The entry is written to a temporary file and renamed into place.
func (s *Store) Publish(endpoint protocol.Endpoint) error {
	tmp := s.path + ".tmp"

	if err := afero.WriteFile(s.fs, tmp, []byte(endpoint.String()+"\n"), 0644); err != nil {
		return err
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		s.fs.Remove(tmp)
		return err
	}

	log.Info("pub - endpoint -", endpoint.String(), "->", s.path)
	return nil
}

// Read and parse the published endpoint.
func (s *Store) Resolve() (protocol.Endpoint, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return protocol.Endpoint{}, fmt.Errorf("%w: %s: %v", utils.ErrDiscovery, s.path, err)
	}

	endpoint, err := protocol.ParseEndpoint(string(data))
	if err != nil {
		return protocol.Endpoint{}, fmt.Errorf("%w: %s: %v", utils.ErrDiscovery, s.path, err)
	}

	return endpoint, nil
}

// Remove the published entry so that late-starting workers fail
// discovery instead of connecting to a dead coordinator.
func (s *Store) Retract() error {
	if err := s.fs.Remove(s.path); err != nil {
		return err
	}

	log.Info("del - endpoint -", s.path)
	return nil
}
