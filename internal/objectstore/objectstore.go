// Package objectstore provides a minimal filesystem-backed store for
// evidence-pack artifacts, addressed by either a caller-chosen name or a
// generated UUID.
package objectstore

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	apperrors "github.com/agentic-radar/radar/pkg/errors"
)

// ObjectStore persists files and JSON payloads under a content root.
type ObjectStore interface {
	PutFile(source, destinationName string) (string, error)
	PutJSON(payload interface{}, destinationName string) (string, error)
}

// LocalObjectStore stores objects as plain files under Root.
type LocalObjectStore struct {
	Root string
}

// NewLocalObjectStore creates (if needed) root and returns a store
// rooted there.
func NewLocalObjectStore(root string) (*LocalObjectStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, apperrors.NewObjectStoreError("failed to create object store root: " + err.Error())
	}
	return &LocalObjectStore{Root: root}, nil
}

// PutFile copies source into the store under destinationName (or the
// source's own base name when empty), returning the stored path.
func (s *LocalObjectStore) PutFile(source, destinationName string) (string, error) {
	if _, err := os.Stat(source); err != nil {
		return "", apperrors.NewObjectStoreError("source file '" + source + "' does not exist")
	}
	if destinationName == "" {
		destinationName = filepath.Base(source)
	}
	destination := filepath.Join(s.Root, destinationName)
	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return "", apperrors.NewObjectStoreError("failed to create destination directory: " + err.Error())
	}
	if err := copyFile(source, destination); err != nil {
		return "", apperrors.NewObjectStoreError("failed to copy '" + source + "' to store: " + err.Error())
	}
	return destination, nil
}

// PutJSON marshals payload as indented JSON and writes it under
// destinationName (or a generated UUID filename when empty).
func (s *LocalObjectStore) PutJSON(payload interface{}, destinationName string) (string, error) {
	if destinationName == "" {
		destinationName = uuid.New().String() + ".json"
	}
	destination := filepath.Join(s.Root, destinationName)
	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return "", apperrors.NewObjectStoreError("failed to create destination directory: " + err.Error())
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", apperrors.NewObjectStoreError("failed to marshal payload: " + err.Error())
	}
	if err := os.WriteFile(destination, raw, 0644); err != nil {
		return "", apperrors.NewObjectStoreError("failed to write payload: " + err.Error())
	}
	return destination, nil
}

// copyFile performs an atomic-enough copy: write to a temp file in the
// destination directory, then rename over the final path.
func copyFile(source, destination string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(destination), ".objectstore-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if info, err := os.Stat(source); err == nil {
		_ = os.Chmod(tmpPath, info.Mode())
	}
	return os.Rename(tmpPath, destination)
}
