package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/models"
)

// File backend keeps the credential in a JSON file readable by the owner only
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

// DefaultFilePath is <user config dir>/bookadmin/credential.json
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "bookadmin", "credential.json")
}

func (f *File) Load(_ context.Context) (models.Credential, error) {
	var c models.Credential

	data, err := os.ReadFile(f.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return c, apperrors.ErrCredentialNotFound
	case err != nil:
		return c, fmt.Errorf("error while reading token file. Err: %w", err)
	}

	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("token file is corrupted. Err: %w", err)
	}
	if c.IsZero() {
		return c, apperrors.ErrCredentialNotFound
	}

	return c, nil
}

// Save writes to a temp file and renames it over the old one, so a reader never sees half a file
func (f *File) Save(_ context.Context, c models.Credential) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("error while creating token dir. Err: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credential-*")
	if err != nil {
		return fmt.Errorf("error while creating temp token file. Err: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error while writing token file. Err: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), f.Path)
}

func (f *File) Delete(_ context.Context) error {
	err := os.Remove(f.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error while removing token file. Err: %w", err)
	}
	return nil
}
