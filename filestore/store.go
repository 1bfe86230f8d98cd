// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package filestore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

const maxExtLen = 16

// Store saves, reads and deletes uploaded files beneath a base URL.
type Store struct {
	fs      afs.Service
	baseURL string
	logger  *slog.Logger
}

// Option is a functional option for configuring a Store.
type Option func(*Store) error

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "filestore")
		return nil
	}
}

// New creates a Store rooted at baseURL. A plain filesystem path is accepted
// and treated as a file:// location.
func New(baseURL string, opts ...Option) (*Store, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if url.Scheme(baseURL, "") == "" {
		baseURL = "file://" + baseURL
	}
	s := &Store{
		fs:      afs.New(),
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  slog.Default().With("component", "filestore"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// BaseURL returns the location files are stored under.
func (s *Store) BaseURL() string {
	return s.baseURL
}

// Save writes data under a fresh name that keeps the extension of
// originalName and returns that name. Extensions that are not plain ASCII
// letters and digits are dropped.
func (s *Store) Save(ctx context.Context, originalName string, data []byte) (string, error) {
	storedName := uuid.NewString() + storedExt(originalName)
	if err := checkName(storedName); err != nil {
		return "", err
	}
	if err := s.fs.Upload(ctx, s.location(storedName), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to save %q: %w", originalName, err)
	}
	s.logger.Debug("saved file", "original_name", originalName, "stored_name", storedName, "size", len(data))
	return storedName, nil
}

// Read returns the contents of a stored file.
func (s *Store) Read(ctx context.Context, storedName string) ([]byte, error) {
	if err := checkName(storedName); err != nil {
		return nil, err
	}
	loc := s.location(storedName)
	exists, err := s.fs.Exists(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", storedName, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, storedName)
	}
	data, err := s.fs.DownloadWithURL(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", storedName, err)
	}
	return data, nil
}

// Delete removes a stored file. Deleting a missing file is not an error.
func (s *Store) Delete(ctx context.Context, storedName string) error {
	if err := checkName(storedName); err != nil {
		return err
	}
	loc := s.location(storedName)
	exists, err := s.fs.Exists(ctx, loc)
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", storedName, err)
	}
	if !exists {
		return nil
	}
	if err := s.fs.Delete(ctx, loc); err != nil {
		return fmt.Errorf("failed to delete %q: %w", storedName, err)
	}
	return nil
}

func (s *Store) location(storedName string) string {
	return url.Join(s.baseURL, storedName)
}

// storedExt returns the lower-cased extension of name, or "" when it holds
// anything but ASCII letters and digits.
func storedExt(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
