package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/newthinker/klineprompt/internal/core"
	"go.uber.org/zap"
)

// Mirror copies locally written dataset files to a cold store. The local
// file stays the source of truth: a failed copy is logged and reported but
// never undoes the local write.
type Mirror struct {
	store  Storage
	root   string
	logger *zap.Logger
	// OnResult, when set, is told whether each copy succeeded.
	OnResult func(ok bool)
}

// NewMirror creates a mirror that keys objects by their path relative to root.
// A nil store yields a mirror that does nothing.
func NewMirror(store Storage, root string, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	if root == "" {
		root = "."
	}
	return &Mirror{store: store, root: root, logger: logger}
}

// Enabled reports whether a backend is configured.
func (m *Mirror) Enabled() bool {
	return m != nil && m.store != nil
}

// Key returns the object key for a local path.
func (m *Mirror) Key(localPath string) string {
	rel, err := filepath.Rel(m.root, localPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = strings.TrimLeft(filepath.Clean(localPath), `/\`)
		rel = strings.TrimPrefix(rel, filepath.VolumeName(rel))
	}
	return filepath.ToSlash(rel)
}

// Copy uploads the file at localPath. It is a no-op when the mirror is
// disabled.
func (m *Mirror) Copy(ctx context.Context, localPath string) error {
	if !m.Enabled() {
		return nil
	}
	key := m.Key(localPath)
	err := m.copy(ctx, localPath, key)
	if m.OnResult != nil {
		m.OnResult(err == nil)
	}
	if err != nil {
		m.logger.Warn("archive mirror failed",
			zap.String("path", localPath),
			zap.String("key", key),
			zap.Error(err))
		return err
	}
	m.logger.Debug("archived", zap.String("path", localPath), zap.String("key", key))
	return nil
}

func (m *Mirror) copy(ctx context.Context, localPath, key string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return core.WrapError(core.ErrArchiveFailed, fmt.Errorf("reading %s: %w", localPath, err))
	}
	if err := m.store.Write(ctx, key, data); err != nil {
		return core.WrapError(core.ErrArchiveFailed, fmt.Errorf("writing %s: %w", key, err))
	}
	return nil
}
