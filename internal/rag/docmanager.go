package rag

import (
	"fmt"
	"os"
	"path/filepath"
)

// DocumentManager owns the staging directory for one workspace. Uploaded
// files are staged under <root>/<workspace> before ingestion, so tenants
// never share a staging path even when file names collide.
type DocumentManager struct {
	workspace string
	dir       string
}

// NewDocumentManager creates the manager for a workspace. The staging
// directory is provisioned by Init.
func NewDocumentManager(root, workspace string) *DocumentManager {
	return &DocumentManager{
		workspace: workspace,
		dir:       filepath.Join(root, workspace),
	}
}

// Init creates the workspace staging directory.
func (m *DocumentManager) Init() error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create staging dir for %s: %w", m.workspace, err)
	}
	return nil
}

// Dir returns the workspace staging directory.
func (m *DocumentManager) Dir() string {
	return m.dir
}

// Stage writes an uploaded file into the workspace staging directory. The
// name is reduced to its base to keep writes inside the directory.
func (m *DocumentManager) Stage(name string, content []byte) (string, error) {
	path := filepath.Join(m.dir, filepath.Base(name))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("stage file %s: %w", name, err)
	}
	return path, nil
}
