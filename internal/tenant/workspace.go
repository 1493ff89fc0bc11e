package tenant

import "fmt"

// Default is the reserved workspace used when no tenant is resolved:
// unauthenticated requests with anonymous access enabled, or deployments
// with authentication disabled.
const Default = "default"

// maxWorkspaceLen bounds workspace identifiers so they stay usable as
// directory names and key prefixes.
const maxWorkspaceLen = 64

// ParseWorkspace validates a raw workspace identifier. Workspaces are
// case-sensitive tokens restricted to a charset that is safe as a storage
// namespace: lowercase letters, digits, '_' and '-', starting with a letter
// or digit. Uppercase input is rejected, not folded.
func ParseWorkspace(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("workspace must not be empty")
	}
	if len(raw) > maxWorkspaceLen {
		return "", fmt.Errorf("workspace exceeds %d bytes", maxWorkspaceLen)
	}
	for i, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case (r == '_' || r == '-') && i > 0:
		default:
			return "", fmt.Errorf("workspace contains invalid character %q", r)
		}
	}
	return raw, nil
}
