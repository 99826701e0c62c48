// Package identifiers reads the product identifiers bundled with the application.
package identifiers

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"howett.net/plist"
)

const (
	ResourceName      = "ProductIds"
	ResourceExtension = "plist"
)

// DefaultPath is the resource file name looked up when no path is configured.
var DefaultPath = ResourceName + "." + ResourceExtension

var (
	ErrResourceNotFound = errors.New("product identifiers resource not found")
	ErrEmptyResource    = errors.New("product identifiers resource is empty")
)

// Load reads an ordered array of product identifiers from a property list (XML or binary).
// Blank entries are skipped and duplicates keep their first position.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes plist data holding an array of strings.
func Parse(data []byte) ([]string, error) {
	var raw []string
	if _, err := plist.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode product identifiers: %w", err)
	}

	ids := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, ErrEmptyResource
	}
	return ids, nil
}
