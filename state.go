package cfddns

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AddressPair holds the last-known addresses of both families.
// An empty field means "not known"; absence of IPv6 is a normal state.
type AddressPair struct {
	IPv4 string
	IPv6 string
}

// StateFile persists an AddressPair as a two-line text file:
// line 1 is the IPv4 address, line 2 the IPv6 address (possibly empty).
type StateFile struct {
	Path string
}

// Read returns the previously stored pair.
// A missing file, a short file, or any read error all behave the same way:
// the affected fields come back empty and the run proceeds as a first run.
func (s StateFile) Read() AddressPair {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return AddressPair{}
	}
	lines := strings.Split(string(data), "\n")
	pair := AddressPair{}
	if len(lines) > 0 {
		pair.IPv4 = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		pair.IPv6 = strings.TrimSpace(lines[1])
	}
	return pair
}

// Write overwrites the state file with exactly two lines.
// The parent directory is created on first use.
func (s StateFile) Write(pair AddressPair) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("error creating state directory: %w", err)
		}
	}
	content := fmt.Sprintf("%s\n%s\n", pair.IPv4, pair.IPv6)
	if err := os.WriteFile(s.Path, []byte(content), 0600); err != nil {
		return fmt.Errorf("error writing state file %s: %w", s.Path, err)
	}
	return nil
}
