// Package device discovers device dump directories.
//
// Dumps for one device live in a directory named "<device>.dev"; every
// non-hidden ".hex" file inside it is one power-cycle capture. Multiple
// device directories sit side by side under a common scan directory.
package device

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/verte-zerg/sramscan/internal/model"
)

const (
	dirSuffix  = ".dev"
	dumpSuffix = ".hex"
)

// Discover scans dir for device directories and their dump files.
func Discover(dir string, memoryBits int) ([]model.DeviceProfile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan directory: %w", err)
	}
	var profiles []model.DeviceProfile
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), dirSuffix) {
			continue
		}
		profile, err := load(dir, strings.TrimSuffix(entry.Name(), dirSuffix), memoryBits)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// Find returns the profile for one named device under dir.
func Find(dir, name string, memoryBits int) (model.DeviceProfile, error) {
	deviceDir := filepath.Join(dir, name+dirSuffix)
	if _, err := os.Stat(deviceDir); err != nil {
		if os.IsNotExist(err) {
			return model.DeviceProfile{}, fmt.Errorf("device %s not found: no directory %s", name, deviceDir)
		}
		return model.DeviceProfile{}, fmt.Errorf("failed to stat device directory: %w", err)
	}
	return load(dir, name, memoryBits)
}

func load(dir, name string, memoryBits int) (model.DeviceProfile, error) {
	deviceDir := filepath.Join(dir, name+dirSuffix)
	entries, err := os.ReadDir(deviceDir)
	if err != nil {
		return model.DeviceProfile{}, fmt.Errorf("failed to read device directory %s: %w", deviceDir, err)
	}
	var dumps []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fname := entry.Name()
		if !strings.HasSuffix(fname, dumpSuffix) || strings.HasPrefix(fname, ".") {
			continue
		}
		dumps = append(dumps, filepath.Join(deviceDir, fname))
	}
	sort.Strings(dumps)
	return model.DeviceProfile{
		Name:       name,
		Dir:        deviceDir,
		MemoryBits: memoryBits,
		DumpPaths:  dumps,
	}, nil
}
