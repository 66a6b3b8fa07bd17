package catalog

import (
	"archive/zip"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"time"
)

// zoneinfoDirs are the usual homes of the host tz database.
var zoneinfoDirs = []string{
	"/usr/share/zoneinfo",
	"/usr/lib/zoneinfo",
	"/usr/share/lib/zoneinfo",
	"/etc/zoneinfo",
}

// ListAllTimezoneIDs returns every identifier the host recognizes, sorted.
// When the host cannot be enumerated the fixed IANA snapshot is returned.
func ListAllTimezoneIDs() []string {
	if ids := HostTimezoneIDs(); len(ids) > 0 {
		return ids
	}
	return FallbackTimezoneIDs()
}

// HostTimezoneIDs enumerates $ZONEINFO (directory or zip) and then the
// standard zoneinfo directories, stopping at the first source that yields
// loadable zones.
func HostTimezoneIDs() []string {
	var sources []string
	if z := os.Getenv("ZONEINFO"); z != "" {
		sources = append(sources, z)
	}
	sources = append(sources, zoneinfoDirs...)

	for _, src := range sources {
		if ids := loadableZones(zoneNames(src)); len(ids) > 0 {
			return ids
		}
	}
	return nil
}

// zoneNames lists candidate identifiers under src without validating them.
func zoneNames(src string) []string {
	info, err := os.Stat(src)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		if strings.HasSuffix(src, ".zip") {
			return zipZoneNames(src)
		}
		return nil
	}

	var names []string
	walkErr := fs.WalkDir(os.DirFS(src), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if d.IsDir() {
			if p == "posix" || p == "right" {
				return fs.SkipDir
			}
			return nil
		}
		names = append(names, p)
		return nil
	})
	if walkErr != nil {
		return nil
	}
	return names
}

func zipZoneNames(src string) []string {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil
	}
	defer r.Close() //nolint:errcheck // read-only

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	return names
}

// loadableZones keeps the names time.LoadLocation accepts, deduplicated and sorted.
func loadableZones(names []string) []string {
	seen := make(map[string]bool, len(names))
	var ids []string
	for _, name := range names {
		if seen[name] || !plausibleZoneName(name) {
			continue
		}
		seen[name] = true
		if _, err := time.LoadLocation(name); err == nil {
			ids = append(ids, name)
		}
	}
	slices.Sort(ids)
	return ids
}

// plausibleZoneName filters out tables, leap-second files and aliases that
// are not user-selectable zones. IANA names always start with a capital.
func plausibleZoneName(name string) bool {
	if name == "" || name[0] < 'A' || name[0] > 'Z' {
		return false
	}
	switch name {
	case "Factory", "SECURITY":
		return false
	}
	return path.Ext(name) == ""
}
