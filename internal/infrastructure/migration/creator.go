package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	upSuffix     = ".up.sql"
	downSuffix   = ".down.sql"
	versionWidth = 6
)

// File is a created up/down migration pair
type File struct {
	Version  uint
	Name     string
	UpPath   string
	DownPath string
}

// Create writes the next numbered up/down pair into dir
func Create(dir, name string) (*File, error) {
	name = sanitizeName(name)
	if name == "" {
		return nil, fmt.Errorf("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := List(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%0*d_%s", versionWidth, next, name)
	f := &File{
		Version:  next,
		Name:     name,
		UpPath:   filepath.Join(dir, base+upSuffix),
		DownPath: filepath.Join(dir, base+downSuffix),
	}
	if err := os.WriteFile(f.UpPath, []byte("-- "+name+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", f.UpPath, err)
	}
	if err := os.WriteFile(f.DownPath, []byte("-- rollback "+name+"\n"), 0o644); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, fmt.Errorf("failed to write %s: %w", f.DownPath, err)
	}
	return f, nil
}

// Entry is one migration found in a source
type Entry struct {
	Version uint
	Name    string
	HasDown bool
}

// List returns the migrations in fsys ordered by version. Files that do not
// follow the NNNNNN_name.{up,down}.sql layout are ignored.
func List(fsys fs.FS) ([]Entry, error) {
	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	byVersion := map[uint]*Entry{}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		base, down := strings.CutSuffix(f.Name(), downSuffix)
		if !down {
			var up bool
			if base, up = strings.CutSuffix(f.Name(), upSuffix); !up {
				continue
			}
		}
		num, label, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(num, 10, 32)
		if err != nil {
			continue
		}

		e, seen := byVersion[uint(v)]
		if !seen {
			e = &Entry{Version: uint(v), Name: label}
			byVersion[uint(v)] = e
		}
		e.HasDown = e.HasDown || down
	}

	out := make([]Entry, 0, len(byVersion))
	for _, e := range byVersion {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
