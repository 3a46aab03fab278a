package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// dailyFile is an io.Writer over <dir>/<name> that archives the active file as
// <base>-<date><ext> on the first write of a new day and prunes archives older
// than the retention window.
type dailyFile struct {
	dir       string
	name      string
	retention int
	now       func() time.Time

	mu   sync.Mutex
	file *os.File
	day  string
}

func openDailyFile(dir, name string, retention int) (*dailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	d := &dailyFile{
		dir:       dir,
		name:      name,
		retention: retention,
		now:       time.Now,
	}
	if err := d.open(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *dailyFile) open() error {
	file, err := os.OpenFile(filepath.Join(d.dir, d.name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	d.file = file
	d.day = d.now().Format(dateLayout)
	return nil
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return 0, os.ErrClosed
	}
	if today := d.now().Format(dateLayout); today != d.day {
		if err := d.rotate(); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

// rotate must be called with mu held.
func (d *dailyFile) rotate() error {
	previous := d.day
	_ = d.file.Close()

	base, ext := d.split()
	active := filepath.Join(d.dir, d.name)
	archived := filepath.Join(d.dir, fmt.Sprintf("%s-%s%s", base, previous, ext))
	if _, err := os.Stat(active); err == nil {
		// a failed rename keeps appending to the old file rather than losing output
		_ = os.Rename(active, archived)
	}

	if err := d.open(); err != nil {
		d.file = nil
		return err
	}
	d.prune()
	return nil
}

func (d *dailyFile) split() (string, string) {
	ext := filepath.Ext(d.name)
	return strings.TrimSuffix(d.name, ext), ext
}

func (d *dailyFile) prune() {
	if d.retention <= 0 {
		return
	}
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return
	}

	base, ext := d.split()
	cutoff := d.now().AddDate(0, 0, -d.retention)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, base+"-") || !strings.HasSuffix(name, ext) {
			continue
		}
		day, err := time.Parse(dateLayout, strings.TrimSuffix(strings.TrimPrefix(name, base+"-"), ext))
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			_ = os.Remove(filepath.Join(d.dir, name))
		}
	}
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
