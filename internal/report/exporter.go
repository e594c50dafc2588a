package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/macandtoo/backend/internal/config"
	"github.com/macandtoo/backend/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	backupPrefix = "contacts-"
	backupExt    = ".xlsx"
	// Fixed-width UTC stamp so lexical order of backup names is chronological.
	backupStamp = "20060102T150405.000000000Z"
	columnWidth = 20
)

// Exporter owns the canonical contacts workbook, its backups and the
// transient per-submission workbooks. All file access goes through one mutex.
type Exporter struct {
	mu           sync.Mutex
	artifactPath string
	backupDir    string
	tempDir      string
	retain       int
	now          func() time.Time
}

// NewExporter builds an Exporter from the export config.
func NewExporter(cfg *config.ExportConfig) *Exporter {
	retain := cfg.Retain
	if retain < 1 {
		retain = 5
	}
	return &Exporter{
		artifactPath: cfg.ArtifactPath,
		backupDir:    cfg.BackupDir,
		tempDir:      cfg.TempDir,
		retain:       retain,
		now:          time.Now,
	}
}

// ArtifactPath is the canonical workbook location.
func (e *Exporter) ArtifactPath() string { return e.artifactPath }

// UpdateArtifact regenerates the canonical workbook from contacts, which the
// caller passes newest first. An existing workbook is copied to the backup
// directory first. The new file replaces the old one atomically, then backup
// retention runs.
func (e *Exporter) UpdateArtifact(ctx context.Context, contacts []*model.ContactSubmission) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(e.artifactPath), 0o755); err != nil {
		return "", fmt.Errorf("report: mkdir: %w", err)
	}

	if _, err := os.Stat(e.artifactPath); err == nil {
		if err := e.backupLocked(); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("report: stat artifact: %w", err)
	}

	// excelize insists on a workbook extension, so the temp name keeps .xlsx.
	tmp := filepath.Join(filepath.Dir(e.artifactPath), ".tmp-"+uuid.NewString()+backupExt)
	if err := writeWorkbook(tmp, contacts); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, e.artifactPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("report: replace artifact: %w", err)
	}

	if _, err := e.cleanupBackupsLocked(); err != nil {
		slog.Warn("backup cleanup failed", "error", err)
	}
	return e.artifactPath, nil
}

func (e *Exporter) backupLocked() error {
	if err := os.MkdirAll(e.backupDir, 0o755); err != nil {
		return fmt.Errorf("report: mkdir backups: %w", err)
	}
	name := backupPrefix + e.now().UTC().Format(backupStamp) + backupExt
	if err := copyFile(e.artifactPath, filepath.Join(e.backupDir, name)); err != nil {
		return fmt.Errorf("report: backup artifact: %w", err)
	}
	return nil
}

// Buffer returns the current canonical workbook bytes.
func (e *Exporter) Buffer() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, err := os.ReadFile(e.artifactPath)
	if err != nil {
		return nil, fmt.Errorf("report: read artifact: %w", err)
	}
	return b, nil
}

// CleanupBackups keeps the newest retain backups and removes the rest.
func (e *Exporter) CleanupBackups() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cleanupBackupsLocked()
}

func (e *Exporter) cleanupBackupsLocked() (int, error) {
	backups, err := e.listBackupsLocked()
	if err != nil {
		return 0, err
	}
	if len(backups) <= e.retain {
		return 0, nil
	}
	removed := 0
	for _, name := range backups[e.retain:] {
		if err := os.Remove(filepath.Join(e.backupDir, name)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("report: remove backup %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// Backups lists backup file names, newest first.
func (e *Exporter) Backups() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listBackupsLocked()
}

func (e *Exporter) listBackupsLocked() ([]string, error) {
	entries, err := os.ReadDir(e.backupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("report: read backups: %w", err)
	}
	var names []string
	for _, ent := range entries {
		n := ent.Name()
		if !ent.IsDir() && strings.HasPrefix(n, backupPrefix) && strings.HasSuffix(n, backupExt) {
			names = append(names, n)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// WriteSubmission writes a single-row workbook for c into the temp directory
// and returns its path. The caller removes the file when done with it.
func (e *Exporter) WriteSubmission(ctx context.Context, c *model.ContactSubmission) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(e.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("report: mkdir temp: %w", err)
	}
	path := filepath.Join(e.tempDir, fmt.Sprintf("contact-%d-%s.xlsx", c.ID, uuid.NewString()[:8]))
	if err := writeWorkbook(path, []*model.ContactSubmission{c}); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// CleanupTemp removes every file in the temp directory.
func (e *Exporter) CleanupTemp() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries, err := os.ReadDir(e.tempDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("report: read temp: %w", err)
	}
	removed := 0
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(e.tempDir, ent.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("report: remove temp %s: %w", ent.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func writeWorkbook(path string, contacts []*model.ContactSubmission) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("report: sheet name: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("report: header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("report: style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("report: header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Headers))
	if err := f.SetColWidth(SheetName, "A", lastCol, columnWidth); err != nil {
		return fmt.Errorf("report: column width: %w", err)
	}

	for i, c := range contacts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := Row(c)
		row := make([]any, len(values))
		for j, v := range values {
			row[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("report: row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save workbook: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
