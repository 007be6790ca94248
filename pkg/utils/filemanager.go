// =============================================================================
// Party Ledger Builder - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the ledger workbook:
//   - Directory management
//   - Archival of the previous workbook before it is overwritten
//   - Retention of a bounded number of archives
//   - File naming utilities
//
// ARCHIVAL STRATEGY:
//   - The workbook is copied, not moved, so a failed save leaves the previous
//     version in place.
//   - Archive names carry a timestamp and a short UUID so two refreshes in
//     the same second never collide.
//   - After archiving, the oldest archives beyond the retention count are
//     removed.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager archives the ledger workbook.
type FileManager struct {
	// ArchiveDir is the directory for archived workbooks. Empty disables
	// archiving.
	ArchiveDir string

	// Retention is the number of archives kept per workbook. Zero keeps all.
	Retention int

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2024/04/15/ledgers_20240415_101500_1a2b3c4d.xlsx
	UseTimestampSubdirs bool

	// Now is the clock used for archive names.
	Now func() time.Time
}

// NewFileManager creates a FileManager writing archives to archiveDir.
func NewFileManager(archiveDir string, retention int) *FileManager {
	return &FileManager{
		ArchiveDir: archiveDir,
		Retention:  retention,
		Now:        time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates dir and its parents if they don't exist.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	return EnsureDir(filepath.Dir(path))
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveFile copies filePath into the archive directory.
//
// PARAMETERS:
//   - filePath: The workbook about to be overwritten.
//
// RETURNS:
//   - The path to the archived copy, or "" when there was nothing to archive
//     (archiving disabled or the file does not exist yet).
//   - An error if archival fails.
func (fm *FileManager) ArchiveFile(filePath string) (string, error) {
	if fm.ArchiveDir == "" || !FileExists(filePath) {
		return "", nil
	}

	archivePath := fm.getArchivePath(filePath)
	if err := EnsureParentDir(archivePath); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}
	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath string) string {
	now := fm.now()
	name := GenerateArchiveName(filepath.Base(filePath), now)

	if fm.UseTimestampSubdirs {
		subDir := filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
		return filepath.Join(subDir, name)
	}
	return filepath.Join(fm.ArchiveDir, name)
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// GenerateArchiveName stamps a file name with the time and a short UUID.
//
// EXAMPLE:
//
//	ledgers.xlsx -> ledgers_20240415_101500_1a2b3c4d.xlsx
func GenerateArchiveName(fileName string, at time.Time) string {
	ext := filepath.Ext(fileName)
	stem := strings.TrimSuffix(fileName, ext)
	short := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return fmt.Sprintf("%s_%s_%s%s", stem, at.Format("20060102_150405"), short, ext)
}

// =============================================================================
// RETENTION
// =============================================================================

// CleanOldArchives keeps the newest Retention archives of fileName and
// removes the rest.
//
// RETURNS:
//   - The number of archives removed.
func (fm *FileManager) CleanOldArchives(fileName string) (int, error) {
	if fm.ArchiveDir == "" || fm.Retention <= 0 {
		return 0, nil
	}

	ext := filepath.Ext(fileName)
	stem := strings.TrimSuffix(filepath.Base(fileName), ext)

	type archived struct {
		path    string
		modTime time.Time
	}
	var found []archived

	err := filepath.Walk(fm.ArchiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		base := info.Name()
		if info.IsDir() || !strings.HasPrefix(base, stem+"_") || filepath.Ext(base) != ext {
			return nil
		}
		found = append(found, archived{path: path, modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan archive directory: %w", err)
	}

	if len(found) <= fm.Retention {
		return 0, nil
	}

	// Newest first; names embed the timestamp, so they break mod time ties.
	sort.Slice(found, func(i, j int) bool {
		if !found[i].modTime.Equal(found[j].modTime) {
			return found[i].modTime.After(found[j].modTime)
		}
		return filepath.Base(found[i].path) > filepath.Base(found[j].path)
	})

	removed := 0
	for _, a := range found[fm.Retention:] {
		if err := os.Remove(a.path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", a.path, err)
		}
		removed++
	}
	return removed, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	return dstFile.Close()
}

// FileExists checks if a regular file exists at path.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// TempPath returns a sibling path of target for atomic writes, keeping the
// extension so format detection by name still works.
func TempPath(target string) string {
	ext := filepath.Ext(target)
	return strings.TrimSuffix(target, ext) + ".tmp-" + strings.SplitN(uuid.New().String(), "-", 2)[0] + ext
}
