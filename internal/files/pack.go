// Package files selects local source files and packs them for upload.
package files

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeromicro/go-zero/core/logx"
)

// MaxFileSize is the largest file Pack includes. Bigger files are skipped.
const MaxFileSize = 1 << 20

// ErrNoSources is returned when a directory holds nothing worth uploading.
var ErrNoSources = errors.New("no source files found")

// Pack walks root and writes every included file into a zip archive.
// Entry names are slash separated and relative to root.
func Pack(root string, w io.Writer) (int, error) {
	zw := zip.NewWriter(w)
	count := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if rel != "." && ShouldIgnore(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !Include(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > MaxFileSize {
			logx.Infof("skipping %s: %d bytes", rel, info.Size())
			return nil
		}
		if err := addFile(zw, path, filepath.ToSlash(rel)); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("pack %s: %w", root, err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("pack %s: %w", root, err)
	}
	if count == 0 {
		return 0, ErrNoSources
	}
	return count, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entry, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, f)
	return err
}

// Archive returns a reader over the zip for src. A directory is packed, any
// other path is opened as an existing archive.
func Archive(src string) (io.ReadCloser, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return os.Open(src)
	}

	var buf bytes.Buffer
	n, err := Pack(src, &buf)
	if err != nil {
		return nil, err
	}
	logx.Debugf("packed %d files from %s (%d bytes)", n, src, buf.Len())
	return io.NopCloser(&buf), nil
}
