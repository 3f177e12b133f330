package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ImageFile represents an image file found in a directory.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Name is the file name without its directory.
	Name string
	// Frame is the frame number parsed from a "frame-N" name, or -1.
	Frame int
}

// IsImageExt reports whether ext is an extension the pipeline can decode.
func IsImageExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff":
		return true
	default:
		return false
	}
}

// ListDirectoryImageFiles lists the image files in a directory without reading them.
//
// Files named "frame-N.ext" are ordered by N; all others follow in name order.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: The image files in processing order.
// - error: Error if the directory cannot be read.
func ListDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := filepath.Ext(name)
		if !IsImageExt(ext) {
			continue
		}

		frame := -1
		if rest, ok := strings.CutPrefix(strings.TrimSuffix(name, ext), "frame-"); ok {
			if n, err := strconv.Atoi(rest); err == nil {
				frame = n
			}
		}

		files = append(files, ImageFile{
			Path:  filepath.Join(dir, name),
			Name:  name,
			Frame: frame,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		switch {
		case a.Frame >= 0 && b.Frame >= 0:
			return a.Frame < b.Frame
		case a.Frame >= 0 || b.Frame >= 0:
			return a.Frame >= 0
		default:
			return a.Name < b.Name
		}
	})

	return files, nil
}
