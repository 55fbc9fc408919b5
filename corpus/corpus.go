// Package corpus locates the books of a scanned-book corpus on disk.
//
// A corpus is a directory with one subdirectory per book. Each book holds
// an hOCR file (*_hocr.html, *.hocr or *.hocr.html), its page images
// (in a *_jp2, *_images, *_png or *_tif subdirectory, or next to the hOCR
// file), and optionally a metadata.json with "id", "title" and
// "identifier" fields.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tsawler/piscan/format"
	"github.com/tsawler/piscan/hocr"
	"github.com/tsawler/piscan/model"
)

var (
	// ErrNoHOCR is returned for a book directory without an hOCR file.
	ErrNoHOCR = errors.New("corpus: no hOCR file")

	// ErrImageNotFound is returned when a page image cannot be resolved.
	ErrImageNotFound = errors.New("corpus: page image not found")
)

// MetadataFile is the optional per-book metadata file name.
const MetadataFile = "metadata.json"

var (
	hocrPatterns     = []string{"*_hocr.html", "*.hocr", "*.hocr.html"}
	imageDirPatterns = []string{"*_jp2", "*_images", "*_png", "*_tif"}
)

// BookDir is one book found in the corpus.
type BookDir struct {
	Book     model.Book
	Dir      string   // Book directory
	HOCRPath string   // hOCR file
	ImageDir string   // Directory holding the page images
	Images   []string // Image file names in ImageDir, sorted
}

type metadata struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Identifier string `json:"identifier"`
}

// Scan finds the books under root, sorted by directory name. Book
// directories that cannot be used are reported in the returned errors and
// skipped; a non-nil error as the last result means root itself could not
// be read.
func Scan(root string) ([]BookDir, []error, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("corpus: read %s: %w", root, err)
	}

	var books []BookDir
	var problems []error
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		bd, err := OpenBook(filepath.Join(root, e.Name()))
		if err != nil {
			problems = append(problems, err)
			continue
		}
		books = append(books, bd)
	}
	return books, problems, nil
}

// OpenBook inspects one book directory.
func OpenBook(dir string) (BookDir, error) {
	bd := BookDir{Dir: dir}

	hocrPath, err := firstMatch(dir, hocrPatterns, false)
	if err != nil {
		return bd, err
	}
	if hocrPath == "" {
		return bd, fmt.Errorf("%w in %s", ErrNoHOCR, dir)
	}
	bd.HOCRPath = hocrPath

	imageDir, err := firstMatch(dir, imageDirPatterns, true)
	if err != nil {
		return bd, err
	}
	if imageDir == "" {
		imageDir = dir
	}
	bd.ImageDir = imageDir

	if bd.Images, err = listImages(imageDir); err != nil {
		return bd, err
	}

	bd.Book = model.Book{ID: filepath.Base(dir)}
	if err := readMetadata(filepath.Join(dir, MetadataFile), &bd.Book); err != nil {
		return bd, err
	}
	return bd, nil
}

// firstMatch returns the first path, in pattern then name order, that
// matches one of the patterns and is a directory when wantDir is set.
func firstMatch(dir string, patterns []string, wantDir bool) (string, error) {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", fmt.Errorf("corpus: glob %s: %w", pattern, err)
		}
		slices.Sort(matches)
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				continue
			}
			if info.IsDir() == wantDir {
				return m, nil
			}
		}
	}
	return "", nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus: read %s: %w", dir, err)
	}
	var images []string
	for _, e := range entries {
		if !e.IsDir() && format.IsImage(e.Name()) {
			images = append(images, e.Name())
		}
	}
	slices.Sort(images)
	return images, nil
}

func readMetadata(path string, book *model.Book) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("corpus: read %s: %w", path, err)
	}

	var m metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("corpus: parse %s: %w", path, err)
	}
	if m.ID != "" {
		book.ID = m.ID
	}
	book.Title = m.Title
	book.ArchiveID = m.Identifier
	return nil
}

// ResolveImage returns the image file for a page. It tries, in order, the
// file named by the page's image property, a file with the same stem and
// another image extension, the image at the page's ppageno position, and
// the image at the page's position in the hOCR document.
func (bd BookDir) ResolveImage(page hocr.RawPage, index int) (string, error) {
	if page.Image != "" {
		name := filepath.Base(page.Image)
		if _, ok := slices.BinarySearch(bd.Images, name); ok {
			return filepath.Join(bd.ImageDir, name), nil
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		for _, img := range bd.Images {
			if strings.TrimSuffix(img, filepath.Ext(img)) == stem {
				return filepath.Join(bd.ImageDir, img), nil
			}
		}
	}

	if page.PageNo >= 0 && page.PageNo < len(bd.Images) {
		return filepath.Join(bd.ImageDir, bd.Images[page.PageNo]), nil
	}
	if page.Image == "" && index >= 0 && index < len(bd.Images) {
		return filepath.Join(bd.ImageDir, bd.Images[index]), nil
	}

	return "", fmt.Errorf("%w: %s page %d (%q)", ErrImageNotFound, bd.Book.ID, index, page.Image)
}
