package internal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCategoryName      = errors.New("invalid category name")
	ErrCategoryDuplicate = errors.New("duplicate category name")
	ErrCategoryExtension = errors.New("invalid category extension")
)

const (
	CategoryAudio     = "Audio"
	CategoryDocuments = "Documents"
	CategoryImages    = "Images"
	CategoryVideo     = "Video"
)

type Category struct {
	Name       string
	Extensions []string
}

// CategoryTable maps extensions to category names. It is built once and never
// mutated afterwards; lookups are exact and case-sensitive, and the first
// declared category wins when two of them share an extension.
type CategoryTable struct {
	categories []Category
	index      map[string]string
}

func NewCategoryTable(categories ...Category) (CategoryTable, error) {
	t := CategoryTable{
		categories: make([]Category, 0, len(categories)),
		index:      make(map[string]string),
	}

	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if c.Name == "" || c.Name == "." || c.Name == ".." || strings.ContainsAny(c.Name, `/\`) {
			return CategoryTable{}, errors.Join(ErrCategoryName, fmt.Errorf("%q", c.Name))
		}
		if _, ok := seen[c.Name]; ok {
			return CategoryTable{}, errors.Join(ErrCategoryDuplicate, fmt.Errorf("%q", c.Name))
		}
		seen[c.Name] = struct{}{}

		exts := make([]string, 0, len(c.Extensions))
		for _, ext := range c.Extensions {
			if ext == "" || strings.ContainsAny(ext, `./\`) {
				return CategoryTable{}, errors.Join(ErrCategoryExtension, fmt.Errorf("category %s: %q", c.Name, ext))
			}
			if _, taken := t.index[ext]; !taken {
				t.index[ext] = c.Name
			}
			exts = append(exts, ext)
		}
		t.categories = append(t.categories, Category{Name: c.Name, Extensions: exts})
	}

	return t, nil
}

// DefaultCategoryTable returns the built-in Audio/Documents/Images/Video table.
func DefaultCategoryTable() CategoryTable {
	t, err := NewCategoryTable(
		Category{Name: CategoryAudio, Extensions: []string{"mp3", "wav", "wv", "m4a", "awb", "aa", "3gp"}},
		Category{Name: CategoryDocuments, Extensions: []string{"rtf", "doc", "docx", "tex", "txt", "odt", "pdf"}},
		Category{Name: CategoryImages, Extensions: []string{"jpeg", "tmp", "exif", "tiff", "png", "bmp", "bat"}},
		Category{Name: CategoryVideo, Extensions: []string{"flv", "vob", "ogg", "ogv", "mp4", "gif", "avi"}},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the category owning ext.
func (t CategoryTable) Lookup(ext string) (string, bool) {
	name, ok := t.index[ext]
	return name, ok
}

// Categories returns a copy of the declared categories, in declaration order.
func (t CategoryTable) Categories() []Category {
	out := make([]Category, 0, len(t.categories))
	for _, c := range t.categories {
		out = append(out, Category{Name: c.Name, Extensions: append([]string(nil), c.Extensions...)})
	}
	return out
}

func (t CategoryTable) Len() int { return len(t.categories) }

// Extension returns the text after the last dot of name. Names without a dot
// or whose only dot is the leading one have no extension.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i+1:]
}
