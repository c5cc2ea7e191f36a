// Package categories maps file extensions to the category folders files are sorted into.
package categories

import (
	"fmt"
	"strings"
)

// Fallback is the name of the catch-all category in the default table.
const Fallback = "Others"

// Category is a named bucket and the extensions that belong to it.
// A category with no extensions is the fallback.
type Category struct {
	Name       string   `json:"name" yaml:"name"`
	Extensions []string `json:"extensions" yaml:"extensions"`
}

// Table is an ordered, validated set of categories.
type Table struct {
	categories []Category
	byExt      map[string]string
	fallback   string
}

// New validates cats and builds a Table. Extensions are normalized to lower case
// with a leading dot. Exactly one category must have no extensions, names must be
// unique, and no extension may appear in two categories.
func New(cats []Category) (*Table, error) {
	if len(cats) == 0 {
		return nil, fmt.Errorf("category table is empty")
	}

	t := &Table{byExt: make(map[string]string)}
	seen := make(map[string]bool)

	for _, c := range cats {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("category name must not be empty")
		}
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return nil, fmt.Errorf("category %q is not a valid folder name", name)
		}
		if seen[strings.ToLower(name)] {
			return nil, fmt.Errorf("duplicate category %q", name)
		}
		seen[strings.ToLower(name)] = true

		var exts []string
		for _, e := range c.Extensions {
			ext := NormalizeExt(e)
			if ext == "" {
				continue
			}
			if owner, ok := t.byExt[ext]; ok {
				if owner == name {
					continue
				}
				return nil, fmt.Errorf("extension %s is listed in both %q and %q", ext, owner, name)
			}
			t.byExt[ext] = name
			exts = append(exts, ext)
		}

		if len(exts) == 0 {
			if t.fallback != "" {
				return nil, fmt.Errorf("categories %q and %q both have no extensions; only one fallback is allowed", t.fallback, name)
			}
			t.fallback = name
		}
		t.categories = append(t.categories, Category{Name: name, Extensions: exts})
	}

	if t.fallback == "" {
		return nil, fmt.Errorf("no fallback category (one category must have an empty extension list)")
	}
	return t, nil
}

// Default returns the built-in category table.
func Default() *Table {
	t, err := New(defaultCategories())
	if err != nil {
		panic(fmt.Sprintf("invalid default category table: %v", err))
	}
	return t
}

func defaultCategories() []Category {
	return []Category{
		{Name: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}},
		{Name: "Documents", Extensions: []string{".pdf", ".docx", ".txt", ".xlsx", ".pptx"}},
		{Name: "Videos", Extensions: []string{".mp4", ".mkv", ".avi", ".mov"}},
		{Name: "Music", Extensions: []string{".mp3", ".wav", ".aac"}},
		{Name: "Archives", Extensions: []string{".zip", ".rar", ".tar", ".gz"}},
		{Name: "Code", Extensions: []string{".py", ".js", ".html", ".css", ".java"}},
		{Name: Fallback},
	}
}

// Classify returns the category for an extension such as ".JPG".
// Unknown or empty extensions map to the fallback category.
func (t *Table) Classify(ext string) string {
	if name, ok := t.byExt[NormalizeExt(ext)]; ok {
		return name
	}
	return t.fallback
}

// Fallback returns the name of the catch-all category.
func (t *Table) Fallback() string {
	return t.fallback
}

// Names returns category names in declaration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.categories))
	for i, c := range t.categories {
		names[i] = c.Name
	}
	return names
}

// Categories returns a copy of the table's categories in declaration order.
func (t *Table) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = Category{Name: c.Name, Extensions: append([]string(nil), c.Extensions...)}
	}
	return out
}

// IsCategory reports whether name is one of the table's category names.
func (t *Table) IsCategory(name string) bool {
	for _, c := range t.categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

// NormalizeExt lower-cases an extension and ensures it starts with a dot.
// An empty input stays empty.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
