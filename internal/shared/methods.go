package shared

import "time"

// NewGallery returns an empty gallery with date-added defaulted to now.
func NewGallery() *Gallery {
	return &Gallery{
		Status:    StatusUnknown,
		DateAdded: time.Now(),
		Chapters:  make(map[int]string),
		Tags:      make(map[string][]string),
	}
}

// Valid reports whether the gallery may take part in destructive bulk
// operations. Invalid galleries stay visible to read queries.
func (g *Gallery) Valid() bool {
	return len(g.Invalidities()) == 0
}

// ReferenceChapter returns the path of the chapter thumbnails and hashes
// are derived from: chapter 0, or the lowest-numbered chapter when 0 is
// missing. ok is false for a gallery without chapters.
func (g *Gallery) ReferenceChapter() (path string, ok bool) {
	if p, found := g.Chapters[0]; found {
		return p, true
	}
	lowest := -1
	for numb, p := range g.Chapters {
		if lowest == -1 || numb < lowest {
			lowest = numb
			path = p
		}
	}
	return path, lowest != -1
}

// Invalidities returns the names of the attributes that make the gallery
// invalid, empty when the gallery is fine.
func (g *Gallery) Invalidities() []string {
	var fields []string
	if g.Title == "" {
		fields = append(fields, "title")
	}
	if g.Path == "" {
		fields = append(fields, "path")
	}
	return fields
}
