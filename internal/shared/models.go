package shared

import "time"

// CurrentDBVersion is stamped into the db_v column of every gallery row
// written by this build. Bumped together with new migrations.
const CurrentDBVersion = 1

// Status is the publication status of a gallery.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusCompleted Status = "completed"
	StatusOngoing   Status = "ongoing"
)

// Gallery is one cataloged media unit: metadata, an ordered chapter set,
// namespaced tags and the content hashes of its reference chapter.
//
// ID is assigned by the gallery store on insert and is never client-supplied.
// Chapters maps chapter number to an archive file or directory path.
// Tags maps a namespace to its tag list; untagged-group tags live under
// the "default" namespace.
type Gallery struct {
	ID       int64
	Title    string
	Artist   string
	Info     string
	Type     string
	Language string
	Status   Status
	Fav      bool
	Link     string

	// Path is the gallery's root on disk, Profile the generated thumbnail.
	Path    string
	Profile string

	PubDate    time.Time
	DateAdded  time.Time
	LastRead   time.Time
	LastUpdate time.Time
	TimesRead  int

	DBVersion int
	Enriched  bool // metadata has been fetched from an external source

	Chapters map[int]string
	Tags     map[string][]string
	Hashes   []string
}

// GalleryUpdate is a partial update of a gallery row. Only non-nil fields
// are written; a set pointer to a zero value (false, 0, "") is a real
// update, which keeps falsy values distinguishable from "not provided".
//
// Tags and Chapters delegate to the tag and chapter stores when non-nil.
type GalleryUpdate struct {
	Title     *string
	Artist    *string
	Info      *string
	Type      *string
	Language  *string
	Status    *Status
	Fav       *bool
	Link      *string
	Path      *string
	Profile   *string
	PubDate   *time.Time
	LastRead  *time.Time
	TimesRead *int
	DBVersion *int
	Enriched  *bool

	Tags     map[string][]string
	Chapters map[int]string
}
