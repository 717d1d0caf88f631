package shared

type Error string

// Implement the error interface
func (e Error) Error() string { return string(e) }

//------------
// Definitions
//------------

// repository errors
const (
	ErrGalleryNotFound = Error("gallery not found")
	ErrChapterNotFound = Error("chapter not found")
	ErrInvalidGallery  = Error("invalid gallery")
	ErrNotImplemented  = Error("not implemented")
)

// hash generation errors
const ErrUnreadableChapter = Error("chapter path yields no readable images")
