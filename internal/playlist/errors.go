package playlist

import "errors"

var (
	ErrItemNotFound     = errors.New("item not found")
	ErrDuplicateName    = errors.New("an item with that name already exists")
	ErrInvalidDuration  = errors.New("duration is not one of the allowed values")
	ErrIndexOutOfRange  = errors.New("item index out of range")
	ErrNotAnImage       = errors.New("file is not an image")
	ErrFileTooLarge     = errors.New("file exceeds the 5 MB limit")
	ErrInvalidYouTube   = errors.New("not a valid YouTube URL")
	ErrDraftNotFound    = errors.New("draft not found")
	ErrDraftForbidden   = errors.New("draft belongs to another user")
	ErrVerifyFailed     = errors.New("media could not be verified")
	ErrEmptyPlaylist    = errors.New("playlist has no items")
	ErrInvalidMediaName = errors.New("media name is required")
)

// FileError reports why a single upload was skipped.
type FileError struct {
	Filename string `json:"filename"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
}

func newFileError(filename string, err error) FileError {
	return FileError{Filename: filename, Err: err, Message: err.Error()}
}

func (e FileError) Error() string {
	return e.Filename + ": " + e.Message
}

func (e FileError) Unwrap() error {
	return e.Err
}
