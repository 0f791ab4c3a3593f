package property

import "errors"

var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrPhotoNotFound    = errors.New("photo not found")
	ErrUnknownVariant   = errors.New("unknown photo variant")
)
