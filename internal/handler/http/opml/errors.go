package opml

import "errors"

var errFileTooLarge = errors.New("uploaded file too large")

var errInvalidFilename = errors.New("filename must not contain path separators")
