package utils

import "errors"

var ErrArtifactNotFound = errors.New("artifact not found")
