package db

import "errors"

// ErrStorageUnavailable marks failures reading or writing the local store
var ErrStorageUnavailable = errors.New("storage unavailable")
