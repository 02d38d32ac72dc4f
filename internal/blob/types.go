// Package blob is the entry point to blob storage: the Store contract and a
// factory over the fs, s3 and memory backends.
package blob

import "occucalc/internal/blob/core"

type (
	Driver     = core.Driver
	PutOptions = core.PutOptions
	Info       = core.Info
	Store      = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var ErrNotFound = core.ErrNotFound
