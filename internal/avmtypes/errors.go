package avmtypes

import "errors"

// Sentinel errors returned by AVM operations. Callers test with errors.Is;
// a POSIX-facing collaborator (the FUSE mount glue, out of AVM scope) maps
// these to negative errno values.
var (
	ErrNotExist    = errors.New("avm: no such file")
	ErrExist       = errors.New("avm: file already exists")
	ErrPermission  = errors.New("avm: operation not permitted on protected file")
	ErrNoSpace     = errors.New("avm: no free pages left on volume")
	ErrInvalid     = errors.New("avm: invalid argument")
	ErrNoMemory    = errors.New("avm: allocation failure")
	ErrNotLoaded   = errors.New("avm: volume not loaded")
	ErrCorrupt     = errors.New("avm: inconsistent on-disk structure")
)
