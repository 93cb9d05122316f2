// Package dispatch maps a parsed RESP request to one of shardkv's typed
// store operations (spec.md §4.6): it validates arguments, enforces the
// type-of-key contract via store.Entry.Tag, performs the mutation, and
// writes the RESP reply. Grounded on other_examples/mshaverdo-radish's
// core command layer for dispatch shape and on original_source/redis.hh
// for the full command taxonomy.
//
// © 2025 shardkv authors. MIT License.
package dispatch

import "errors"

// Sentinel domain errors, translated to RESP error strings by writeErr.
// Naming follows spec.md §7's "kinds, not type names".
var (
	ErrWrongType    = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	ErrNotInteger   = errors.New("value is not an integer or out of range")
	ErrNotFloat     = errors.New("value is not a valid float")
	ErrNoSuchKey    = errors.New("no such key")
	ErrOutOfRange   = errors.New("index out of range")
	ErrSyntax       = errors.New("syntax error")
	ErrWrongArgs    = errors.New("wrong number of arguments")
	ErrOutOfMemory  = errors.New("command not allowed when used memory > 'maxmemory'")
	ErrNoSuchElem   = errors.New("no such element")
	ErrUnknownCmd   = errors.New("unknown command")
	ErrSameKeyTwice = errors.New("source and destination objects are the same")
)
