package common

import "errors"

// ErrNotADirectory is returned when a path that must be a directory exists
// as some other kind of entry.
var ErrNotADirectory = errors.New("not a directory")

// ErrOutOfRange MUST be returned when an id that was never allocated is
// requested.
var ErrOutOfRange = errors.New("id out of range")

// ErrNotFound MUST be returned when an allocated id has no stored object,
// e.g. it was reserved as a directory or the tree was changed by someone else.
var ErrNotFound = errors.New("object not found")

// ErrCorruptData is returned when stored bytes can not be decoded or the tree
// layout is inconsistent.
var ErrCorruptData = errors.New("corrupt data")

// ErrReadOnly MUST be returned for modifying operations when the storage was opened
// in readonly mode.
var ErrReadOnly = errors.New("opened as read-only")

// ErrLocked is returned when another writer holds the tree.
var ErrLocked = errors.New("tree is locked by another writer")

// ErrExists is returned when a fresh tree is requested over an existing one.
var ErrExists = errors.New("tree already exists")

// ErrRangeUnknown is returned when the range of a reloaded tree can not be
// inferred from its layout and was not provided.
var ErrRangeUnknown = errors.New("range can not be inferred")

// ErrTreeFull is returned when a directory would exceed its range.
var ErrTreeFull = errors.New("directory is full")
