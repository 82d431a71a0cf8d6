package heap

import "errors"

var (
	// ErrUninitialized indicates an allocation or release before a successful Init.
	ErrUninitialized = errors.New("heap: not initialized")

	// ErrNoSpace indicates that growth succeeded but the retried search still found no block.
	ErrNoSpace = errors.New("heap: no free block large enough")

	// ErrCorrupt indicates a header outside mapped memory, a bad tag, or a cycle in the block chain.
	ErrCorrupt = errors.New("heap: corrupted block chain")

	// ErrBadPointer indicates an address whose preceding bytes do not decode
	// as a block header inside mapped memory.
	ErrBadPointer = errors.New("heap: pointer does not follow a block header")

	// ErrNotAllocated indicates a release of a block that is already free.
	ErrNotAllocated = errors.New("heap: block is not allocated")

	// ErrBadSize indicates a negative or unrepresentable allocation size.
	ErrBadSize = errors.New("heap: bad allocation size")

	// ErrBadConfig indicates an unusable Config.
	ErrBadConfig = errors.New("heap: bad config")
)
