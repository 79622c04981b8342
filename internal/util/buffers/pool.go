// Package buffers provides reusable byte buffers for streamed file copies.
package buffers

import (
	"sync"

	"github.com/tbgui/tbgui/internal/constants"
)

// chunkPool holds constants.TransferChunkSize buffers. Every remote read or
// write loop takes one for the life of a single file.
var chunkPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, constants.TransferChunkSize)
		return &buf
	},
}

// GetChunkBuffer retrieves a chunk buffer from the pool.
// Return it with PutChunkBuffer when the copy is finished.
//
// Usage:
//
//	buf := buffers.GetChunkBuffer()
//	defer buffers.PutChunkBuffer(buf)
//	n, err := src.Read(*buf)
func GetChunkBuffer() *[]byte {
	return chunkPool.Get().(*[]byte)
}

// PutChunkBuffer returns buf to the pool. Buffers of any other size are
// dropped. The contents are cleared so report data does not outlive the copy.
func PutChunkBuffer(buf *[]byte) {
	if buf == nil || len(*buf) != constants.TransferChunkSize {
		return
	}
	clear(*buf)
	chunkPool.Put(buf)
}
