// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

import (
	"bytes"
	"sync"
)

// bufferPool provides a pool of reusable byte buffers for JSON operations.
// This reduces allocations during frequent marshal/unmarshal operations.
var bufferPool = sync.Pool{
	New: func() any {
		// Pre-allocate 1KB buffer for typical JSON objects
		return bytes.NewBuffer(make([]byte, 0, 1024))
	},
}

// getBuffer retrieves a buffer from the pool.
func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

// putBuffer returns a buffer to the pool after resetting it.
func putBuffer(buf *bytes.Buffer) {
	buf.Reset()
	bufferPool.Put(buf)
}

// UnmarshalJSONWithPool is an optimized version of UnmarshalJSON that uses
// a pooled buffer. Use this when you already have []byte data and want to
// unmarshal with json.Number support.
func UnmarshalJSONWithPool(bs []byte, x any) error {
	// For small byte slices, creating a decoder directly from bytes.NewBuffer
	// with pooling might add overhead. Use standard unmarshal for small data.
	if len(bs) < 256 {
		return UnmarshalJSON(bs, x)
	}

	buf := getBuffer()
	defer putBuffer(buf)

	buf.Write(bs)
	decoder := NewJSONDecoder(buf)
	return decoder.Decode(x)
}
