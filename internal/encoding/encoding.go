// Package encoding provides pooled JSON marshal/unmarshal helpers for the
// hot serialization paths: cache entries are encoded on every miss and
// decoded on every fetch.
package encoding

import (
	"bytes"
	"encoding/json"
	"sync"
)

var bufPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Marshal encodes v to compact JSON using a pooled buffer.
func Marshal(v interface{}) ([]byte, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufPool.Put(buf)
	}()

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// Encode appends a newline; cache keys and stored payloads must be
	// byte-stable, so strip it.
	data := buf.Bytes()
	if n := len(data); n > 0 && data[n-1] == '\n' {
		data = data[:n-1]
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Unmarshal decodes JSON data into v.
func Unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	return dec.Decode(v)
}
