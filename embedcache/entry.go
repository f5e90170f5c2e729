// Copyright 2025 The Promptvault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package embedcache

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Entry is a cached embedding with enough context to audit it later.
type Entry struct {
	Model     string
	Vector    []float32
	CreatedAt int64 // Unix seconds
}

var vectorMUS = ord.NewSliceSer[float32](varint.Float32)

// EntryMUS implements the MUS format for Entry.
var EntryMUS = entryMUS{}

type entryMUS struct{}

func (s entryMUS) Marshal(v Entry, bs []byte) (n int) {
	n = ord.String.Marshal(v.Model, bs)
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt, bs[n:])
	return
}

func (s entryMUS) Unmarshal(bs []byte) (v Entry, n int, err error) {
	v.Model, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	return
}

func (s entryMUS) Size(v Entry) (size int) {
	size = ord.String.Size(v.Model)
	size += vectorMUS.Size(v.Vector)
	size += varint.Int64.Size(v.CreatedAt)
	return
}

func (s entryMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = vectorMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}

// marshalEntry serializes an Entry to bytes.
func marshalEntry(entry Entry) []byte {
	buf := make([]byte, EntryMUS.Size(entry))
	EntryMUS.Marshal(entry, buf)
	return buf
}

// unmarshalEntry deserializes an Entry from bytes.
func unmarshalEntry(data []byte) (Entry, error) {
	entry, _, err := EntryMUS.Unmarshal(data)
	return entry, err
}
