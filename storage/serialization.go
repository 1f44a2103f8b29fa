// Copyright 2025 Poiesic Systems
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

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docvec/core"
)

// FileStateMUS is the MUS serializer for manifest entries.
var FileStateMUS = fileStateMUS{}

type fileStateMUS struct{}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func (fileStateMUS) Marshal(s core.FileState, bs []byte) (n int) {
	n = ord.String.Marshal(s.Path, bs)
	n += ord.String.Marshal(s.Namespace, bs[n:])
	n += ord.String.Marshal(s.Fingerprint, bs[n:])
	n += ord.String.Marshal(string(s.DocType), bs[n:])
	n += varint.PositiveInt.Marshal(len(s.VectorIDs), bs[n:])
	for _, id := range s.VectorIDs {
		n += ord.String.Marshal(id, bs[n:])
	}
	n += ord.String.Marshal(s.RunID, bs[n:])
	n += varint.Int64.Marshal(unixNano(s.IndexedAt), bs[n:])
	return n
}

func (fileStateMUS) Unmarshal(bs []byte) (s core.FileState, n int, err error) {
	var n1 int
	if s.Path, n1, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	n += n1
	if s.Namespace, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if s.Fingerprint, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var docType string
	if docType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	s.DocType = core.DocType(docType)

	var count int
	if count, n1, err = varint.PositiveInt.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	// Every ID takes at least one byte.
	if count < 0 || count > len(bs)-n {
		err = fmt.Errorf("%w: %d vector IDs", ErrTruncatedData, count)
		return
	}
	if count > 0 {
		s.VectorIDs = make([]string, count)
		for i := range s.VectorIDs {
			if s.VectorIDs[i], n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += n1
		}
	}

	if s.RunID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var nanos int64
	if nanos, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	s.IndexedAt = fromUnixNano(nanos)
	return
}

func (fileStateMUS) Size(s core.FileState) (size int) {
	size = ord.String.Size(s.Path)
	size += ord.String.Size(s.Namespace)
	size += ord.String.Size(s.Fingerprint)
	size += ord.String.Size(string(s.DocType))
	size += varint.PositiveInt.Size(len(s.VectorIDs))
	for _, id := range s.VectorIDs {
		size += ord.String.Size(id)
	}
	size += ord.String.Size(s.RunID)
	size += varint.Int64.Size(unixNano(s.IndexedAt))
	return size
}

// MarshalFileState serializes a FileState to bytes.
func MarshalFileState(state *core.FileState) []byte {
	buf := make([]byte, FileStateMUS.Size(*state))
	FileStateMUS.Marshal(*state, buf)
	return buf
}

// UnmarshalFileState deserializes a FileState from bytes.
func UnmarshalFileState(data []byte) (*core.FileState, error) {
	state, _, err := FileStateMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &state, nil
}
