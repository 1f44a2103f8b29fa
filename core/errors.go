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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyID indicates the record ID is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrIDTooLong indicates the record ID exceeds MaxIDLength bytes.
	ErrIDTooLong = errors.New("id too long")

	// ErrEmptyVector indicates the record has no vector values.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrMissingMetadata indicates the record metadata map is nil.
	ErrMissingMetadata = errors.New("metadata cannot be nil")

	// ErrEmptyNamespace indicates a namespace was not provided.
	ErrEmptyNamespace = errors.New("namespace cannot be empty")

	// ErrInvalidDocType indicates an unknown document type.
	ErrInvalidDocType = errors.New("invalid doc type")

	// ErrInvalidFileState indicates a FileState failed validation.
	ErrInvalidFileState = errors.New("invalid file state")
)
