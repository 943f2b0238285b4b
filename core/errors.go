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
	// ErrInvalidEntry indicates an Entry failed validation.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrInvalidView indicates a View failed validation.
	ErrInvalidView = errors.New("invalid view")

	// ErrInvalidSource indicates an unknown corpus identifier.
	ErrInvalidSource = errors.New("invalid source")

	// ErrInvalidBook indicates a non-positive book number.
	ErrInvalidBook = errors.New("book number must be positive")

	// ErrInvalidEntryRef indicates an entry reference outside the
	// digits-plus-optional-letter convention.
	ErrInvalidEntryRef = errors.New("invalid entry reference")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidViewMode indicates an invalid ViewMode value.
	ErrInvalidViewMode = errors.New("invalid view mode")

	// ErrInvalidRating indicates a rating outside the 0-3 range.
	ErrInvalidRating = errors.New("rating must be between 0 and 3")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")
)
