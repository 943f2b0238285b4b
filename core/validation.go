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

import (
	"fmt"
	"time"
)

// ValidateEntryKey validates an EntryKey according to domain rules.
//
// Validation rules:
//   - Source must be one of the known corpus identifiers
//   - Book must be positive
//   - Entry must be digits optionally followed by one lowercase letter
func ValidateEntryKey(key EntryKey) error {
	if !ValidSource(key.Source) {
		return fmt.Errorf("%w: %q", ErrInvalidSource, key.Source)
	}
	if key.Book <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBook, key.Book)
	}
	if !validEntryRef(key.Entry) {
		return fmt.Errorf("%w: %q", ErrInvalidEntryRef, key.Entry)
	}
	return nil
}

// ValidateEntry validates an Entry according to domain rules.
//
// Validation rules:
//   - Key must pass ValidateEntryKey
//   - Text must not be empty
//
// NOT validated (populated by processors):
//   - Vector (can be empty until the embedding processor runs)
func ValidateEntry(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if err := ValidateEntryKey(entry.Key); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}

	if entry.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyText)
	}

	return nil
}

// ValidateView validates a View according to domain rules.
//
// Validation rules:
//   - Mode must be valid (daily, random, search)
//   - Rating must be 0 (unrated) or on the 1-3 scale
//   - Timestamp must not be in the future
func ValidateView(view *View) error {
	if view == nil {
		return fmt.Errorf("%w: view is nil", ErrInvalidView)
	}

	if err := ValidateViewMode(view.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidView, err)
	}

	if view.Rating < 0 || view.Rating > 3 {
		return fmt.Errorf("%w: %w", ErrInvalidView, ErrInvalidRating)
	}

	if !IsValidTimestamp(view.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidView, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateViewMode validates that a ViewMode has a valid value.
func ValidateViewMode(mode ViewMode) error {
	if mode != ViewModeDaily && mode != ViewModeRandom && mode != ViewModeSearch {
		return fmt.Errorf("%w: value %d", ErrInvalidViewMode, mode)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}

// validEntryRef reports whether ref is digits optionally followed by a
// single lowercase letter.
func validEntryRef(ref string) bool {
	if ref == "" {
		return false
	}
	digits := ref
	last := ref[len(ref)-1]
	if last >= 'a' && last <= 'z' {
		digits = ref[:len(ref)-1]
	}
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}
