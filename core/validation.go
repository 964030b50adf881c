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
	"strings"
)

func ValidatePassage(passage *Passage) error {
	if passage == nil {
		return fmt.Errorf("%w: passage is nil", ErrInvalidPassage)
	}

	if strings.TrimSpace(passage.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyText)
	}

	if strings.TrimSpace(passage.Interpretation) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyInterpretation)
	}

	return nil
}

// ValidateNarrative rejects narratives that are empty after trimming.
// The narrative itself is not modified; it is used verbatim as a dedup key.
func ValidateNarrative(narrative string) error {
	if strings.TrimSpace(narrative) == "" {
		return ErrEmptyNarrative
	}
	return nil
}
