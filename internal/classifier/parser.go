// Copyright (c) 2026 John Earle
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

package classifier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bcem/triage/internal/models"
)

// Error kinds surfaced to the triage loop. Both defer the message for this
// run: a verdict is never guessed, since a wrong default could silently
// archive wanted mail.
var (
	// ErrAmbiguous means the response contained neither expected token,
	// or both of them.
	ErrAmbiguous = errors.New("ambiguous verdict")

	// ErrUnavailable means the model endpoint could not be reached within
	// the retry budget.
	ErrUnavailable = errors.New("classification unavailable")
)

const (
	tokenArchive = "[ARCHIVE]"
	tokenInbox   = "[INBOX]"
)

// ParseVerdict extracts the verdict token from a model response. Matching is
// case-insensitive and ignores surrounding text. A response carrying both
// tokens, or neither, is ErrAmbiguous.
func ParseVerdict(response string) (models.Verdict, error) {
	up := strings.ToUpper(response)
	hasArchive := strings.Contains(up, tokenArchive)
	hasInbox := strings.Contains(up, tokenInbox)

	switch {
	case hasArchive && hasInbox:
		return 0, fmt.Errorf("%w: response contains both %s and %s", ErrAmbiguous, tokenArchive, tokenInbox)
	case hasArchive:
		return models.VerdictArchive, nil
	case hasInbox:
		return models.VerdictInbox, nil
	default:
		return 0, fmt.Errorf("%w: response contains neither %s nor %s", ErrAmbiguous, tokenArchive, tokenInbox)
	}
}
