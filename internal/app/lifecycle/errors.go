// internal/app/lifecycle/errors.go
package lifecycle

import (
	"errors"

	meetingstore "github.com/moimlabs/moim/internal/app/store/meetings"
	participationstore "github.com/moimlabs/moim/internal/app/store/participations"
)

// The store sentinels the lifecycle reacts to. Fakes used in tests return
// the same values, so behavior is matched against the real contract.

func isDupParticipation(err error) bool {
	return errors.Is(err, participationstore.ErrAlreadyJoined)
}

func isMeetingGone(err error) bool {
	return errors.Is(err, meetingstore.ErrMeetingNotFound)
}
