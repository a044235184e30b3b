package principal

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// seqSuffixRegex extracts the trailing numeric suffix of a humanId.
var seqSuffixRegex = regexp.MustCompile(`(\d+)$`)

// FormatHumanID composes the canonical human-readable identifier.
// Zero-pads to 3 digits and grows naturally past 999.
func FormatHumanID(role, branchCode string, seq int) string {
	return fmt.Sprintf("%s/%s/%03d", role, branchCode, seq)
}

// ParseSeq extracts the numeric suffix of a humanId, 0 if none.
func ParseSeq(humanID string) int {
	m := seqSuffixRegex.FindString(humanID)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// Sequencer derives the next human-readable identifier for a (role, branchCode)
// scope. Sequencing is backed by an atomic per-scope counter; when the counter
// has not been created yet it is seeded from the latest existing humanId in
// scope, so pre-existing records keep their numbering.
type Sequencer struct {
	seqs     SequenceRepository
	admins   AdminRepository
	students StudentRepository
}

func NewSequencer(seqs SequenceRepository, admins AdminRepository, students StudentRepository) *Sequencer {
	return &Sequencer{seqs: seqs, admins: admins, students: students}
}

func (s *Sequencer) NextID(ctx context.Context, role, branchCode string) (string, error) {
	var latest string
	var err error
	if IsAdminRole(role) {
		latest, err = s.admins.LatestAdminHumanID(ctx, role, branchCode)
	} else {
		latest, err = s.students.LatestStudentHumanID(ctx, role, branchCode)
	}
	if err != nil && err != ErrNotFound {
		return "", errors.Wrap(err, "finding latest humanId in scope")
	}

	seq, err := s.seqs.NextSeq(ctx, role, branchCode, ParseSeq(latest))
	if err != nil {
		return "", errors.Wrap(err, "incrementing scope counter")
	}
	return FormatHumanID(role, branchCode, seq), nil
}
