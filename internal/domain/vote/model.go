package vote

import (
	"errors"
	"strings"
	"time"
)

// Option list bounds for a ballot.
const (
	MinOptions   = 2
	MaxOptions   = 10
	MaxOptionLen = 100
	MaxTitleLen  = 200
)

// Status constants for the vote lifecycle.
const (
	StatusScheduled = "SCHEDULED"
	StatusOpen      = "OPEN"
	StatusClosed    = "CLOSED"
)

// Domain errors
var (
	ErrNotScheduled    = errors.New("vote is not scheduled")
	ErrNotOpen         = errors.New("vote is not open")
	ErrOutsideWindow   = errors.New("vote cannot open outside its scheduled window")
	ErrUnknownOption   = errors.New("ballot option is not on this vote")
	ErrAlreadyBalloted = errors.New("member has already cast a ballot")
)

// Vote is a voting campaign put to the congregation.
type Vote struct {
	ID          string
	Title       string
	Description string
	Options     []string
	StartAt     time.Time
	EndAt       time.Time
	Status      string
	CreatedBy   string
	CreatedAt   time.Time
}

// Ballot is one member's cast for one option. One ballot per member per vote.
type Ballot struct {
	ID       string
	VoteID   string
	MemberID string
	Option   string
	CastAt   time.Time
}

// Result is the tally of a vote: per-option counts plus the winner set.
// Ties are reported, not broken.
type Result struct {
	VoteID  string
	Counts  map[string]int
	Total   int
	Winners []string
}

// Validate checks if the Vote has valid data.
// PRE: Vote struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: options are 2..10, unique case-insensitively, start before end
func (v *Vote) Validate() error {
	if strings.TrimSpace(v.Title) == "" {
		return errors.New("vote title cannot be empty")
	}
	if len(v.Title) > MaxTitleLen {
		return errors.New("vote title cannot exceed 200 characters")
	}
	if len(v.Options) < MinOptions {
		return errors.New("vote requires at least 2 options")
	}
	if len(v.Options) > MaxOptions {
		return errors.New("vote allows a maximum of 10 options")
	}
	seen := make(map[string]bool, len(v.Options))
	for _, opt := range v.Options {
		trimmed := strings.TrimSpace(opt)
		if trimmed == "" {
			return errors.New("vote options cannot be empty")
		}
		if len(trimmed) > MaxOptionLen {
			return errors.New("vote options cannot exceed 100 characters")
		}
		key := strings.ToLower(trimmed)
		if seen[key] {
			return errors.New("vote options must be unique")
		}
		seen[key] = true
	}
	if v.StartAt.IsZero() || v.EndAt.IsZero() {
		return errors.New("vote window must be set")
	}
	if !v.StartAt.Before(v.EndAt) {
		return errors.New("vote start must be before end")
	}
	if v.Status != StatusScheduled && v.Status != StatusOpen && v.Status != StatusClosed {
		return errors.New("status must be 'SCHEDULED', 'OPEN', or 'CLOSED'")
	}
	return nil
}

// HasOption returns true if the option is on the ballot (exact match).
// INVARIANT: Vote is not mutated
func (v *Vote) HasOption(option string) bool {
	for _, opt := range v.Options {
		if opt == option {
			return true
		}
	}
	return false
}

// WindowContains returns true if the instant falls inside [StartAt, EndAt).
// INVARIANT: Vote is not mutated
func (v *Vote) WindowContains(at time.Time) bool {
	return !at.Before(v.StartAt) && at.Before(v.EndAt)
}

// Open transitions a scheduled vote to open.
// PRE: Status is SCHEDULED and at is inside the window
// POST: Status is OPEN
func (v *Vote) Open(at time.Time) error {
	if v.Status != StatusScheduled {
		return ErrNotScheduled
	}
	if !v.WindowContains(at) {
		return ErrOutsideWindow
	}
	v.Status = StatusOpen
	return nil
}

// Close transitions an open vote to closed. Closing is allowed any time after
// opening; the window end is enforced by the scheduler, not here.
// PRE: Status is OPEN
// POST: Status is CLOSED
func (v *Vote) Close() error {
	if v.Status != StatusOpen {
		return ErrNotOpen
	}
	v.Status = StatusClosed
	return nil
}

// Validate checks required ballot fields against the vote.
// PRE: Ballot and Vote structs are initialized
// POST: Returns error if validation fails, nil otherwise
func (b *Ballot) Validate(v *Vote) error {
	if b.MemberID == "" {
		return errors.New("ballot must be cast by a member")
	}
	if b.VoteID != v.ID {
		return errors.New("ballot does not belong to this vote")
	}
	if !v.HasOption(b.Option) {
		return ErrUnknownOption
	}
	return nil
}

// Tally counts ballots per option and computes the winner set. Every declared
// option appears in Counts even with zero ballots. Ballots for unknown
// options are ignored (they cannot be cast through Ballot.Validate).
func Tally(v *Vote, ballots []Ballot) Result {
	counts := make(map[string]int, len(v.Options))
	for _, opt := range v.Options {
		counts[opt] = 0
	}
	total := 0
	for _, b := range ballots {
		if _, ok := counts[b.Option]; !ok {
			continue
		}
		counts[b.Option]++
		total++
	}
	best := 0
	for _, n := range counts {
		if n > best {
			best = n
		}
	}
	var winners []string
	if total > 0 {
		for _, opt := range v.Options {
			if counts[opt] == best {
				winners = append(winners, opt)
			}
		}
	}
	return Result{VoteID: v.ID, Counts: counts, Total: total, Winners: winners}
}
