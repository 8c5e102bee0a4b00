// Package registration decides whether a submission may be recorded and
// records accepted ones.
package registration

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"regform/internal/models"
)

const (
	// DefaultMaxTeamMembers caps how many registrations may share a team name.
	DefaultMaxTeamMembers = 4

	minTeamNameLen = 8
	reservedWord   = "team"

	// TimestampLayout is how acceptance times are written to the store.
	TimestampLayout = "2006-01-02 15:04:05"
)

// CountFunc returns how many registrations already carry the team name.
type CountFunc func(team string) (int, error)

// Validator checks a submission against existing registrations. It has no
// side effects.
type Validator struct {
	MaxTeamMembers int
	Now            func() time.Time
}

func NewValidator(maxTeamMembers int) *Validator {
	if maxTeamMembers < 1 {
		maxTeamMembers = DefaultMaxTeamMembers
	}
	return &Validator{MaxTeamMembers: maxTeamMembers, Now: time.Now}
}

// Validate runs the checks in a fixed order and returns the first violation.
// On success the returned registration carries the acceptance timestamp and
// the team name as submitted (surrounding spaces removed).
func (v *Validator) Validate(sub models.Submission, lookup models.LookupSet, count CountFunc) (models.Registration, error) {
	sub = trim(sub)

	if sub.Name == "" || sub.Email == "" || sub.Phone == "" || sub.Action == "" || sub.TeamName == "" {
		return models.Registration{}, &Error{Kind: KindMissingField, Message: "Please fill in all the mandatory fields."}
	}
	if lookup.HasEmail(sub.Email) {
		return models.Registration{}, &Error{
			Kind:    KindDuplicateEmail,
			Message: fmt.Sprintf("The email '%s' is already registered.", sub.Email),
		}
	}
	if lookup.HasPhone(sub.Phone) {
		return models.Registration{}, &Error{
			Kind:    KindDuplicatePhone,
			Message: fmt.Sprintf("The phone number '%s' is already registered.", sub.Phone),
		}
	}

	var err error
	switch sub.Action {
	case models.ActionCreateTeam:
		err = v.checkCreate(sub.TeamName, lookup)
	case models.ActionJoinTeam:
		err = v.checkJoin(sub.TeamName, lookup, count)
	default:
		err = &Error{
			Kind:    KindInvalidAction,
			Message: fmt.Sprintf("Invalid action '%s'. Please select either '%s' or '%s'.", sub.Action, models.ActionCreateTeam, models.ActionJoinTeam),
		}
	}
	if err != nil {
		return models.Registration{}, err
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	return models.Registration{
		Timestamp: now().Format(TimestampLayout),
		Name:      sub.Name,
		Email:     sub.Email,
		Phone:     sub.Phone,
		Action:    sub.Action,
		TeamName:  sub.TeamName,
		GitHub:    sub.GitHub,
		LinkedIn:  sub.LinkedIn,
	}, nil
}

func (v *Validator) checkCreate(team string, lookup models.LookupSet) error {
	if utf8.RuneCountInString(team) < minTeamNameLen {
		return &Error{
			Kind:    KindTeamNameTooShort,
			Message: fmt.Sprintf("Team name must be at least %d characters long.", minTeamNameLen),
		}
	}
	name := models.NormalizeTeam(team)
	if strings.Contains(name, reservedWord) {
		return &Error{
			Kind:    KindReservedWord,
			Message: fmt.Sprintf("Team name cannot contain the word '%s'.", reservedWord),
		}
	}
	// substring match both ways, not just equality
	for existing := range lookup.Teams {
		if strings.Contains(existing, name) || strings.Contains(name, existing) {
			return &Error{
				Kind:    KindTeamNameCollision,
				Message: "Team name already exists or is too similar to another team name.",
			}
		}
	}
	return nil
}

func (v *Validator) checkJoin(team string, lookup models.LookupSet, count CountFunc) error {
	if !lookup.HasTeam(team) {
		return &Error{
			Kind:    KindTeamNotFound,
			Message: fmt.Sprintf("No team named '%s' found.", team),
		}
	}
	members, err := count(team)
	if err != nil {
		return storageError(KindStorageUnavailable, err)
	}
	limit := v.MaxTeamMembers
	if limit < 1 {
		limit = DefaultMaxTeamMembers
	}
	if members >= limit {
		return &Error{
			Kind:    KindTeamFull,
			Message: fmt.Sprintf("Team '%s' already has %d members. You cannot join.", team, limit),
		}
	}
	return nil
}

func trim(sub models.Submission) models.Submission {
	return models.Submission{
		Name:     strings.TrimSpace(sub.Name),
		Email:    strings.TrimSpace(sub.Email),
		Phone:    strings.TrimSpace(sub.Phone),
		Action:   models.Action(strings.TrimSpace(string(sub.Action))),
		TeamName: strings.TrimSpace(sub.TeamName),
		GitHub:   strings.TrimSpace(sub.GitHub),
		LinkedIn: strings.TrimSpace(sub.LinkedIn),
	}
}
