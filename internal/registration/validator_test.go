package registration

import (
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"

	"regform/internal/models"
)

var fixedNow = func() time.Time { return time.Date(2024, 9, 1, 12, 30, 0, 0, time.Local) }

func newTestValidator() *Validator {
	v := NewValidator(4)
	v.Now = fixedNow
	return v
}

func lookupFrom(rows ...[]string) models.LookupSet {
	return models.NewLookupSet(rows)
}

func noMembers(string) (int, error) { return 0, nil }

func create(team string) models.Submission {
	return models.Submission{
		Name:     "Ann",
		Email:    "ann@example.com",
		Phone:    "9000000001",
		Action:   models.ActionCreateTeam,
		TeamName: team,
	}
}

func join(team string) models.Submission {
	s := create(team)
	s.Action = models.ActionJoinTeam
	return s
}

func existing(email, phone, team string) []string {
	return []string{"2024-08-01 09:00:00", "X", email, phone, "CreateTeam", team}
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	return rerr.Kind
}

func TestMissingField(t *testing.T) {
	is := is.New(t)
	v := newTestValidator()

	for _, sub := range []models.Submission{
		{Email: "a@b.c", Phone: "1", Action: models.ActionCreateTeam, TeamName: "Falcons99"},
		{Name: "A", Phone: "1", Action: models.ActionCreateTeam, TeamName: "Falcons99"},
		{Name: "A", Email: "a@b.c", Action: models.ActionCreateTeam, TeamName: "Falcons99"},
		{Name: "A", Email: "a@b.c", Phone: "1", TeamName: "Falcons99"},
		{Name: "A", Email: "a@b.c", Phone: "1", Action: models.ActionCreateTeam, TeamName: "   "},
	} {
		_, err := v.Validate(sub, lookupFrom(), noMembers)
		is.True(errors.Is(err, ErrMissingField)) // missing field
		is.Equal(err.Error(), "Please fill in all the mandatory fields.")
	}
}

func TestChecksRunInOrder(t *testing.T) {
	is := is.New(t)
	v := newTestValidator()
	lookup := lookupFrom(existing("ANN@example.com", "9000000001", "Falcons99"))

	// duplicate email wins over duplicate phone and bad team name
	_, err := v.Validate(create("x"), lookup, noMembers)
	is.Equal(kindOf(t, err), KindDuplicateEmail)
	is.Equal(err.Error(), "The email 'ann@example.com' is already registered.")

	sub := create("x")
	sub.Email = "new@example.com"
	_, err = v.Validate(sub, lookup, noMembers)
	is.Equal(kindOf(t, err), KindDuplicatePhone)
	is.Equal(err.Error(), "The phone number '9000000001' is already registered.")
}

func TestPhoneMatchIsExact(t *testing.T) {
	is := is.New(t)
	v := newTestValidator()
	lookup := lookupFrom(existing("other@example.com", "+91 9000000001", "Falcons99"))

	_, err := v.Validate(create("Eagles2024"), lookup, noMembers)
	is.NoErr(err)
}

func TestCreateTeamRules(t *testing.T) {
	v := newTestValidator()
	lookup := lookupFrom(existing("other@example.com", "1", "Falcons99"))

	for _, tc := range []struct {
		team string
		kind Kind
	}{
		{"Alpha12", KindTeamNameTooShort},
		{"  Alpha12  ", KindTeamNameTooShort},
		{"TeamRocket99", KindReservedWord},
		{"DreamTEAMers", KindReservedWord},
		{"Falcons", KindTeamNameTooShort},
		{"Falcons9", KindTeamNameCollision},
		{"Falcons99", KindTeamNameCollision},
		{"TheFalcons99Club", KindTeamNameCollision},
		{"invalid", KindTeamNameTooShort},
	} {
		t.Run(tc.team, func(t *testing.T) {
			is := is.New(t)
			_, err := v.Validate(create(tc.team), lookup, noMembers)
			is.Equal(kindOf(t, err), tc.kind)
		})
	}
}

func TestCreateCollisionWithShorterCandidate(t *testing.T) {
	is := is.New(t)
	v := newTestValidator()
	lookup := lookupFrom(existing("other@example.com", "1", "BlueFalcons99"))

	_, err := v.Validate(create("Falcons99"), lookup, noMembers)
	is.Equal(kindOf(t, err), KindTeamNameCollision)
	is.Equal(err.Error(), "Team name already exists or is too similar to another team name.")
}

func TestCreateAccepted(t *testing.T) {
	is := is.New(t)
	v := newTestValidator()
	sub := create(" Eagles2024 ")
	sub.GitHub = "github.com/ann"

	reg, err := v.Validate(sub, lookupFrom(existing("other@example.com", "1", "Falcons99")), noMembers)
	is.NoErr(err)
	is.Equal(reg.Timestamp, "2024-09-01 12:30:00")
	is.Equal(reg.TeamName, "Eagles2024")
	is.Equal(reg.Action, models.ActionCreateTeam)
	is.Equal(reg.GitHub, "github.com/ann")
}

func TestJoinTeam(t *testing.T) {
	is := is.New(t)
	v := newTestValidator()
	lookup := lookupFrom(existing("other@example.com", "1", "Falcons99"))

	counts := map[string]int{"falcons99": 3}
	count := func(team string) (int, error) { return counts[models.NormalizeTeam(team)], nil }

	reg, err := v.Validate(join("FALCONS99"), lookup, count)
	is.NoErr(err)
	is.Equal(reg.TeamName, "FALCONS99") // submitted casing is kept

	counts["falcons99"] = 4
	_, err = v.Validate(join("Falcons99"), lookup, count)
	is.Equal(kindOf(t, err), KindTeamFull)
	is.Equal(err.Error(), "Team 'Falcons99' already has 4 members. You cannot join.")

	// join needs an exact name, not a substring
	_, err = v.Validate(join("Falcons"), lookup, count)
	is.Equal(kindOf(t, err), KindTeamNotFound)
	is.Equal(err.Error(), "No team named 'Falcons' found.")
}

func TestJoinCountError(t *testing.T) {
	is := is.New(t)
	v := newTestValidator()
	lookup := lookupFrom(existing("other@example.com", "1", "Falcons99"))

	_, err := v.Validate(join("Falcons99"), lookup, func(string) (int, error) {
		return 0, errors.New("sheet gone")
	})
	is.True(errors.Is(err, ErrStorageUnavailable))
}

func TestInvalidAction(t *testing.T) {
	is := is.New(t)
	v := newTestValidator()
	sub := create("Eagles2024")
	sub.Action = "LeaveTeam"

	_, err := v.Validate(sub, lookupFrom(), noMembers)
	is.Equal(kindOf(t, err), KindInvalidAction)
	is.Equal(err.Error(), "Invalid action 'LeaveTeam'. Please select either 'CreateTeam' or 'JoinTeam'.")
}

func TestRejectionsAreErrors(t *testing.T) {
	is := is.New(t)
	v := newTestValidator()
	lookup := lookupFrom([]string{"", "Ann", "ann@example.com", "9000000001", "CreateTeam", "Falcons99"})

	for _, sub := range []models.Submission{
		{Name: "Ann"},
		create("Falcons99"),
		join("Eagles2024"),
		{Name: "Bob", Email: "bob@example.com", Phone: "2", Action: "Watch", TeamName: "Falcons99"},
	} {
		_, err := v.Validate(sub, lookup, noMembers)
		var rerr *Error
		is.True(errors.As(err, &rerr))
		is.True(rerr.Message != "")
	}
}
