package models

import "strings"

type Action string

const (
	ActionCreateTeam Action = "CreateTeam"
	ActionJoinTeam   Action = "JoinTeam"
)

// Actions lists the choices offered by the form, in display order.
var Actions = []Action{ActionCreateTeam, ActionJoinTeam}

// Header is the fixed first row of every store.
var Header = []string{"Timestamp", "Name", "Email", "Phone", "CreateOrJoin", "TeamName", "GitHub", "LinkedIn"}

// Column indexes into a store row.
const (
	ColTimestamp = iota
	ColName
	ColEmail
	ColPhone
	ColAction
	ColTeamName
	ColGitHub
	ColLinkedIn
)

// Submission is the raw input of one form submit.
type Submission struct {
	Name     string
	Email    string
	Phone    string
	Action   Action
	TeamName string
	GitHub   string
	LinkedIn string
}

type Registration struct {
	Timestamp string
	Name      string
	Email     string
	Phone     string
	Action    Action
	TeamName  string
	GitHub    string
	LinkedIn  string
}

// Row returns the registration in header order.
func (r Registration) Row() []string {
	return []string{
		r.Timestamp, r.Name, r.Email, r.Phone, string(r.Action), r.TeamName, r.GitHub, r.LinkedIn,
	}
}

func FromRow(row []string) Registration {
	return Registration{
		Timestamp: Cell(row, ColTimestamp),
		Name:      Cell(row, ColName),
		Email:     Cell(row, ColEmail),
		Phone:     Cell(row, ColPhone),
		Action:    Action(Cell(row, ColAction)),
		TeamName:  Cell(row, ColTeamName),
		GitHub:    Cell(row, ColGitHub),
		LinkedIn:  Cell(row, ColLinkedIn),
	}
}

// Cell returns row[idx] or "" when the row is short.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// LookupSet holds the normalized identities already present in a store.
type LookupSet struct {
	Emails map[string]struct{}
	Phones map[string]struct{}
	Teams  map[string]struct{}
}

// NewLookupSet builds a LookupSet from data rows (header excluded).
// Empty cells are skipped for their field only.
func NewLookupSet(rows [][]string) LookupSet {
	ls := LookupSet{
		Emails: map[string]struct{}{},
		Phones: map[string]struct{}{},
		Teams:  map[string]struct{}{},
	}
	for _, row := range rows {
		if v := NormalizeEmail(Cell(row, ColEmail)); v != "" {
			ls.Emails[v] = struct{}{}
		}
		if v := NormalizePhone(Cell(row, ColPhone)); v != "" {
			ls.Phones[v] = struct{}{}
		}
		if v := NormalizeTeam(Cell(row, ColTeamName)); v != "" {
			ls.Teams[v] = struct{}{}
		}
	}
	return ls
}

func (ls LookupSet) HasEmail(email string) bool {
	_, ok := ls.Emails[NormalizeEmail(email)]
	return ok
}

func (ls LookupSet) HasPhone(phone string) bool {
	_, ok := ls.Phones[NormalizePhone(phone)]
	return ok
}

func (ls LookupSet) HasTeam(team string) bool {
	_, ok := ls.Teams[NormalizeTeam(team)]
	return ok
}

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func NormalizePhone(s string) string { return strings.TrimSpace(s) }

func NormalizeTeam(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// CountTeamMembers counts rows whose team name matches team after normalization.
func CountTeamMembers(rows [][]string, team string) int {
	want := NormalizeTeam(team)
	if want == "" {
		return 0
	}
	n := 0
	for _, row := range rows {
		if NormalizeTeam(Cell(row, ColTeamName)) == want {
			n++
		}
	}
	return n
}
