package models

import (
	"testing"

	"github.com/matryer/is"
)

func TestNewLookupSetSkipsEmptyCells(t *testing.T) {
	is := is.New(t)
	rows := [][]string{
		{"2024-01-01 10:00:00", "Ann", " Ann@Example.com ", " 111 ", "CreateTeam", " Falcons99 "},
		{"2024-01-01 10:01:00", "Bob", "", "222", "JoinTeam", "falcons99"},
		{"2024-01-01 10:02:00", "Cid", "cid@example.com"},
	}
	ls := NewLookupSet(rows)
	is.Equal(len(ls.Emails), 2)
	is.Equal(len(ls.Phones), 2)
	is.Equal(len(ls.Teams), 1)
	is.True(ls.HasEmail("ANN@example.com"))
	is.True(ls.HasPhone("111"))
	is.True(ls.HasTeam("FALCONS99"))
	is.True(!ls.HasPhone("333"))
}

func TestCountTeamMembers(t *testing.T) {
	is := is.New(t)
	rows := [][]string{
		{"", "", "", "", "", "Falcons99"},
		{"", "", "", "", "", "falcons99 "},
		{"", "", "", "", "", "Eagles2024"},
		{"", "", ""},
	}
	is.Equal(CountTeamMembers(rows, "FALCONS99"), 2)
	is.Equal(CountTeamMembers(rows, "Eagles2024"), 1)
	is.Equal(CountTeamMembers(rows, "Falcons"), 0)
	is.Equal(CountTeamMembers(rows, ""), 0)
}

func TestRowRoundTrip(t *testing.T) {
	is := is.New(t)
	r := Registration{
		Timestamp: "2024-01-01 10:00:00",
		Name:      "Ann",
		Email:     "ann@example.com",
		Phone:     "111",
		Action:    ActionCreateTeam,
		TeamName:  "Falcons99",
	}
	row := r.Row()
	is.Equal(len(row), len(Header))
	is.Equal(row[ColAction], "CreateTeam")
	is.Equal(FromRow(row), r)
	is.Equal(FromRow(row[:3]).TeamName, "")
}
