package server

import (
	"testing"
)

func TestAtoRole(t *testing.T) {
	var table = []struct {
		input  string
		output Role
	}{
		{"read", RoleRead},
		{"Read", RoleRead},
		{"Write", RoleWrite},
		{"write", RoleWrite},
		{"admin", RoleAdmin},
		{"ADMIN", RoleAdmin},
		{"mdonly", RoleUnknown},
		{"other", RoleUnknown},
		{"", RoleUnknown},
	}

	for _, row := range table {
		result := atoRole(row.input)
		if result != row.output {
			t.Errorf("For %v received %v, expected %v", row.input, result, row.output)
		}
	}
}

func TestListDecoder(t *testing.T) {
	const users = `
# comment line
alice   write   tok-alice
bob	read	tok-bob
carol   admin   tok-carol   extra
dave    owner   tok-dave
`
	ld, err := NewListDecoderString(users)
	if err != nil {
		t.Fatal(err)
	}
	var table = []struct {
		token string
		user  string
		role  Role
	}{
		{"tok-alice", "alice", RoleWrite},
		{"tok-bob", "bob", RoleRead},
		{"tok-carol", "", RoleUnknown}, // malformed line skipped
		{"tok-dave", "dave", RoleUnknown},
		{"tok-nobody", "", RoleUnknown},
		{"", "", RoleUnknown},
	}
	for _, row := range table {
		user, role, err := ld.TokenDecode(row.token)
		if err != nil {
			t.Errorf("%q: %s", row.token, err)
		}
		if user != row.user || role != row.role {
			t.Errorf("%q: received (%q, %v), expected (%q, %v)",
				row.token, user, role, row.user, row.role)
		}
	}
}

func TestNobodyDecoder(t *testing.T) {
	user, role, _ := NewNobodyDecoder().TokenDecode("anything")
	if user != "nobody" || role != RoleAdmin {
		t.Errorf("received (%q, %v)", user, role)
	}
}
