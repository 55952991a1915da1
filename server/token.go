package server

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// A TokenDecoder turns an API token into a user name and role. An invalid
// token gives the user "" and RoleUnknown. An error is returned only if the
// lookup itself failed and the status of the token is unknown.
type TokenDecoder interface {
	TokenDecode(token string) (user string, role Role, err error)
}

// Role is the level of access a user has. Roles are ordered so that each
// one can do everything the ones below it can.
type Role int

const (
	RoleUnknown Role = iota
	RoleRead
	RoleWrite
	RoleAdmin
)

var roleNames = []string{"unknown", "read", "write", "admin"}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

func atoRole(s string) Role {
	s = strings.ToLower(s)
	for i, name := range roleNames {
		if s == name {
			return Role(i)
		}
	}
	return RoleUnknown
}

// NewNobodyDecoder creates a TokenDecoder that for every possible token
// returns a user named "nobody" with the Admin role.
func NewNobodyDecoder() TokenDecoder {
	return nobodyDecoder{}
}

type nobodyDecoder struct{}

func (nobodyDecoder) TokenDecode(token string) (string, Role, error) {
	return "nobody", RoleAdmin, nil
}

// NewListDecoder makes a TokenDecoder backed by a fixed list of users read
// from r. Each line of r has the form
//
//	<user name>  <role>  <token>
//
// separated by spaces or tabs, so neither the user name nor the token may
// contain whitespace. The role is one of "Read", "Write", or "Admin" (case
// insensitive). Blank lines, lines beginning with '#', and lines without
// exactly three fields are skipped.
func NewListDecoder(r io.Reader) (TokenDecoder, error) {
	users, err := parseListFile(r)
	if err != nil {
		return nil, err
	}
	sort.Sort(byToken(users))
	return listDecoder{users}, nil
}

// NewListDecoderFile reads the given file into a ListDecoder.
func NewListDecoderFile(fname string) (TokenDecoder, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewListDecoder(f)
}

// NewListDecoderString passes the given string into a ListDecoder.
func NewListDecoderString(data string) (TokenDecoder, error) {
	return NewListDecoder(strings.NewReader(data))
}

func parseListFile(r io.Reader) ([]userEntry, error) {
	var result []userEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		pieces := strings.Fields(scanner.Text())
		if len(pieces) == 0 || pieces[0][0] == '#' {
			continue
		}
		if len(pieces) != 3 {
			continue
		}
		result = append(result, userEntry{
			user:  pieces[0],
			role:  atoRole(pieces[1]),
			token: pieces[2],
		})
	}
	return result, scanner.Err()
}

type listDecoder struct {
	data []userEntry // sorted by token
}

type userEntry struct {
	token string
	user  string
	role  Role
}

type byToken []userEntry

func (ue byToken) Len() int           { return len(ue) }
func (ue byToken) Less(i, j int) bool { return ue[i].token < ue[j].token }
func (ue byToken) Swap(i, j int)      { ue[i], ue[j] = ue[j], ue[i] }

func (ld listDecoder) TokenDecode(token string) (string, Role, error) {
	users := ld.data
	i := sort.Search(len(users), func(i int) bool { return users[i].token >= token })
	if token != "" && i < len(users) && users[i].token == token {
		return users[i].user, users[i].role, nil
	}
	return "", RoleUnknown, nil
}
