package main

import (
	"bytes"
	"io/ioutil"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ndlib/fragments/backend"
	"github.com/ndlib/fragments/fragclient"
	"github.com/ndlib/fragments/fragment"
	"github.com/ndlib/fragments/server"
)

func TestCommands(t *testing.T) {
	s := &server.RESTServer{Fragments: fragment.New(backend.NewMemory())}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	conn := &fragclient.Connection{HostURL: ts.URL}

	fname := filepath.Join(t.TempDir(), "note.txt")
	if err := ioutil.WriteFile(fname, []byte("a plain note"), 0644); err != nil {
		t.Fatal(err)
	}
	*mimetype = "text/plain"
	defer func() { *mimetype = "" }()

	var out bytes.Buffer
	if err := run(conn, &out, []string{"create", fname}); err != nil {
		t.Fatal(err)
	}
	id := strings.TrimSpace(out.String())

	var table = []struct {
		args     []string
		contains string
		fails    bool
	}{
		{[]string{"ls"}, id, false},
		{[]string{"get", id}, "a plain note", false},
		{[]string{"get", id + ".html"}, "", true},
		{[]string{"info", id}, "text/plain", false},
		{[]string{"update", id, fname}, "", false},
		{[]string{"version"}, "dev", false},
		{[]string{"info"}, "", true},
		{[]string{"bogus"}, "", true},
		{[]string{"rm", id}, "", false},
		{[]string{"rm", id}, "", true},
	}
	for _, row := range table {
		out.Reset()
		err := run(conn, &out, row.args)
		if (err != nil) != row.fails {
			t.Errorf("%v: received error %v", row.args, err)
		}
		if !strings.Contains(out.String(), row.contains) {
			t.Errorf("%v: received %q, expected it to contain %q", row.args, out.String(), row.contains)
		}
	}
}
