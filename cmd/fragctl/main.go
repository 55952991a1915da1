package main

// The fragctl tool works with the fragments stored on a fragments server.

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"mime"
	"os"
	"path/filepath"

	"github.com/ndlib/fragments/fragclient"
)

// various command line flags, with default values

var (
	serverURL = flag.String("server", "http://localhost:8080", "Fragments Server to Use")
	token     = flag.String("token", os.Getenv("FRAGMENTS_TOKEN"), "API token. Defaults to $FRAGMENTS_TOKEN")
	mimetype  = flag.String("type", "", "Content type of uploads. Guessed from the file extension if not given")
	expand    = flag.Bool("l", false, "List full metadata")
	usage     = `
fragctl <flags> <command> <command arguments>

Possible commands:

    ls
    create <file>
    get <id>[.ext]
    info <id>
    update <id> <file>
    rm <id>
    version

`
)

// main program

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	conn := &fragclient.Connection{HostURL: *serverURL, Token: *token}
	if err := run(conn, os.Stdout, args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// nargs is the number of arguments each command takes.
var nargs = map[string]int{
	"ls":      0,
	"create":  1,
	"get":     1,
	"info":    1,
	"update":  2,
	"rm":      1,
	"version": 0,
}

func run(conn *fragclient.Connection, out io.Writer, args []string) error {
	n, ok := nargs[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %s", args[0])
	}
	if len(args)-1 != n {
		return fmt.Errorf("%s takes %d arguments", args[0], n)
	}

	switch args[0] {
	case "ls":
		return doLs(conn, out)
	case "create":
		typ, data, err := readUpload(args[1])
		if err != nil {
			return err
		}
		info, err := conn.Create(typ, data)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, info.ID)
	case "get":
		_, err := conn.Download(out, args[1])
		return err
	case "info":
		info, err := conn.Info(args[1])
		if err != nil {
			return err
		}
		printInfo(out, info)
		fmt.Fprintln(out, "Formats:", info.Formats)
	case "update":
		typ, data, err := readUpload(args[2])
		if err != nil {
			return err
		}
		_, err = conn.Update(args[1], typ, data)
		return err
	case "rm":
		return conn.Delete(args[1])
	case "version":
		v, err := conn.Version()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, v)
	}
	return nil
}

func doLs(conn *fragclient.Connection, out io.Writer) error {
	if !*expand {
		ids, err := conn.List()
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return err
	}
	list, err := conn.ListExpanded()
	for _, info := range list {
		printInfo(out, info)
	}
	return err
}

func printInfo(out io.Writer, info fragclient.Info) {
	fmt.Fprintf(out, "%s\t%s\t%d\t%s\t%s\n",
		info.ID, info.Type, info.Size, info.Created, info.Updated)
}

// readUpload reads fname and decides its content type.
func readUpload(fname string) (string, []byte, error) {
	data, err := ioutil.ReadFile(fname)
	if err != nil {
		return "", nil, err
	}
	typ := *mimetype
	if typ == "" {
		typ = mime.TypeByExtension(filepath.Ext(fname))
	}
	if typ == "" {
		return "", nil, fmt.Errorf("cannot tell the type of %s, use -type", fname)
	}
	return typ, data, nil
}
