package main

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/ndlib/fragments/backend"
	"github.com/ndlib/fragments/store"
)

// splitBucketPrefix will take a path and separate the bucket name from a prefix, if any.
// It will also append "addition" to the prefix, and make sure the prefix returned is
// either empty or ends with a slash "/".
//
// examples:
//
//	"" -> ("", "")
//	"bucket" -> ("bucket", "")
//	"bucket/and/a/prefix" -> ("bucket", "and/a/prefix/")
func splitBucketPrefix(location string, addition string) (bucket, prefix string) {
	if location == "" {
		return
	}
	location = strings.TrimPrefix(location, "/")
	v := strings.SplitN(location, "/", 2)
	bucket = v[0]
	if len(v) > 1 {
		prefix = v[1]
	}
	if addition != "" {
		prefix = path.Join(prefix, addition)
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}
	return
}

// isMemory reports whether location names an in-memory store.
func isMemory(location string) bool {
	return location == "" || location == "memory"
}

// parselocation will create an appropriate store based on "location". The
// string addition is appended to the path or key prefix, so one location may
// hold more than one store. It understands the schemes "file:", "s3:",
// "badger:", and "redis:". A location without a scheme is a directory, and
// an empty location or "memory" gives a memory store.
func parselocation(location string, addition string) (store.Store, error) {
	if isMemory(location) {
		return store.NewMemory(), nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "", "file":
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		p = filepath.Join(p, addition)
		if err := os.MkdirAll(p, 0755); err != nil {
			return nil, err
		}
		return store.NewFileSystem(p), nil
	case "s3":
		conf := &aws.Config{}
		if u.Host != "" {
			conf.Endpoint = aws.String(u.Host)
			conf.Region = aws.String("us-east-1")
			// disable SSL for local development
			if strings.Contains(u.Host, "localhost") {
				conf.DisableSSL = aws.Bool(true)
				conf.S3ForcePathStyle = aws.Bool(true)
			}
		}
		bucket, prefix := splitBucketPrefix(u.Path, addition)
		if bucket == "" {
			return nil, fmt.Errorf("no bucket name in location %s", location)
		}
		sess, err := session.NewSession(conf)
		if err != nil {
			return nil, err
		}
		return store.NewS3(bucket, prefix, sess), nil
	case "badger":
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		if p != "" {
			p = filepath.Join(p, addition)
		}
		s, err := store.OpenBadger(p)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis", "rediss":
		prefix := "fragments:"
		if addition != "" {
			prefix += addition + ":"
		}
		s, err := store.NewRedis(location, prefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown location scheme %q in %s", u.Scheme, location)
}

// parsebackend makes the metadata backend described by location, keeping
// fragment data in the data store. Besides the store locations understood
// by parselocation, it accepts "ql:<file>", "ql:memory", and
// "mysql:<dsn>". When both metadata and data are in memory a single memory
// backend is used.
func parsebackend(location string, dataLocation string, data store.Store) (backend.Backend, error) {
	if isMemory(location) && isMemory(dataLocation) {
		return backend.NewMemory(), nil
	}
	var db *backend.SQL
	var err error
	switch {
	case strings.HasPrefix(location, "ql:"):
		db, err = backend.NewQL(strings.TrimPrefix(location, "ql:"), data)
	case strings.HasPrefix(location, "mysql:"):
		db, err = backend.NewMySQL(strings.TrimPrefix(location, "mysql:"), data)
	default:
		meta, err := parselocation(location, "metadata")
		if err != nil {
			return nil, err
		}
		return backend.NewBlob(meta, data), nil
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}
