package store

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	raven "github.com/getsentry/raven-go"
)

// A S3 store represents a store that is kept on AWS S3 storage, or on any
// service speaking the same API (e.g. Minio).
// Do not change Bucket or Prefix concurrently with calls using the structure.
type S3 struct {
	svc    *s3.S3
	Bucket string
	Prefix string
	sizes  *sizecache // keep HEAD info
}

var _ Store = &S3{}

// NewS3 creates a new S3 store. It will use the given bucket and will prepend
// prefix to all keys. This is to allow for a bucket to be used for more than
// one store. For example if prefix were "fragments/" then an Open("hello")
// would look for the key "fragments/hello" in the bucket. The authorization
// method and credentials in the session are used for all accesses.
func NewS3(bucket, prefix string, awsSession *session.Session) *S3 {
	return &S3{
		Bucket: bucket,
		Prefix: prefix,
		svc:    s3.New(awsSession),
		sizes:  newSizeCache(),
	}
}

// List returns a list of all the keys in this store. It will only return ones
// that satisfy the store's Prefix, so it is safe to use this on a bucket
// containing other items.
func (s *S3) List() <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		err := s.listPages("", func(key string) { out <- key })
		if err != nil {
			log.Println("S3 List:", s.Prefix, err)
			raven.CaptureError(err, map[string]string{"Bucket": s.Bucket, "Prefix": s.Prefix})
		}
	}()
	return out
}

// ListPrefix returns the keys in this store that have the given prefix.
// The argument prefix is added to the store's Prefix.
func (s *S3) ListPrefix(prefix string) ([]string, error) {
	var result []string
	err := s.listPages(prefix, func(key string) { result = append(result, key) })
	if err != nil {
		log.Println("S3 ListPrefix:", s.Prefix, prefix, err)
		raven.CaptureError(err, map[string]string{"Bucket": s.Bucket, "Prefix": s.Prefix, "Pattern": prefix})
	}
	return result, err
}

func (s *S3) listPages(prefix string, emit func(string)) error {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(s.Prefix + prefix),
	}
	return s.svc.ListObjectsV2Pages(input,
		func(page *s3.ListObjectsV2Output, lastpage bool) bool {
			for _, item := range page.Contents {
				emit(strings.TrimPrefix(*item.Key, s.Prefix))
			}
			return !lastpage
		})
}

// Open will return a ReadAtCloser for the content of the given key. Fragment
// payloads are small enough that the whole object is downloaded at once.
func (s *S3) Open(key string) (ReadAtCloser, int64, error) {
	// check that the key exists before doing a GET. The sizes are cached,
	// so this is usually free.
	if _, err := s.stat(key); err != nil {
		return nil, 0, err
	}
	output, err := s.svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Prefix + key),
	})
	if err != nil {
		if isS3NotFound(err) {
			s.sizes.Set(key, sizeDeleted)
			return nil, 0, fmt.Errorf("%s: %w", key, ErrNotExist)
		}
		log.Println("S3 Open:", s.Prefix, key, err)
		return nil, 0, err
	}
	data, err := ioutil.ReadAll(output.Body)
	output.Body.Close()
	if err != nil {
		return nil, 0, err
	}
	return nopCloser{bytes.NewReader(data)}, int64(len(data)), nil
}

// Create will return a WriteCloser to upload content to the given key. The
// content is buffered in memory and sent with a single PUT when the writer
// is closed.
func (s *S3) Create(key string) (io.WriteCloser, error) {
	_, err := s.stat(key)
	if err == nil {
		return nil, ErrKeyExists
	}
	if !IsNotExist(err) {
		return nil, err
	}
	return &s3WriteCloser{parent: s, key: key}, nil
}

// Delete will remove the given key from the store. The store's Prefix is
// prepended first. It is not an error to delete something that doesn't exist.
func (s *S3) Delete(key string) error {
	_, err := s.svc.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Prefix + key),
	})
	if err != nil {
		log.Println("S3 Delete:", s.Prefix, key, err)
		raven.CaptureError(err, map[string]string{"Bucket": s.Bucket, "Prefix": s.Prefix, "Key": key})
		return err
	}
	s.sizes.Set(key, sizeDeleted)
	return nil
}

// stat will check if a key exists, and if so it returns the size. If the item
// does not exist an error wrapping ErrNotExist is returned.
func (s *S3) stat(key string) (int64, error) {
	// Cache the key sizes as we see them. This drastically cuts down on the
	// number of HEAD requests.
	return s.sizes.Get(key, s.stat0)
}

// stat0 implements the actual HEAD request to s3. You probably want to call
// stat().
func (s *S3) stat0(key string) (int64, error) {
	info, err := s.svc.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Prefix + key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return sizeDeleted, fmt.Errorf("%s: %w", key, ErrNotExist)
		}
		return 0, err
	}
	return *info.ContentLength, nil
}

func isS3NotFound(err error) bool {
	if e, ok := err.(awserr.RequestFailure); ok && e.StatusCode() == http.StatusNotFound {
		return true
	}
	if e, ok := err.(awserr.Error); ok && e.Code() == s3.ErrCodeNoSuchKey {
		return true
	}
	return false
}

// s3WriteCloser buffers an upload to s3.
type s3WriteCloser struct {
	parent *S3
	key    string
	buf    bytes.Buffer
}

func (wc *s3WriteCloser) Write(p []byte) (int, error) {
	return wc.buf.Write(p)
}

func (wc *s3WriteCloser) Close() error {
	s := wc.parent
	source := bytes.NewReader(wc.buf.Bytes()) // need Seek()
	_, err := s.svc.PutObject(&s3.PutObjectInput{
		Body:          source,
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(s.Prefix + wc.key),
		ContentLength: aws.Int64(int64(source.Len())),
	})
	if err != nil {
		log.Println("S3 Put:", s.Prefix, wc.key, err)
		raven.CaptureError(err, map[string]string{"Bucket": s.Bucket, "Key": wc.key})
		return err
	}
	s.sizes.Set(wc.key, int64(wc.buf.Len()))
	return nil
}

// nopCloser adds a no-op Close to an in-memory reader.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
