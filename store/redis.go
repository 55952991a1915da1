package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	raven "github.com/getsentry/raven-go"
	"github.com/redis/go-redis/v9"
)

// Redis is a store kept in a redis server. Every key is prefixed by Prefix
// so one redis database may be shared.
type Redis struct {
	client *redis.Client
	Prefix string
}

var _ Store = &Redis{}

// NewRedis connects to the redis server given by the URL redisURL, e.g.
// "redis://localhost:6379/0".
func NewRedis(redisURL, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &Redis{client: redis.NewClient(opts), Prefix: prefix}, nil
}

// Close closes the connection pool.
func (s *Redis) Close() error {
	return s.client.Close()
}

// List returns a channel listing all the keys with our prefix.
func (s *Redis) List() <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		err := s.scan("", func(key string) { out <- key })
		if err != nil {
			log.Println("Redis List:", s.Prefix, err)
			raven.CaptureError(err, map[string]string{"Prefix": s.Prefix})
		}
	}()
	return out
}

// ListPrefix returns the keys beginning with prefix.
func (s *Redis) ListPrefix(prefix string) ([]string, error) {
	var result []string
	err := s.scan(prefix, func(key string) { result = append(result, key) })
	return result, err
}

func (s *Redis) scan(prefix string, emit func(string)) error {
	ctx := context.Background()
	match := globEscape(s.Prefix+prefix) + "*"
	iter := s.client.Scan(ctx, 0, match, 500).Iterator()
	for iter.Next(ctx) {
		emit(strings.TrimPrefix(iter.Val(), s.Prefix))
	}
	return iter.Err()
}

// Open reads the value of key.
func (s *Redis) Open(key string) (ReadAtCloser, int64, error) {
	data, err := s.client.Get(context.Background(), s.Prefix+key).Bytes()
	if err == redis.Nil {
		return nil, 0, fmt.Errorf("%s: %w", key, ErrNotExist)
	} else if err != nil {
		return nil, 0, err
	}
	return nopCloser{bytes.NewReader(data)}, int64(len(data)), nil
}

// Create returns a writer for key. The value is sent when the writer is
// closed, and only if no other client created the key in the meantime.
func (s *Redis) Create(key string) (io.WriteCloser, error) {
	n, err := s.client.Exists(context.Background(), s.Prefix+key).Result()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrKeyExists
	}
	return &redisWriter{parent: s, key: key}, nil
}

// Delete removes key. It is not an error if the key does not exist.
func (s *Redis) Delete(key string) error {
	return s.client.Del(context.Background(), s.Prefix+key).Err()
}

type redisWriter struct {
	parent *Redis
	key    string
	buf    bytes.Buffer
}

func (w *redisWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *redisWriter) Close() error {
	s := w.parent
	ok, err := s.client.SetNX(context.Background(), s.Prefix+w.key, w.buf.Bytes(), 0).Result()
	if err != nil {
		log.Println("Redis Put:", s.Prefix, w.key, err)
		return err
	}
	if !ok {
		return ErrKeyExists
	}
	return nil
}
