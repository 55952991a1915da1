// Package fragclient is a client for the fragments REST API.
package fragclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	"github.com/antonholmquist/jason"
)

// A Connection represents a connection with a fragments server.
// It can be shared between multiple goroutines.
type Connection struct {
	// The fragments server this connection is to, e.g. "http://localhost:8080"
	HostURL string

	// The API token to send, if any.
	Token string

	client *http.Client
}

// Exported errors
var (
	ErrNotFound       = errors.New("Fragment Not Found")
	ErrNotAuthorized  = errors.New("Access Denied")
	ErrUnsupported    = errors.New("Unsupported Media Type")
	ErrBadRequest     = errors.New("Bad Request")
	ErrTooLarge       = errors.New("Fragment Too Large")
	ErrServerError    = errors.New("Server Error")
	ErrUnexpectedResp = errors.New("Unexpected Response Code")
)

// Info is the metadata of a fragment as reported by the server.
type Info struct {
	ID      string
	OwnerID string
	Created string
	Updated string
	Type    string
	Size    int64
	Formats []string // only filled in by Create, Update, and Info
}

// Version returns the version string reported by the server's health check.
func (c *Connection) Version() (string, error) {
	v, err := c.doJason("GET", "/", "", nil)
	if err != nil {
		return "", err
	}
	return v.GetString("version")
}

// Create makes a new fragment of type typ with the given content.
func (c *Connection) Create(typ string, data []byte) (Info, error) {
	v, err := c.doJason("POST", "/v1/fragments", typ, data)
	if err != nil {
		return Info{}, err
	}
	return infoFrom(v)
}

// List returns the ids of our fragments, oldest first.
func (c *Connection) List() ([]string, error) {
	v, err := c.doJason("GET", "/v1/fragments", "", nil)
	if err != nil {
		return nil, err
	}
	return v.GetStringArray("fragments")
}

// ListExpanded returns the metadata of our fragments, oldest first.
func (c *Connection) ListExpanded() ([]Info, error) {
	v, err := c.doJason("GET", "/v1/fragments?expand=1", "", nil)
	if err != nil {
		return nil, err
	}
	list, err := v.GetObjectArray("fragments")
	if err != nil {
		return nil, err
	}
	result := make([]Info, 0, len(list))
	for _, item := range list {
		result = append(result, recordFrom(item))
	}
	return result, nil
}

// Info returns the metadata of the fragment id.
func (c *Connection) Info(id string) (Info, error) {
	v, err := c.doJason("GET", "/v1/fragments/"+url.PathEscape(id)+"/info", "", nil)
	if err != nil {
		return Info{}, err
	}
	return infoFrom(v)
}

// Update replaces the content of the fragment id. The type must have the
// same base type as the fragment.
func (c *Connection) Update(id, typ string, data []byte) (Info, error) {
	v, err := c.doJason("PUT", "/v1/fragments/"+url.PathEscape(id), typ, data)
	if err != nil {
		return Info{}, err
	}
	return infoFrom(v)
}

// Delete removes the fragment id.
func (c *Connection) Delete(id string) error {
	_, err := c.doJason("DELETE", "/v1/fragments/"+url.PathEscape(id), "", nil)
	return err
}

// Download copies the fragment id to w. The id may end in an extension,
// such as ".html", to have the fragment converted. It returns the content
// type reported by the server.
func (c *Connection) Download(w io.Writer, id string) (string, error) {
	req, err := http.NewRequest("GET", c.HostURL+"/v1/fragments/"+url.PathEscape(id), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", statusError(resp.StatusCode)
	}
	_, err = io.Copy(w, resp.Body)
	return resp.Header.Get("Content-Type"), err
}

// Get returns the content of fragment id. See Download.
func (c *Connection) Get(id string) ([]byte, string, error) {
	var buf bytes.Buffer
	typ, err := c.Download(&buf, id)
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), typ, nil
}

// infoFrom decodes a response having a "fragment" and a "formats" field.
func infoFrom(v *jason.Object) (Info, error) {
	f, err := v.GetObject("fragment")
	if err != nil {
		return Info{}, err
	}
	result := recordFrom(f)
	result.Formats, _ = v.GetStringArray("formats")
	return result, nil
}

func recordFrom(v *jason.Object) Info {
	var result Info
	result.ID, _ = v.GetString("id")
	result.OwnerID, _ = v.GetString("ownerId")
	result.Created, _ = v.GetString("created")
	result.Updated, _ = v.GetString("updated")
	result.Type, _ = v.GetString("type")
	result.Size, _ = v.GetInt64("size")
	return result
}

func statusError(code int) error {
	switch {
	case code == 400:
		return ErrBadRequest
	case code == 401:
		return ErrNotAuthorized
	case code == 404:
		return ErrNotFound
	case code == 413:
		return ErrTooLarge
	case code == 415:
		return ErrUnsupported
	case code >= 500:
		return ErrServerError
	}
	return fmt.Errorf("%w: %d", ErrUnexpectedResp, code)
}

// doJason performs a request and decodes the JSON envelope of the response.
// If typ is not empty it is sent as the Content-Type of data.
func (c *Connection) doJason(method, path, typ string, data []byte) (*jason.Object, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.HostURL+path, body)
	if err != nil {
		return nil, err
	}
	if typ != "" {
		req.Header.Set("Content-Type", typ)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case 200, 201:
		return jason.NewObjectFromReader(resp.Body)
	default:
		io.Copy(ioutil.Discard, resp.Body)
		return nil, statusError(resp.StatusCode)
	}
}

// do performs an http request using our client with a timeout. The
// timeout is arbitrary, and is just there so we don't hang indefinitely
// should the server never close the connection.
func (c *Connection) do(req *http.Request) (*http.Response, error) {
	if c.Token != "" {
		req.Header.Add("X-Api-Key", c.Token)
	}
	if c.client == nil {
		c.client = &http.Client{
			Timeout: 2 * time.Minute, // arbitrary
		}
	}
	return c.client.Do(req)
}
