package server

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ndlib/fragments/backend"
	"github.com/ndlib/fragments/blobcache"
	"github.com/ndlib/fragments/fragment"
	"github.com/ndlib/fragments/store"
)

const testTokens = `
alice  write  alice-token
bob    write  bob-token
rita   read   rita-token
`

func TestHealth(t *testing.T) {
	resp := checkRoute(t, "GET", "/", "", 200)
	if resp == nil {
		return
	}
	defer resp.Body.Close()
	if resp.Header.Get("Cache-Control") != "no-cache" {
		t.Errorf("Cache-Control = %q", resp.Header.Get("Cache-Control"))
	}
	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" || body["githubUrl"] != GitHubURL {
		t.Errorf("Received %v", body)
	}
}

func TestAuthorization(t *testing.T) {
	var table = []struct {
		verb   string
		route  string
		token  string
		status int
	}{
		{"GET", "/v1/fragments", "", 401},
		{"GET", "/v1/fragments", "wrong", 401},
		{"GET", "/v1/fragments", "rita-token", 200},
		{"POST", "/v1/fragments", "rita-token", 401},
		{"DELETE", "/v1/fragments/abc", "rita-token", 401},
		{"GET", "/debug/vars", "", 200},
	}
	for _, row := range table {
		checkStatus(t, row.verb, row.route, row.token, row.status)
	}

	// basic auth carries the token as the password
	req, _ := http.NewRequest("GET", testServer.URL+"/v1/fragments", nil)
	req.SetBasicAuth("alice", "alice-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("basic auth: received status %d", resp.StatusCode)
	}
}

func TestFragmentLifecycle(t *testing.T) {
	const tok = "alice-token"
	location := upload(t, "POST", "/v1/fragments", tok, "text/markdown", "# Fragments\n\nThis is a **fragment**.", 201)
	if !strings.HasPrefix(location, "/v1/fragments/") {
		t.Fatalf("Location = %q", location)
	}

	// stored form
	resp := checkRoute(t, "GET", location, tok, 200)
	if resp != nil {
		body, _ := ioutil.ReadAll(resp.Body)
		resp.Body.Close()
		if ct := resp.Header.Get("Content-Type"); ct != "text/markdown; charset=utf-8" {
			t.Errorf("Content-Type = %q", ct)
		}
		if string(body) != "# Fragments\n\nThis is a **fragment**." {
			t.Errorf("Received %q", body)
		}
	}

	html := getbody(t, "GET", location+".html", tok, 200)
	if !strings.Contains(html, "<h1>Fragments</h1>") || !strings.Contains(html, "<strong>fragment</strong>") {
		t.Errorf("Received %q", html)
	}
	text := getbody(t, "GET", location+".txt", tok, 200)
	if strings.Contains(text, "<") || !strings.Contains(text, "Fragments") {
		t.Errorf("Received %q", text)
	}
	checkStatus(t, "GET", location+".png", tok, 415)

	// info
	var info struct {
		Status   string
		Fragment struct {
			ID      string
			OwnerID string
			Type    string
			Size    int64
			Updated string
		}
		Formats []string
	}
	getjson(t, location+"/info", tok, &info)
	if info.Fragment.Type != "text/markdown" || info.Fragment.Size != 36 {
		t.Errorf("Received %+v", info)
	}
	if info.Fragment.OwnerID != ownerID("alice") {
		t.Errorf("ownerId = %q, expected %q", info.Fragment.OwnerID, ownerID("alice"))
	}
	if len(info.Formats) != 3 {
		t.Errorf("formats = %v", info.Formats)
	}

	// list
	var list struct {
		Fragments []string
	}
	getjson(t, "/v1/fragments", tok, &list)
	if len(list.Fragments) != 1 || list.Fragments[0] != info.Fragment.ID {
		t.Errorf("Received %v", list.Fragments)
	}
	var expanded struct {
		Fragments []map[string]interface{}
	}
	getjson(t, "/v1/fragments?expand=1", tok, &expanded)
	if len(expanded.Fragments) != 1 || expanded.Fragments[0]["type"] != "text/markdown" {
		t.Errorf("Received %v", expanded.Fragments)
	}

	// other owners see nothing
	getjson(t, "/v1/fragments", "bob-token", &list)
	if len(list.Fragments) != 0 {
		t.Errorf("bob received %v", list.Fragments)
	}
	checkStatus(t, "GET", location, "bob-token", 404)

	// update
	upload(t, "PUT", location, tok, "text/html", "<p>hi</p>", 400)
	upload(t, "PUT", location, tok, "image/bmp", "BM", 415)
	upload(t, "PUT", location, tok, "text/markdown; charset=utf-8", "_new_", 200)
	text = getbody(t, "GET", location, tok, 200)
	if text != "_new_" {
		t.Errorf("Received %q", text)
	}

	// delete
	checkStatus(t, "DELETE", location, "bob-token", 404)
	checkStatus(t, "DELETE", location, tok, 200)
	checkStatus(t, "DELETE", location, tok, 404)
	checkStatus(t, "GET", location, tok, 404)
	checkStatus(t, "GET", location+"/info", tok, 404)
}

func TestCreateErrors(t *testing.T) {
	const tok = "bob-token"
	upload(t, "POST", "/v1/fragments", tok, "application/zip", "PK", 415)
	upload(t, "POST", "/v1/fragments", tok, "", "xyz", 415)
	upload(t, "POST", "/v1/fragments", tok, "text/plain", strings.Repeat("x", testMaxBody+1), 413)

	body := getbody(t, "GET", "/v1/fragments/missing", tok, 404)
	var envelope struct {
		Status string
		Error  struct {
			Code    int
			Message string
		}
	}
	json.Unmarshal([]byte(body), &envelope)
	if envelope.Status != "error" || envelope.Error.Code != 404 {
		t.Errorf("Received %q", body)
	}
}

func upload(t *testing.T, verb, route, token, ctype, body string, expstatus int) string {
	req, err := http.NewRequest(verb, testServer.URL+route, strings.NewReader(body))
	if err != nil {
		t.Fatal("Problem creating request", err)
	}
	req.Header.Set("X-Api-Key", token)
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(route, err)
		return ""
	}
	io.Copy(ioutil.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != expstatus {
		t.Errorf("%s %s: Expected status %d and received %d",
			verb,
			route,
			expstatus,
			resp.StatusCode)
	}
	return resp.Header.Get("Location")
}

func getjson(t *testing.T, route, token string, v interface{}) {
	body := getbody(t, "GET", route, token, 200)
	if err := json.Unmarshal([]byte(body), v); err != nil {
		t.Errorf("%s: %s", route, err)
	}
}

func getbody(t *testing.T, verb, route, token string, expstatus int) string {
	resp := checkRoute(t, verb, route, token, expstatus)
	if resp != nil {
		body, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(route, err)
		}
		resp.Body.Close()
		return string(body)
	}
	return ""
}

func checkStatus(t *testing.T, verb, route, token string, expstatus int) {
	resp := checkRoute(t, verb, route, token, expstatus)
	if resp != nil {
		resp.Body.Close()
	}
}

func checkRoute(t *testing.T, verb, route, token string, expstatus int) *http.Response {
	req, err := http.NewRequest(verb, testServer.URL+route, nil)
	if err != nil {
		t.Fatal("Problem creating request", err)
	}
	if token != "" {
		req.Header.Set("X-Api-Key", token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(route, err)
		return nil
	}
	if resp.StatusCode != expstatus {
		t.Errorf("%s %s: Expected status %d and received %d",
			verb,
			route,
			expstatus,
			resp.StatusCode)
		resp.Body.Close()
		return nil
	}
	return resp
}

const testMaxBody = 1 << 12

var testServer *httptest.Server

func init() {
	validator, err := NewListDecoderString(testTokens)
	if err != nil {
		panic(err)
	}
	fragments := fragment.New(backend.NewMemory())
	fragments.Cache = blobcache.NewLRU(store.NewMemory(), 1<<20)
	s := &RESTServer{
		Fragments:   fragments,
		Validator:   validator,
		MaxBodySize: testMaxBody,
	}
	testServer = httptest.NewServer(s.Handler())
}
