package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arbormap/arbor/pkg/store"
	"github.com/arbormap/arbor/pkg/tree"
)

// newTestServer builds a server with a file persister in a temp dir and
// autosave enabled, returning the server and its stores.
func newTestServer(t *testing.T) (*Server, *store.Store, *store.FileStore) {
	t.Helper()
	st := store.New()
	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	srv := New(st,
		WithPersister(NewFilePersister(fs)),
		WithAutosave(fs),
	)
	return srv, st, fs
}

// doJSON performs a request with an optional JSON body and decodes the
// JSON response into out when non-nil.
func doJSON(t *testing.T, h http.Handler, method, path string, body, out any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec
}

func TestPersonLifecycle(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	var created tree.Person
	rec := doJSON(t, h, http.MethodPost, "/api/persons", map[string]string{
		"name":   "Ada",
		"gender": "female",
	}, &created)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", rec.Code)
	}
	if created.ID == "" || created.Name != "Ada" {
		t.Fatalf("created = %+v", created)
	}

	var listed []tree.Person
	doJSON(t, h, http.MethodGet, "/api/persons", nil, &listed)
	if len(listed) != 1 {
		t.Fatalf("listed = %d persons, want 1", len(listed))
	}

	var fetched tree.Person
	rec = doJSON(t, h, http.MethodGet, "/api/persons/"+created.ID, nil, &fetched)
	if rec.Code != http.StatusOK || fetched.Name != "Ada" {
		t.Errorf("get = %d, %+v", rec.Code, fetched)
	}

	var updated tree.Person
	rec = doJSON(t, h, http.MethodPut, "/api/persons/"+created.ID, map[string]string{
		"name": "Ada Lovelace",
	}, &updated)
	if rec.Code != http.StatusOK || updated.Name != "Ada Lovelace" {
		t.Errorf("update = %d, %+v", rec.Code, updated)
	}

	rec = doJSON(t, h, http.MethodPatch, "/api/persons/"+created.ID+"/position", map[string]float64{
		"x": 10, "y": 20,
	}, &updated)
	if rec.Code != http.StatusOK || updated.X != 10 || updated.Y != 20 {
		t.Errorf("position = %d, (%v, %v)", rec.Code, updated.X, updated.Y)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/persons/"+created.ID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d, want 200", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/persons/"+created.ID, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", rec.Code)
	}
}

func TestPersonValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "EmptyName", method: http.MethodPost, path: "/api/persons", body: map[string]string{"name": " "}, want: http.StatusBadRequest},
		{name: "UnknownGet", method: http.MethodGet, path: "/api/persons/ghost", want: http.StatusNotFound},
		{name: "UnknownUpdate", method: http.MethodPut, path: "/api/persons/ghost", body: map[string]string{"name": "x"}, want: http.StatusNotFound},
		{name: "UnknownDelete", method: http.MethodDelete, path: "/api/persons/ghost", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, tt.method, tt.path, tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestBulkPositions(t *testing.T) {
	srv, st, _ := newTestServer(t)
	h := srv.Handler()

	a := st.CreatePerson(tree.Person{Name: "A"})
	b := st.CreatePerson(tree.Person{Name: "B"})

	var result map[string]int
	rec := doJSON(t, h, http.MethodPatch, "/api/persons/positions", map[string]any{
		"positions": []map[string]any{
			{"id": a.ID, "x": 1, "y": 2},
			{"id": b.ID, "x": 3, "y": 4},
			{"id": "ghost", "x": 5, "y": 6},
		},
	}, &result)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if result["updated"] != 2 {
		t.Errorf("updated = %d, want 2", result["updated"])
	}
}

func TestMarriageAndChildren(t *testing.T) {
	srv, st, _ := newTestServer(t)
	h := srv.Handler()

	a := st.CreatePerson(tree.Person{Name: "A"})
	b := st.CreatePerson(tree.Person{Name: "B"})
	c := st.CreatePerson(tree.Person{Name: "C"})

	var m tree.Marriage
	rec := doJSON(t, h, http.MethodPost, "/api/marriages", map[string]string{
		"spouse1_id": a.ID, "spouse2_id": b.ID, "date": "1990-06-01",
	}, &m)
	if rec.Code != http.StatusCreated || m.Order != 1 {
		t.Fatalf("marriage = %d, %+v", rec.Code, m)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/marriages", map[string]string{
		"spouse1_id": a.ID, "spouse2_id": "ghost",
	}, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown spouse status = %d, want 404", rec.Code)
	}

	var rel tree.ParentChild
	rec = doJSON(t, h, http.MethodPost, "/api/children", map[string]string{
		"parent_id": a.ID, "child_id": c.ID, "marriage_id": m.ID,
	}, &rel)
	if rec.Code != http.StatusCreated || rel.ChildID != c.ID {
		t.Fatalf("child = %d, %+v", rec.Code, rel)
	}

	// Duplicate relation is rejected.
	rec = doJSON(t, h, http.MethodPost, "/api/children", map[string]string{
		"parent_id": a.ID, "child_id": c.ID,
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate status = %d, want 400", rec.Code)
	}

	var rels []tree.ParentChild
	doJSON(t, h, http.MethodGet, "/api/children", nil, &rels)
	if len(rels) != 1 {
		t.Errorf("relations = %d, want 1", len(rels))
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/children/"+a.ID+"/"+c.ID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("remove child status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/marriages/"+m.ID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete marriage status = %d, want 200", rec.Code)
	}
	var marriages []tree.Marriage
	doJSON(t, h, http.MethodGet, "/api/marriages", nil, &marriages)
	if len(marriages) != 0 {
		t.Errorf("marriages = %d, want 0", len(marriages))
	}
}

func TestTreeStateAndHistory(t *testing.T) {
	srv, st, _ := newTestServer(t)
	h := srv.Handler()

	// Nothing to undo or redo on a fresh tree.
	if rec := doJSON(t, h, http.MethodPost, "/api/tree/undo", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("undo status = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPost, "/api/tree/redo", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("redo status = %d, want 400", rec.Code)
	}

	p := st.CreatePerson(tree.Person{Name: "Ada"})

	var state struct {
		Tree    tree.Tree `json:"tree"`
		CanUndo bool      `json:"can_undo"`
		CanRedo bool      `json:"can_redo"`
	}
	doJSON(t, h, http.MethodGet, "/api/tree", nil, &state)
	if len(state.Tree.Persons) != 1 || !state.CanUndo || state.CanRedo {
		t.Errorf("state = %+v", state)
	}

	if rec := doJSON(t, h, http.MethodPost, "/api/tree/undo", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("undo status = %d, want 200", rec.Code)
	}
	if _, err := st.Person(p.ID); err == nil {
		t.Error("person survived undo")
	}
	if rec := doJSON(t, h, http.MethodPost, "/api/tree/redo", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("redo status = %d, want 200", rec.Code)
	}
	if _, err := st.Person(p.ID); err != nil {
		t.Error("person not restored by redo")
	}

	if rec := doJSON(t, h, http.MethodPost, "/api/tree/new", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("new status = %d, want 200", rec.Code)
	}
	if len(st.Persons()) != 0 {
		t.Error("new tree not empty")
	}
}

func TestTreeSaveLoadFiles(t *testing.T) {
	srv, st, _ := newTestServer(t)
	h := srv.Handler()

	st.CreatePerson(tree.Person{Name: "Ada"})

	var saved struct {
		Filename string `json:"filename"`
	}
	rec := doJSON(t, h, http.MethodPost, "/api/tree/save", map[string]string{
		"filename": "my_family",
	}, &saved)
	if rec.Code != http.StatusOK || saved.Filename != "my_family.json" {
		t.Fatalf("save = %d, %+v", rec.Code, saved)
	}

	var files struct {
		Files []store.FileInfo `json:"files"`
	}
	doJSON(t, h, http.MethodGet, "/api/tree/files", nil, &files)
	if len(files.Files) != 1 || files.Files[0].Filename != "my_family.json" {
		t.Errorf("files = %+v", files.Files)
	}

	st.Reset()

	rec = doJSON(t, h, http.MethodPost, "/api/tree/load", map[string]string{
		"filename": "my_family.json",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d, want 200", rec.Code)
	}
	if len(st.Persons()) != 1 {
		t.Error("loaded tree not active")
	}

	rec = doJSON(t, h, http.MethodPost, "/api/tree/load", map[string]string{
		"filename": "absent.json",
	}, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("load absent status = %d, want 404", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/tree/load", map[string]string{}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("load without filename status = %d, want 400", rec.Code)
	}
}

func TestLayoutEndpoint(t *testing.T) {
	srv, st, _ := newTestServer(t)
	h := srv.Handler()

	a := st.CreatePerson(tree.Person{Name: "A"})
	b := st.CreatePerson(tree.Person{Name: "B"})
	m, err := st.CreateMarriage(a.ID, b.ID, "")
	if err != nil {
		t.Fatalf("CreateMarriage: %v", err)
	}
	c := st.CreatePerson(tree.Person{Name: "C"})
	if _, err := st.AddChild(a.ID, c.ID, m.ID); err != nil {
		t.Fatalf("AddChild: %v", err)
	}

	var result struct {
		Status    string                        `json:"status"`
		Positions map[string]map[string]float64 `json:"positions"`
	}
	rec := doJSON(t, h, http.MethodPost, "/api/tree/layout", map[string]string{
		"root_person_id": a.ID,
	}, &result)
	if rec.Code != http.StatusOK {
		t.Fatalf("layout status = %d, want 200", rec.Code)
	}
	if len(result.Positions) != 3 {
		t.Fatalf("positions = %d entries, want 3", len(result.Positions))
	}

	got, _ := st.Person(c.ID)
	if got.Y == 0 {
		t.Error("layout not written back to store")
	}

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{name: "MissingRoot", body: map[string]string{}, want: http.StatusBadRequest},
		{name: "UnknownRoot", body: map[string]string{"root_person_id": "ghost"}, want: http.StatusNotFound},
		{name: "BadDirection", body: map[string]string{"root_person_id": a.ID, "direction": "diagonal"}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/tree/layout", tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestExportEndpoint(t *testing.T) {
	srv, st, _ := newTestServer(t)
	h := srv.Handler()

	st.CreatePerson(tree.Person{Name: "Ada"})

	rec := doJSON(t, h, http.MethodPost, "/api/tree/export", map[string]string{
		"format": "svg",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q, want image/svg+xml", ct)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("<svg")) {
		t.Error("body is not an SVG")
	}

	rec = doJSON(t, h, http.MethodPost, "/api/tree/export", map[string]string{
		"format": "bmp",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid format status = %d, want 400", rec.Code)
	}
}

func TestAutosaveAfterMutation(t *testing.T) {
	srv, _, fs := newTestServer(t)
	h := srv.Handler()

	doJSON(t, h, http.MethodPost, "/api/persons", map[string]string{"name": "Ada"}, nil)

	saved, err := fs.LoadLive()
	if err != nil {
		t.Fatalf("LoadLive: %v", err)
	}
	if saved == nil || len(saved.Persons) != 1 {
		t.Errorf("autosave = %+v, want one person", saved)
	}
}

func TestNoPersisterConfigured(t *testing.T) {
	srv := New(store.New())
	h := srv.Handler()

	for _, path := range []string{"/api/tree/save", "/api/tree/load"} {
		rec := doJSON(t, h, http.MethodPost, path, map[string]string{"filename": "x"}, nil)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s status = %d, want 500", path, rec.Code)
		}
	}
}
