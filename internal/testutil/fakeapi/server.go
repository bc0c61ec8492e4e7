// Package fakeapi runs an in-memory stand-in for the commercial-management
// backend. It speaks the same envelope format and enforces the backend's
// category rules so clients can be tested end to end.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/go-chi/chi/v5"
)

// Prefix is the path the API is mounted under.
const Prefix = "/api/v1"

// MaxLogoBytes mirrors the backend's upload limit.
const MaxLogoBytes = 2 << 20

// Recorded is a request the server received.
type Recorded struct {
	Header http.Header
	Method string
	Path   string
	Query  string
	Body   []byte
}

// Failure is an injected error response.
type Failure struct {
	Method  string
	Message string
	Fields  []map[string]any
	Status  int
	Raw     string
}

type record struct {
	createdAt   time.Time
	updatedAt   time.Time
	parentID    *int
	name        string
	description string
	products    []model.CategoryProduct
	id          int
	seq         int
	active      bool
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	settings   model.SystemConfiguration
	categories map[int]*record
	logoType   string
	logo       []byte
	failures   []Failure
	requests   []Recorded
	delay      time.Duration
	nextID     int
	seq        int
	mu         sync.Mutex
}

// New starts a fake backend that is closed when the test ends.
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		categories: make(map[int]*record),
		nextID:     1,
		settings:   model.DefaultSystemConfiguration(),
	}
	s.settings.Company = model.CompanyConfig{
		Name:    "Comercial Andina",
		RUC:     "1790012345001",
		Address: "Av. Amazonas 123",
		Phone:   "022345678",
		Email:   "admin@andina.ec",
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// URL returns the API base URL.
func (s *Server) URL() string {
	return s.Server.URL + Prefix
}

// Seed loads a forest. IDs are kept; parent links follow the nesting.
func (s *Server) Seed(forest []*model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var add func(nodes []*model.Category, parent *int)
	add = func(nodes []*model.Category, parent *int) {
		for _, c := range nodes {
			s.seq++
			s.categories[c.ID] = &record{
				id:          c.ID,
				name:        c.Name,
				description: c.Description,
				parentID:    parent,
				active:      c.IsActive,
				seq:         s.seq,
				createdAt:   c.CreatedAt,
				updatedAt:   c.UpdatedAt,
			}
			if c.ID >= s.nextID {
				s.nextID = c.ID + 1
			}
			add(c.Children, model.IntPtr(c.ID))
		}
	}
	add(forest, nil)
}

// SetProducts assigns products to a category.
func (s *Server) SetProducts(id int, products []model.CategoryProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.categories[id]; ok {
		rec.products = products
	}
}

// SetSettings replaces the stored configuration.
func (s *Server) SetSettings(cfg model.SystemConfiguration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = cfg
}

// Settings returns the stored configuration.
func (s *Server) Settings() model.SystemConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Logo returns the last uploaded logo and its declared content type.
func (s *Server) Logo() ([]byte, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logo, s.logoType
}

// SetDelay makes every response wait d before being written.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// FailNext makes the next request with the given method (any method when
// empty) fail with f.
func (s *Server) FailNext(f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, f)
}

// Requests returns every request received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recorded, len(s.requests))
	copy(out, s.requests)
	return out
}

// CountRequests returns how many requests matched method and path.
func (s *Server) CountRequests(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == Prefix+path {
			n++
		}
	}
	return n
}

// Exists reports whether a category with id is stored.
func (s *Server) Exists(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.categories[id]
	return ok
}

// Category returns a stored category without children.
func (s *Server) Category(id int) (model.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.categories[id]
	if !ok {
		return model.Category{}, false
	}
	return s.toModel(rec, s.depth(rec)), true
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.inject)

	r.Route(Prefix, func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.listCategories)
			r.Post("/", s.createCategory)
			r.Get("/health", s.health)
			r.Get("/{id}", s.getCategory)
			r.Put("/{id}", s.updateCategory)
			r.Delete("/{id}", s.deleteCategory)
			r.Patch("/{id}/status", s.setStatus)
			r.Get("/{id}/products", s.products)
		})
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.getSettings)
			r.Put("/", s.putSettings)
			r.Get("/health", s.health)
			r.Post("/logo", s.uploadLogo)
			r.Post("/backup/configure", s.configureBackup)
			r.Get("/technical/parameters", s.technical)
			r.Get("/{type}", s.getSection)
			r.Put("/{type}", s.putSection)
		})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		delay := s.delay
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var failure *Failure
		for i, f := range s.failures {
			if f.Method == "" || f.Method == r.Method {
				failure = &f
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				break
			}
		}
		s.mu.Unlock()

		if failure == nil {
			next.ServeHTTP(w, r)
			return
		}
		if failure.Raw != "" {
			w.WriteHeader(failure.Status)
			_, _ = io.WriteString(w, failure.Raw)
			return
		}
		writeJSON(w, failure.Status, map[string]any{
			"success": false,
			"message": failure.Message,
			"errors":  failure.Fields,
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, map[string]any{"success": true, "message": message, "data": data})
}

func fail(w http.ResponseWriter, status int, message string, fields ...map[string]any) {
	body := map[string]any{"success": false, "message": message}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	writeJSON(w, status, body)
}

func fieldError(field, message string, value any) map[string]any {
	return map[string]any{"field": field, "message": message, "value": value}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	ok(w, http.StatusOK, "healthy", map[string]any{"status": "ok"})
}

func pathID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

// depth must be called with mu held.
func (s *Server) depth(rec *record) int {
	d := 0
	for p := rec.parentID; p != nil; {
		parent, ok := s.categories[*p]
		if !ok {
			break
		}
		d++
		p = parent.parentID
	}
	return d
}

// children must be called with mu held.
func (s *Server) children(id *int) []*record {
	var out []*record
	for _, rec := range s.categories {
		switch {
		case id == nil && rec.parentID == nil:
			out = append(out, rec)
		case id != nil && rec.parentID != nil && *rec.parentID == *id:
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// toModel must be called with mu held.
func (s *Server) toModel(rec *record, level int) model.Category {
	c := model.Category{
		ID:          rec.id,
		Name:        rec.name,
		Description: rec.description,
		Level:       level,
		IsActive:    rec.active,
		CreatedAt:   rec.createdAt,
		UpdatedAt:   rec.updatedAt,
	}
	if rec.parentID != nil {
		c.ParentID = model.IntPtr(*rec.parentID)
		if parent, ok := s.categories[*rec.parentID]; ok {
			c.Parent = &model.CategoryRef{ID: parent.id, Name: parent.name, Level: level - 1}
		}
	}
	count := len(rec.products)
	c.ProductCount = &count
	return c
}

func matches(rec *record, status model.StatusFilter) bool {
	switch status {
	case model.StatusAll:
		return true
	case model.StatusInactive:
		return !rec.active
	default:
		return rec.active
	}
}

// subtree must be called with mu held. Subtrees under a node that does not
// match the filter are pruned.
func (s *Server) subtree(parent *int, status model.StatusFilter, level int) []*model.Category {
	var out []*model.Category
	for _, rec := range s.children(parent) {
		if !matches(rec, status) {
			continue
		}
		c := s.toModel(rec, level)
		c.Children = s.subtree(model.IntPtr(rec.id), status, level+1)
		out = append(out, &c)
	}
	return out
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	status := model.StatusFilter(r.URL.Query().Get("status"))
	if status == "" {
		status = model.StatusActive
	}
	if _, err := model.ParseStatusFilter(string(status)); err != nil {
		fail(w, http.StatusBadRequest, "invalid status", fieldError("status", err.Error(), status))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var forest []*model.Category
	if status == model.StatusInactive {
		// Inactive categories are listed flat since their parents may be active.
		for _, rec := range s.sorted() {
			if !rec.active {
				c := s.toModel(rec, 0)
				forest = append(forest, &c)
			}
		}
	} else {
		forest = s.subtree(nil, status, 0)
	}
	if forest == nil {
		forest = []*model.Category{}
	}
	ok(w, http.StatusOK, "categories retrieved", forest)
}

// sorted must be called with mu held.
func (s *Server) sorted() []*record {
	out := make([]*record, 0, len(s.categories))
	for _, rec := range s.categories {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found := s.categories[id]
	if !found {
		fail(w, http.StatusNotFound, "category not found")
		return
	}
	c := s.toModel(rec, s.depth(rec))
	c.Children = s.subtree(model.IntPtr(id), model.StatusAll, c.Level+1)
	ok(w, http.StatusOK, "category retrieved", c)
}

type categoryBody struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ParentID    *int    `json:"parentId"`
	IsActive    *bool   `json:"isActive"`
}

func validateName(name string) map[string]any {
	n := len([]rune(strings.TrimSpace(name)))
	if n < 2 || n > 100 {
		return fieldError("name", "name must be between 2 and 100 characters", name)
	}
	return nil
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Name == nil {
		fail(w, http.StatusUnprocessableEntity, "", fieldError("name", "name is required", nil))
		return
	}
	if fe := validateName(*body.Name); fe != nil {
		fail(w, http.StatusUnprocessableEntity, "", fe)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.categories {
		if strings.EqualFold(rec.name, *body.Name) && equalParent(rec.parentID, body.ParentID) {
			fail(w, http.StatusConflict, "a category with this name already exists at this level",
				fieldError("name", "duplicate name", *body.Name))
			return
		}
	}
	if body.ParentID != nil {
		if _, found := s.categories[*body.ParentID]; !found {
			fail(w, http.StatusUnprocessableEntity, "", fieldError("parentId", "parent category does not exist", *body.ParentID))
			return
		}
	}

	now := time.Now().UTC()
	s.seq++
	rec := &record{
		id:        s.nextID,
		name:      strings.TrimSpace(*body.Name),
		parentID:  body.ParentID,
		active:    body.IsActive == nil || *body.IsActive,
		seq:       s.seq,
		createdAt: now,
		updatedAt: now,
	}
	if body.Description != nil {
		rec.description = *body.Description
	}
	s.nextID++
	s.categories[rec.id] = rec

	ok(w, http.StatusCreated, "category created", s.toModel(rec, s.depth(rec)))
}

func equalParent(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// isAncestor must be called with mu held. It reports whether ancestor is on
// the parent chain of id, or is id itself.
func (s *Server) isAncestor(ancestor, id int) bool {
	for cur := &id; cur != nil; {
		if *cur == ancestor {
			return true
		}
		rec, found := s.categories[*cur]
		if !found {
			return false
		}
		cur = rec.parentID
	}
	return false
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var body categoryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found := s.categories[id]
	if !found {
		fail(w, http.StatusNotFound, "category not found")
		return
	}
	if body.Name != nil {
		if fe := validateName(*body.Name); fe != nil {
			fail(w, http.StatusUnprocessableEntity, "", fe)
			return
		}
	}
	if body.ParentID != nil {
		if _, found := s.categories[*body.ParentID]; !found {
			fail(w, http.StatusUnprocessableEntity, "", fieldError("parentId", "parent category does not exist", *body.ParentID))
			return
		}
		if s.isAncestor(id, *body.ParentID) {
			fail(w, http.StatusUnprocessableEntity, "a category cannot be moved under itself or its descendants",
				fieldError("parentId", "would create a cycle", *body.ParentID))
			return
		}
	}

	if body.Name != nil {
		rec.name = strings.TrimSpace(*body.Name)
	}
	if body.Description != nil {
		rec.description = *body.Description
	}
	if body.IsActive != nil {
		rec.active = *body.IsActive
	}
	rec.parentID = body.ParentID
	rec.updatedAt = time.Now().UTC()

	ok(w, http.StatusOK, "category updated", s.toModel(rec, s.depth(rec)))
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var body model.StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found := s.categories[id]
	if !found {
		fail(w, http.StatusNotFound, "category not found")
		return
	}
	rec.active = body.IsActive
	rec.updatedAt = time.Now().UTC()
	ok(w, http.StatusOK, "status updated", s.toModel(rec, s.depth(rec)))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found := s.categories[id]
	if !found {
		fail(w, http.StatusNotFound, "category not found")
		return
	}
	for _, child := range s.children(model.IntPtr(id)) {
		if child.active {
			fail(w, http.StatusConflict, "cannot delete a category that has active subcategories",
				fieldError("id", fmt.Sprintf("category %d has active subcategories", id), id))
			return
		}
	}
	if len(rec.products) > 0 {
		fail(w, http.StatusConflict, "cannot delete a category that has products")
		return
	}
	for _, child := range s.children(model.IntPtr(id)) {
		child.parentID = rec.parentID
	}
	delete(s.categories, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) products(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found := s.categories[id]
	if !found {
		fail(w, http.StatusNotFound, "category not found")
		return
	}

	var crumbs []model.CategoryRef
	for cur := rec; cur != nil; {
		crumbs = append([]model.CategoryRef{{ID: cur.id, Name: cur.name}}, crumbs...)
		if cur.parentID == nil {
			break
		}
		cur = s.categories[*cur.parentID]
	}
	for i := range crumbs {
		crumbs[i].Level = i
	}

	products := rec.products
	if products == nil {
		products = []model.CategoryProduct{}
	}
	ok(w, http.StatusOK, "products retrieved", model.CategoryProducts{
		Category:      s.toModel(rec, s.depth(rec)),
		Products:      products,
		Breadcrumb:    crumbs,
		TotalProducts: len(products),
	})
}

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	ok(w, http.StatusOK, "configuration retrieved", s.Settings())
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var update model.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}
	if len(update.Company.RUC) < 10 || len(update.Company.RUC) > 13 {
		fail(w, http.StatusUnprocessableEntity, "", fieldError("company.ruc", "RUC must have 10 to 13 digits", update.Company.RUC))
		return
	}

	s.mu.Lock()
	logo := s.settings.Company.Logo
	s.settings.Company = update.Company
	s.settings.Company.Logo = logo
	s.settings.Fiscal = update.Fiscal
	s.settings.Business = update.Business
	s.settings.Technical = update.Technical
	s.mu.Unlock()

	ok(w, http.StatusOK, "configuration updated", nil)
}

func (s *Server) getSection(w http.ResponseWriter, r *http.Request) {
	section := model.ConfigType(chi.URLParam(r, "type"))
	if !section.Valid() {
		fail(w, http.StatusNotFound, "unknown configuration type")
		return
	}

	cfg := s.Settings()
	raw, _ := json.Marshal(cfg)
	var all map[string]map[string]any
	_ = json.Unmarshal(raw, &all)

	ok(w, http.StatusOK, "configuration retrieved", model.ConfigurationSection{
		Type:        section,
		Data:        all[string(section)],
		LastUpdated: time.Now().UTC(),
	})
}

func (s *Server) putSection(w http.ResponseWriter, r *http.Request) {
	section := model.ConfigType(chi.URLParam(r, "type"))
	if !section.Valid() {
		fail(w, http.StatusNotFound, "unknown configuration type")
		return
	}
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()

	var target any
	switch section {
	case model.ConfigCompany:
		target = &s.settings.Company
	case model.ConfigFiscal:
		target = &s.settings.Fiscal
	case model.ConfigBusiness:
		target = &s.settings.Business
	case model.ConfigTechnical:
		target = &s.settings.Technical
	case model.ConfigBackup:
		target = &s.settings.Backup
	}
	if err := json.Unmarshal(body, target); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}
	ok(w, http.StatusOK, "configuration updated", nil)
}

func (s *Server) configureBackup(w http.ResponseWriter, r *http.Request) {
	var cfg model.BackupConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	s.settings.Backup = cfg
	s.mu.Unlock()

	ok(w, http.StatusOK, "backup configured", cfg)
}

func (s *Server) uploadLogo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxLogoBytes + 1024); err != nil {
		fail(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		fail(w, http.StatusUnprocessableEntity, "", fieldError("logo", "logo file is required", nil))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		fail(w, http.StatusBadRequest, "could not read logo")
		return
	}
	if len(data) > MaxLogoBytes {
		fail(w, http.StatusUnprocessableEntity, "", fieldError("logo", "logo exceeds 2MB", len(data)))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType != "image/png" && contentType != "image/jpeg" {
		fail(w, http.StatusUnprocessableEntity, "", fieldError("logo", "logo must be JPEG or PNG", contentType))
		return
	}

	url := "/uploads/" + header.Filename

	s.mu.Lock()
	s.logo = data
	s.logoType = contentType
	s.settings.Company.Logo = &url
	s.mu.Unlock()

	ok(w, http.StatusOK, "logo uploaded", model.LogoUpload{LogoURL: url})
}

func (s *Server) technical(w http.ResponseWriter, _ *http.Request) {
	cfg := s.Settings()
	ok(w, http.StatusOK, "parameters retrieved", map[string]any{
		"sessionTimeoutMinutes": cfg.Technical.SessionTimeoutMinutes,
		"logRetentionDays":      cfg.Technical.LogRetentionDays,
		"apiVersion":            "v1",
	})
}
