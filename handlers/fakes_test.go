package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/VanitasCaesar1/hospital/cache"
	"github.com/VanitasCaesar1/hospital/models"
	"github.com/VanitasCaesar1/hospital/store"
)

type fakeDoctors struct {
	mu   sync.Mutex
	byID map[string]models.Doctor
	gets int
}

func newFakeDoctors(doctors ...models.Doctor) *fakeDoctors {
	f := &fakeDoctors{byID: map[string]models.Doctor{}}
	for _, d := range doctors {
		f.byID[d.ID] = d
	}
	return f
}

func (f *fakeDoctors) List(_ context.Context, q store.DoctorQuery) ([]models.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Doctor{}
	for _, d := range f.byID {
		if q.Department != "" && d.Department != q.Department {
			continue
		}
		if q.ActiveOnly && !d.IsActive {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeDoctors) GetByID(_ context.Context, id string) (*models.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (f *fakeDoctors) GetBySlug(_ context.Context, slug string) (*models.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	for _, d := range f.byID {
		if d.Slug == slug {
			return &d, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeDoctors) SlugExists(ctx context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.byID {
		if d.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDoctors) Create(_ context.Context, d *models.Doctor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[d.ID] = *d
	return nil
}

func (f *fakeDoctors) Update(_ context.Context, d *models.Doctor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[d.ID]; !ok {
		return store.ErrNotFound
	}
	f.byID[d.ID] = *d
	return nil
}

func (f *fakeDoctors) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeDepartments struct {
	mu   sync.Mutex
	byID map[string]models.Department
}

func newFakeDepartments(slugs ...string) *fakeDepartments {
	f := &fakeDepartments{byID: map[string]models.Department{}}
	for _, s := range slugs {
		f.byID["dept-"+s] = models.Department{ID: "dept-" + s, Name: s, Slug: s}
	}
	return f
}

func (f *fakeDepartments) List(context.Context) ([]models.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Department{}
	for _, d := range f.byID {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeDepartments) GetByID(_ context.Context, id string) (*models.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (f *fakeDepartments) SlugExists(_ context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.byID {
		if d.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDepartments) Create(_ context.Context, d *models.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[d.ID] = *d
	return nil
}

func (f *fakeDepartments) Update(_ context.Context, d *models.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[d.ID]; !ok {
		return store.ErrNotFound
	}
	f.byID[d.ID] = *d
	return nil
}

func (f *fakeDepartments) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeAppointments enforces the same uniqueness rule as the partial index:
// one active appointment per doctor, date and slot.
type fakeAppointments struct {
	mu         sync.Mutex
	byID       map[string]models.Appointment
	created    map[string]models.Appointment
	staleReads bool
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{byID: map[string]models.Appointment{}, created: map[string]models.Appointment{}}
}

func (f *fakeAppointments) BookedSlots(_ context.Context, doctorID, date string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slots := []string{}
	for _, a := range f.byID {
		if a.Active && a.DoctorID == doctorID && a.Date == date {
			slots = append(slots, a.Slot)
		}
	}
	return slots, nil
}

func (f *fakeAppointments) Create(_ context.Context, appt *models.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Active && a.DoctorID == appt.DoctorID && a.Date == appt.Date && a.Slot == appt.Slot {
			return store.ErrDuplicate
		}
	}
	f.byID[appt.ID] = *appt
	f.created[appt.ID] = *appt
	return nil
}

func (f *fakeAppointments) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	source := f.byID
	if f.staleReads {
		source = f.created
	}
	a, ok := source[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAppointments) GetByReference(_ context.Context, reference string) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Reference == reference {
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeAppointments) List(_ context.Context, filter models.AppointmentFilter) ([]models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Appointment{}
	for _, a := range f.byID {
		if filter.DoctorID != "" && a.DoctorID != filter.DoctorID {
			continue
		}
		if filter.Date != "" && a.Date != filter.Date {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Minute < out[j].Minute
	})
	return out, nil
}

func (f *fakeAppointments) UpdateStatus(_ context.Context, id, from, to string) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok || a.Status != from {
		return nil, store.ErrStatusChanged
	}
	a.Status = to
	a.Active = to != models.AppointmentCancelled
	f.byID[id] = a
	return &a, nil
}

func (f *fakeAppointments) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeProducts struct {
	mu     sync.Mutex
	bySlug map[string]models.Product
}

func newFakeProducts(products ...models.Product) *fakeProducts {
	f := &fakeProducts{bySlug: map[string]models.Product{}}
	for _, p := range products {
		f.bySlug[p.Slug] = p
	}
	return f
}

func (f *fakeProducts) stock(slug string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bySlug[slug].Stock
}

func (f *fakeProducts) List(_ context.Context, category string, activeOnly bool) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Product{}
	for _, p := range f.bySlug {
		if category != "" && p.Category != category {
			continue
		}
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.bySlug {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeProducts) GetBySlug(_ context.Context, slug string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.bySlug[slug]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProducts) SlugExists(_ context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.bySlug[slug]
	return ok, nil
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bySlug[p.Slug] = *p
	return nil
}

func (f *fakeProducts) Update(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for slug, existing := range f.bySlug {
		if existing.ID == p.ID {
			delete(f.bySlug, slug)
			f.bySlug[p.Slug] = *p
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeProducts) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for slug, p := range f.bySlug {
		if p.ID == id {
			delete(f.bySlug, slug)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeProducts) Reserve(_ context.Context, slug string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.bySlug[slug]
	if !ok || !p.IsActive || p.Stock < qty {
		return store.ErrInsufficientStock
	}
	p.Stock -= qty
	f.bySlug[slug] = p
	return nil
}

func (f *fakeProducts) Release(_ context.Context, slug string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.bySlug[slug]
	if !ok {
		return store.ErrNotFound
	}
	p.Stock += qty
	f.bySlug[slug] = p
	return nil
}

// fakeOrders can serve reads from the state at creation time, which is what a
// request sees when it loaded the order just before a concurrent update.
type fakeOrders struct {
	mu         sync.Mutex
	byID       map[string]models.Order
	created    map[string]models.Order
	staleReads bool
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{byID: map[string]models.Order{}, created: map[string]models.Order{}}
}

func (f *fakeOrders) Create(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[o.ID] = *o
	f.created[o.ID] = *o
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	source := f.byID
	if f.staleReads {
		source = f.created
	}
	o, ok := source[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOrders) List(_ context.Context, status string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.byID {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id, from, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok || o.Status != from {
		return store.ErrStatusChanged
	}
	o.Status = to
	f.byID[id] = o
	return nil
}

// mapCache is an in-process Cache that stores JSON like cache.Cache does.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}}
}

func (m *mapCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *mapCache) Set(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = data
	return nil
}

func (m *mapCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

type fakeApplicants struct {
	mu   sync.Mutex
	byID map[string]models.Applicant
}

func newFakeApplicants() *fakeApplicants {
	return &fakeApplicants{byID: map[string]models.Applicant{}}
}

func (f *fakeApplicants) Create(_ context.Context, a *models.Applicant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[a.ID] = *a
	return nil
}

func (f *fakeApplicants) GetByID(_ context.Context, id string) (*models.Applicant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (f *fakeApplicants) List(_ context.Context, status, position string) ([]models.Applicant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Applicant{}
	for _, a := range f.byID {
		if status != "" && a.Status != status {
			continue
		}
		if position != "" && a.Position != position {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeApplicants) UpdateStatus(_ context.Context, id, from, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok || a.Status != from {
		return store.ErrStatusChanged
	}
	a.Status = to
	f.byID[id] = a
	return nil
}

func (f *fakeApplicants) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}
