// Package memstore provides in-memory implementations of the catalog,
// member, attendance and ledger stores. They back STORE_BACKEND=memory and
// the tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"memberreports/internal/apperr"
	"memberreports/internal/ledger"
	"memberreports/internal/model"
)

// Catalog implements catalog.Store.
type Catalog struct {
	mu   sync.RWMutex
	defs map[string]model.ReportDefinition
}

func NewCatalog() *Catalog {
	return &Catalog{defs: map[string]model.ReportDefinition{}}
}

func (c *Catalog) Count(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.defs), nil
}

func (c *Catalog) Insert(_ context.Context, def model.ReportDefinition) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.defs[def.ReportID]; ok {
		return false, nil
	}
	c.defs[def.ReportID] = def
	return true, nil
}

func (c *Catalog) List(_ context.Context, category string, activeOnly bool) ([]model.ReportDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.ReportDefinition
	for _, d := range c.defs {
		if category != "" && d.Category != category {
			continue
		}
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportID < out[j].ReportID })
	return out, nil
}

func (c *Catalog) Get(_ context.Context, reportID string) (model.ReportDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.defs[reportID]
	if !ok {
		return model.ReportDefinition{}, apperr.ErrNotFound
	}
	return d, nil
}

func (c *Catalog) SetActive(_ context.Context, reportID string, active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.defs[reportID]
	if !ok {
		return apperr.ErrNotFound
	}
	d.IsActive = active
	d.UpdatedAt = time.Now()
	c.defs[reportID] = d
	return nil
}

// Members implements member.Store and report.MemberSource.
type Members struct {
	mu      sync.RWMutex
	members map[string]model.Member
}

func NewMembers(seed ...model.Member) *Members {
	m := &Members{members: map[string]model.Member{}}
	for _, mem := range seed {
		m.members[mem.StudentID] = mem
	}
	return m
}

func (s *Members) Create(_ context.Context, m model.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.StudentID]; ok {
		return fmt.Errorf("%w: student_id %s", apperr.ErrConflict, m.StudentID)
	}
	if err := s.checkUnique(m); err != nil {
		return err
	}
	s.members[m.StudentID] = m
	return nil
}

func (s *Members) Get(_ context.Context, studentID string) (model.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[studentID]
	if !ok {
		return model.Member{}, apperr.ErrNotFound
	}
	return m, nil
}

func (s *Members) Update(_ context.Context, m model.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.StudentID]; !ok {
		return apperr.ErrNotFound
	}
	if err := s.checkUnique(m); err != nil {
		return err
	}
	s.members[m.StudentID] = m
	return nil
}

func (s *Members) Delete(_ context.Context, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[studentID]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.members, studentID)
	return nil
}

// checkUnique enforces unique name and email among other members.
// Callers hold the write lock.
func (s *Members) checkUnique(m model.Member) error {
	for id, other := range s.members {
		if id == m.StudentID {
			continue
		}
		if other.Name == m.Name {
			return fmt.Errorf("%w: name %q", apperr.ErrConflict, m.Name)
		}
		if m.Email != "" && other.Email == m.Email {
			return fmt.Errorf("%w: email %q", apperr.ErrConflict, m.Email)
		}
	}
	return nil
}

func (s *Members) ListMembers(_ context.Context, filter model.MemberFilter) ([]model.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Member
	for _, m := range s.members {
		if filter.Matches(m) {
			out = append(out, m)
		}
	}
	sortByGradeName(out)
	return out, nil
}

func (s *Members) MembersByIDs(_ context.Context, ids []string) ([]model.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Member
	for _, id := range ids {
		if m, ok := s.members[id]; ok {
			out = append(out, m)
		}
	}
	sortByGradeName(out)
	return out, nil
}

func (s *Members) MaxSequence(_ context.Context, prefix string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	highest := 0
	for id := range s.members {
		if len(id) != 6 || !strings.HasPrefix(id, prefix) {
			continue
		}
		if n, err := strconv.Atoi(id[1:]); err == nil && n > highest {
			highest = n
		}
	}
	return highest, nil
}

func sortByGradeName(ms []model.Member) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Grade != ms[j].Grade {
			return ms[i].Grade < ms[j].Grade
		}
		return ms[i].Name < ms[j].Name
	})
}

// Attendance implements attendance.Store and report.AttendanceSource.
type Attendance struct {
	mu      sync.RWMutex
	records []model.AttendanceRecord
}

func NewAttendance(seed ...model.AttendanceRecord) *Attendance {
	a := &Attendance{}
	for _, r := range seed {
		a.add(r)
	}
	return a
}

// add keeps records ordered by timestamp. Callers hold the write lock.
func (a *Attendance) add(rec model.AttendanceRecord) {
	i := sort.Search(len(a.records), func(i int) bool { return a.records[i].Timestamp.After(rec.Timestamp) })
	a.records = append(a.records, model.AttendanceRecord{})
	copy(a.records[i+1:], a.records[i:])
	a.records[i] = rec
}

func (a *Attendance) Insert(_ context.Context, rec model.AttendanceRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.add(rec)
	return nil
}

func (a *Attendance) LatestSince(_ context.Context, studentID string, since time.Time) (*model.AttendanceRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for i := len(a.records) - 1; i >= 0; i-- {
		r := a.records[i]
		if r.Timestamp.Before(since) {
			break
		}
		if r.StudentID == studentID {
			return &r, nil
		}
	}
	return nil, nil
}

func (a *Attendance) AttendanceBetween(_ context.Context, from, to time.Time) ([]model.AttendanceRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []model.AttendanceRecord
	for _, r := range a.records {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (a *Attendance) ForMember(_ context.Context, studentID string) ([]model.AttendanceRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []model.AttendanceRecord
	for _, r := range a.records {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Files implements ledger.Store.
type Files struct {
	mu    sync.RWMutex
	files map[string]model.GeneratedFile
}

func NewFiles() *Files {
	return &Files{files: map[string]model.GeneratedFile{}}
}

func (f *Files) Insert(_ context.Context, file model.GeneratedFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[file.FileID]; ok {
		return fmt.Errorf("%w: file %s", apperr.ErrConflict, file.FileID)
	}
	f.files[file.FileID] = copyFile(file)
	return nil
}

func (f *Files) Get(_ context.Context, fileID string) (model.GeneratedFile, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	file, ok := f.files[fileID]
	if !ok {
		return model.GeneratedFile{}, apperr.ErrNotFound
	}
	return copyFile(file), nil
}

func (f *Files) IncrementDownloads(_ context.Context, fileID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[fileID]
	if !ok {
		return 0, apperr.ErrNotFound
	}
	file.DownloadCount++
	f.files[fileID] = file
	return file.DownloadCount, nil
}

func (f *Files) ListByOwner(_ context.Context, owner string, liveAt time.Time) ([]model.GeneratedFile, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []model.GeneratedFile
	for _, file := range f.files {
		if file.GeneratedBy == owner && !file.ExpiresAt.Before(liveAt) {
			out = append(out, copyFile(file))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

func (f *Files) ListExpired(_ context.Context, now time.Time) ([]model.GeneratedFile, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []model.GeneratedFile
	for _, file := range f.files {
		if file.ExpiresAt.Before(now) {
			out = append(out, copyFile(file))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (f *Files) Delete(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[fileID]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.files, fileID)
	return nil
}

func copyFile(file model.GeneratedFile) model.GeneratedFile {
	params := make(map[string]string, len(file.Parameters))
	for k, v := range file.Parameters {
		params[k] = v
	}
	file.Parameters = params
	return file
}

// Blobs implements ledger.BlobStore in memory. Paths are "mem://{key}".
type Blobs struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewBlobs() *Blobs {
	return &Blobs{blobs: map[string][]byte{}}
}

func (b *Blobs) Put(_ context.Context, key string, data []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	path := "mem://" + key
	if _, ok := b.blobs[path]; ok {
		return "", fmt.Errorf("%w: blob %s exists", apperr.ErrConflict, key)
	}
	b.blobs[path] = append([]byte(nil), data...)
	return path, nil
}

func (b *Blobs) Get(_ context.Context, path string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.blobs[path]
	if !ok {
		return nil, ledger.ErrBlobMissing
	}
	return append([]byte(nil), data...), nil
}

func (b *Blobs) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, path)
	return nil
}

// Len returns the number of stored blobs.
func (b *Blobs) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}
