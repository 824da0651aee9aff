package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/incidenthq/api/pkg/domain/event"
	"github.com/incidenthq/api/pkg/domain/notification"
	"github.com/incidenthq/api/pkg/domain/organization"
	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/domain/user"
)

// In-memory fakes shared by the service tests.

type reportMeta struct {
	state     report.State
	updatedAt time.Time
}

type memReportRepo struct {
	reports map[shared.ID]*report.Report
	meta    map[shared.ID]reportMeta
	history []*report.StateChange

	// forceConflict makes the next UpdateWithPrecondition fail, as if
	// a concurrent writer got there first.
	forceConflict bool
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{
		reports: make(map[shared.ID]*report.Report),
		meta:    make(map[shared.ID]reportMeta),
	}
}

func (m *memReportRepo) Create(_ context.Context, r *report.Report) error {
	m.reports[r.ID()] = r
	m.meta[r.ID()] = reportMeta{state: r.State(), updatedAt: r.UpdatedAt()}
	return nil
}

func (m *memReportRepo) GetByID(_ context.Context, id shared.ID) (*report.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return r, nil
}

func (m *memReportRepo) ListByEvent(_ context.Context, eventID shared.ID, filter report.ListFilter) ([]*report.Report, error) {
	var result []*report.Report
	for _, r := range m.reports {
		if !r.EventID().Equals(eventID) {
			continue
		}
		if filter.ReporterID != nil {
			if r.ReporterID() == nil || !r.ReporterID().Equals(*filter.ReporterID) {
				continue
			}
		}
		if len(filter.States) > 0 {
			match := false
			for _, s := range filter.States {
				if r.State() == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt().Before(result[j].CreatedAt())
	})
	return result, nil
}

func (m *memReportRepo) Update(_ context.Context, r *report.Report) error {
	if _, ok := m.reports[r.ID()]; !ok {
		return shared.ErrNotFound
	}
	m.reports[r.ID()] = r
	m.meta[r.ID()] = reportMeta{state: r.State(), updatedAt: r.UpdatedAt()}
	return nil
}

func (m *memReportRepo) UpdateWithPrecondition(_ context.Context, r *report.Report, expectedState report.State, expectedUpdatedAt time.Time) error {
	if m.forceConflict {
		m.forceConflict = false
		return shared.ErrConflict
	}
	meta, ok := m.meta[r.ID()]
	if !ok {
		return shared.ErrNotFound
	}
	if meta.state != expectedState || !meta.updatedAt.Equal(expectedUpdatedAt) {
		return shared.ErrConflict
	}
	m.reports[r.ID()] = r
	m.meta[r.ID()] = reportMeta{state: r.State(), updatedAt: r.UpdatedAt()}
	return nil
}

func (m *memReportRepo) AppendStateChange(_ context.Context, change *report.StateChange) error {
	m.history = append(m.history, change)
	return nil
}

func (m *memReportRepo) ListStateHistory(_ context.Context, reportID shared.ID) ([]*report.StateChange, error) {
	var result []*report.StateChange
	for _, c := range m.history {
		if c.ReportID().Equals(reportID) {
			result = append(result, c)
		}
	}
	return result, nil
}

type memAssignments struct {
	grants []rbac.Assignment
}

func (m *memAssignments) ListByUser(_ context.Context, userID shared.ID) ([]rbac.Assignment, error) {
	var result []rbac.Assignment
	for _, a := range m.grants {
		if a.UserID.Equals(userID) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memAssignments) ListEventRoleHolders(_ context.Context, eventID shared.ID, roles ...rbac.Role) ([]shared.ID, error) {
	var result []shared.ID
	for _, a := range m.grants {
		if a.EventID == nil || !a.EventID.Equals(eventID) {
			continue
		}
		for _, r := range roles {
			if a.Role == r {
				result = append(result, a.UserID)
				break
			}
		}
	}
	return result, nil
}

func (m *memAssignments) Grant(_ context.Context, a rbac.Assignment) error {
	m.grants = append(m.grants, a)
	return nil
}

func (m *memAssignments) Revoke(_ context.Context, a rbac.Assignment) error {
	for i, g := range m.grants {
		if g.UserID.Equals(a.UserID) && g.Role == a.Role {
			m.grants = append(m.grants[:i], m.grants[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

type memCommentRepo struct {
	comments []*report.Comment
}

func (m *memCommentRepo) Create(_ context.Context, c *report.Comment) error {
	m.comments = append(m.comments, c)
	return nil
}

func (m *memCommentRepo) GetByID(_ context.Context, id shared.ID) (*report.Comment, error) {
	for _, c := range m.comments {
		if c.ID().Equals(id) {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memCommentRepo) ListByReport(_ context.Context, reportID shared.ID) ([]*report.Comment, error) {
	var result []*report.Comment
	for _, c := range m.comments {
		if c.ReportID().Equals(reportID) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *memCommentRepo) Update(_ context.Context, c *report.Comment) error {
	for i, existing := range m.comments {
		if existing.ID().Equals(c.ID()) {
			m.comments[i] = c
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memCommentRepo) Delete(_ context.Context, id shared.ID) error {
	for i, c := range m.comments {
		if c.ID().Equals(id) {
			m.comments = append(m.comments[:i], m.comments[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

type memEvidenceRepo struct {
	files []*report.EvidenceFile
}

func (m *memEvidenceRepo) Create(_ context.Context, f *report.EvidenceFile) error {
	m.files = append(m.files, f)
	return nil
}

func (m *memEvidenceRepo) GetByID(_ context.Context, id shared.ID) (*report.EvidenceFile, error) {
	for _, f := range m.files {
		if f.ID().Equals(id) {
			return f, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memEvidenceRepo) ListByReport(_ context.Context, reportID shared.ID) ([]*report.EvidenceFile, error) {
	var result []*report.EvidenceFile
	for _, f := range m.files {
		if f.ReportID().Equals(reportID) {
			result = append(result, f)
		}
	}
	return result, nil
}

func (m *memEvidenceRepo) Delete(_ context.Context, id shared.ID) error {
	for i, f := range m.files {
		if f.ID().Equals(id) {
			m.files = append(m.files[:i], m.files[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

type memUserRepo struct {
	users map[shared.ID]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[shared.ID]*user.User)}
}

func (m *memUserRepo) Create(_ context.Context, u *user.User) error {
	m.users[u.ID()] = u
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id shared.ID) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memUserRepo) Update(_ context.Context, u *user.User) error {
	m.users[u.ID()] = u
	return nil
}

type memEventRepo struct {
	events map[shared.ID]*event.Event
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: make(map[shared.ID]*event.Event)}
}

func (m *memEventRepo) Create(_ context.Context, e *event.Event) error {
	m.events[e.ID()] = e
	return nil
}

func (m *memEventRepo) GetByID(_ context.Context, id shared.ID) (*event.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return e, nil
}

func (m *memEventRepo) GetBySlug(_ context.Context, orgID shared.ID, slug string) (*event.Event, error) {
	for _, e := range m.events {
		if e.OrganizationID().Equals(orgID) && e.Slug() == slug {
			return e, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memEventRepo) ListByOrganization(_ context.Context, orgID shared.ID) ([]*event.Event, error) {
	var result []*event.Event
	for _, e := range m.events {
		if e.OrganizationID().Equals(orgID) {
			result = append(result, e)
		}
	}
	return result, nil
}

type memOrgRepo struct {
	orgs map[shared.ID]*organization.Organization
}

func newMemOrgRepo() *memOrgRepo {
	return &memOrgRepo{orgs: make(map[shared.ID]*organization.Organization)}
}

func (m *memOrgRepo) Create(_ context.Context, o *organization.Organization) error {
	m.orgs[o.ID()] = o
	return nil
}

func (m *memOrgRepo) GetByID(_ context.Context, id shared.ID) (*organization.Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (m *memOrgRepo) GetBySlug(_ context.Context, slug string) (*organization.Organization, error) {
	for _, o := range m.orgs {
		if o.Slug() == slug {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memOrgRepo) List(_ context.Context) ([]*organization.Organization, error) {
	var result []*organization.Organization
	for _, o := range m.orgs {
		result = append(result, o)
	}
	return result, nil
}

type memNotificationRepo struct {
	mu      sync.Mutex
	records []*notification.Notification
}

func (m *memNotificationRepo) Create(_ context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, n)
	return nil
}

func (m *memNotificationRepo) GetByID(_ context.Context, id shared.ID) (*notification.Notification, error) {
	for _, n := range m.records {
		if n.ID().Equals(id) {
			return n, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memNotificationRepo) ListByUser(_ context.Context, userID shared.ID, unreadOnly bool, limit, offset int) ([]*notification.Notification, error) {
	var result []*notification.Notification
	for _, n := range m.records {
		if !n.UserID().Equals(userID) {
			continue
		}
		if unreadOnly && n.IsRead() {
			continue
		}
		result = append(result, n)
	}
	if offset > len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (m *memNotificationRepo) CountUnread(_ context.Context, userID shared.ID) (int, error) {
	count := 0
	for _, n := range m.records {
		if n.UserID().Equals(userID) && !n.IsRead() {
			count++
		}
	}
	return count, nil
}

func (m *memNotificationRepo) MarkRead(_ context.Context, id shared.ID) error {
	for _, n := range m.records {
		if n.ID().Equals(id) {
			n.MarkRead()
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memNotificationRepo) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []*notification.Notification
	var deleted int64
	for _, n := range m.records {
		if n.IsRead() && n.CreatedAt().Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	m.records = kept
	return deleted, nil
}

func (m *memNotificationRepo) forUser(userID shared.ID) []*notification.Notification {
	var result []*notification.Notification
	for _, n := range m.records {
		if n.UserID().Equals(userID) {
			result = append(result, n)
		}
	}
	return result
}

type memSettingsRepo struct {
	mu       sync.Mutex
	settings map[shared.ID]*notification.Settings
	clock    shared.Clock
	creates  int
}

func newMemSettingsRepo(clock shared.Clock) *memSettingsRepo {
	return &memSettingsRepo{settings: make(map[shared.ID]*notification.Settings), clock: clock}
}

func (m *memSettingsRepo) GetOrCreate(_ context.Context, userID shared.ID) (*notification.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.settings[userID]; ok {
		return s, nil
	}
	s := notification.DefaultSettings(userID, m.clock.Now())
	m.settings[userID] = s
	m.creates++
	return s, nil
}

func (m *memSettingsRepo) Update(_ context.Context, s *notification.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.UserID()] = s
	return nil
}

type captureEnqueuer struct {
	mu       sync.Mutex
	payloads []NotificationEmailPayload
	failWith error
}

func (c *captureEnqueuer) EnqueueNotificationEmail(_ context.Context, payload NotificationEmailPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.payloads = append(c.payloads, payload)
	return nil
}

type captureNotifier struct {
	events []notification.Event
}

func (c *captureNotifier) Dispatch(_ context.Context, evt notification.Event) error {
	c.events = append(c.events, evt)
	return nil
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

type memResetStore struct {
	tokens map[string]shared.ID
}

func newMemResetStore() *memResetStore {
	return &memResetStore{tokens: make(map[string]shared.ID)}
}

func (m *memResetStore) StoreResetToken(_ context.Context, token string, userID shared.ID, _ time.Duration) error {
	m.tokens[token] = userID
	return nil
}

func (m *memResetStore) ConsumeResetToken(_ context.Context, token string) (shared.ID, error) {
	userID, ok := m.tokens[token]
	if !ok {
		return shared.ID{}, shared.ErrNotFound
	}
	delete(m.tokens, token)
	return userID, nil
}

type captureResetEnqueuer struct {
	payloads []PasswordResetEmailPayload
}

func (c *captureResetEnqueuer) EnqueuePasswordResetEmail(_ context.Context, payload PasswordResetEmailPayload) error {
	c.payloads = append(c.payloads, payload)
	return nil
}
