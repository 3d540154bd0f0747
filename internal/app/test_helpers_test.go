package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/core/command"
	"github.com/example/mkc/internal/core/permission"
	"github.com/example/mkc/internal/ctxutil"
	"github.com/example/mkc/internal/ports/secondary"
)

// ============================================================================
// Shared fixtures
// ============================================================================

var testDay = time.Date(2026, 10, 17, 15, 4, 5, 0, time.UTC)

func companyDefinition() command.Definition {
	return command.Definition{
		Resource: "company",
		Area:     "portfolio",
		Fields: []command.Field{
			{Name: "name", Kind: command.KindString, Required: true, MaxLength: 100},
			{Name: "age", Kind: command.KindNumber},
			{Name: "officeId", Kind: command.KindNumber, Positive: true},
		},
	}
}

func testRegistry() *command.Registry {
	reg, err := command.NewRegistry(companyDefinition())
	if err != nil {
		panic(err)
	}
	return reg
}

func makerActor() *permission.Actor {
	return permission.NewActor(1, "maker", []string{"CREATE_COMPANY", "UPDATE_COMPANY", "DELETE_COMPANY"})
}

func checkerActor(perms ...string) *permission.Actor {
	return permission.NewActor(2, "checker", perms)
}

func int64Ptr(v int64) *int64 { return &v }

// ============================================================================
// Mock Implementations
// ============================================================================

var _ secondary.SecurityContext = (*mockSecurityContext)(nil)

// mockSecurityContext returns a fixed actor.
type mockSecurityContext struct {
	actor *permission.Actor
	err   error
}

func (m *mockSecurityContext) CurrentActor(ctx context.Context) (*permission.Actor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.actor, nil
}

var _ secondary.ChangeDetector = (*mockChangeDetector)(nil)

// mockChangeDetector returns a fixed delta and counts calls.
type mockChangeDetector struct {
	delta    string
	err      error
	calls    int
	proposed []string
}

func (m *mockChangeDetector) DetectChangesOnUpdate(ctx context.Context, resource string, resourceID int64, proposedJSON string) (string, error) {
	m.calls++
	m.proposed = append(m.proposed, proposedJSON)
	if m.err != nil {
		return "", m.err
	}
	return m.delta, nil
}

var _ secondary.WriteService = (*mockWriteService)(nil)

// mockWriteService records the commands it receives.
type mockWriteService struct {
	outcome   secondary.WriteOutcome
	err       error
	calls     []string
	commands  []*command.Command
	approvals []bool
}

func newMockWriteService() *mockWriteService {
	return &mockWriteService{outcome: secondary.Committed{ResourceID: 101}}
}

func (m *mockWriteService) record(ctx context.Context, op string, cmd *command.Command) (secondary.WriteOutcome, error) {
	m.calls = append(m.calls, op)
	m.commands = append(m.commands, cmd)
	m.approvals = append(m.approvals, ctxutil.IsCheckerApproval(ctx))
	if m.err != nil {
		return nil, m.err
	}
	return m.outcome, nil
}

func (m *mockWriteService) Create(ctx context.Context, cmd *command.Command) (secondary.WriteOutcome, error) {
	return m.record(ctx, "create", cmd)
}

func (m *mockWriteService) Update(ctx context.Context, cmd *command.Command) (secondary.WriteOutcome, error) {
	return m.record(ctx, "update", cmd)
}

func (m *mockWriteService) Delete(ctx context.Context, cmd *command.Command) (secondary.WriteOutcome, error) {
	return m.record(ctx, "delete", cmd)
}

var _ secondary.PolicyRepository = (*mockPolicyRepository)(nil)

// mockPolicyRepository implements secondary.PolicyRepository for testing.
type mockPolicyRepository struct {
	enabled map[string]bool
	err     error
}

func newMockPolicyRepository(codes ...string) *mockPolicyRepository {
	m := &mockPolicyRepository{enabled: make(map[string]bool)}
	for _, c := range codes {
		m.enabled[c] = true
	}
	return m
}

func (m *mockPolicyRepository) RequiresChecker(ctx context.Context, code string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.enabled[code], nil
}

func (m *mockPolicyRepository) SetMakerChecker(ctx context.Context, code string, enabled bool) error {
	m.enabled[code] = enabled
	return nil
}

func (m *mockPolicyRepository) List(ctx context.Context) ([]*secondary.MakerCheckerRecord, error) {
	var out []*secondary.MakerCheckerRecord
	for code, on := range m.enabled {
		out = append(out, &secondary.MakerCheckerRecord{Code: code, Enabled: on})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type docKey struct {
	resource string
	id       int64
}

var _ secondary.DocumentStore = (*mockDocumentStore)(nil)

// mockDocumentStore keeps documents in memory. Transactions stage their
// writes and apply them on commit.
type mockDocumentStore struct {
	docs      map[docKey]string
	nextID    int64
	beginErr  error
	commits   int
	rollbacks int
}

func newMockDocumentStore() *mockDocumentStore {
	return &mockDocumentStore{docs: make(map[docKey]string), nextID: 100}
}

func (m *mockDocumentStore) put(resource string, id int64, doc string) {
	m.docs[docKey{resource, id}] = doc
}

func (m *mockDocumentStore) Begin(ctx context.Context) (secondary.DocumentTx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &mockDocumentTx{store: m, staged: make(map[docKey]string), deleted: make(map[docKey]bool)}, nil
}

func (m *mockDocumentStore) Get(ctx context.Context, resource string, id int64) ([]byte, error) {
	doc, ok := m.docs[docKey{resource, id}]
	if !ok {
		return nil, apperr.NotFound(resource, id)
	}
	return []byte(doc), nil
}

type mockDocumentTx struct {
	store   *mockDocumentStore
	staged  map[docKey]string
	deleted map[docKey]bool
	done    bool
}

func (t *mockDocumentTx) Get(ctx context.Context, resource string, id int64) ([]byte, error) {
	k := docKey{resource, id}
	if t.deleted[k] {
		return nil, apperr.NotFound(resource, id)
	}
	if doc, ok := t.staged[k]; ok {
		return []byte(doc), nil
	}
	return t.store.Get(ctx, resource, id)
}

func (t *mockDocumentTx) Insert(ctx context.Context, resource string, doc []byte) (int64, error) {
	t.store.nextID++
	t.staged[docKey{resource, t.store.nextID}] = string(doc)
	return t.store.nextID, nil
}

func (t *mockDocumentTx) Replace(ctx context.Context, resource string, id int64, doc []byte) error {
	if _, err := t.Get(ctx, resource, id); err != nil {
		return err
	}
	t.staged[docKey{resource, id}] = string(doc)
	return nil
}

func (t *mockDocumentTx) Delete(ctx context.Context, resource string, id int64) error {
	if _, err := t.Get(ctx, resource, id); err != nil {
		return err
	}
	k := docKey{resource, id}
	delete(t.staged, k)
	t.deleted[k] = true
	return nil
}

func (t *mockDocumentTx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	for k, doc := range t.staged {
		t.store.docs[k] = doc
	}
	for k := range t.deleted {
		delete(t.store.docs, k)
	}
	t.store.commits++
	return nil
}

func (t *mockDocumentTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.rollbacks++
	return nil
}

var _ secondary.CommandSourceRepository = (*mockCommandSourceRepository)(nil)

// mockCommandSourceRepository implements secondary.CommandSourceRepository for testing.
type mockCommandSourceRepository struct {
	records   map[int64]*secondary.CommandSourceRecord
	nextID    int64
	createErr error
	updateErr error
}

func newMockCommandSourceRepository() *mockCommandSourceRepository {
	return &mockCommandSourceRepository{records: make(map[int64]*secondary.CommandSourceRecord)}
}

func (m *mockCommandSourceRepository) Create(ctx context.Context, record *secondary.CommandSourceRecord) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	for _, r := range m.records {
		if r.SubmissionKey == record.SubmissionKey {
			return 0, apperr.New(apperr.CodeConflict, "submission %s already exists", record.SubmissionKey)
		}
	}
	m.nextID++
	stored := *record
	stored.ID = m.nextID
	m.records[stored.ID] = &stored
	return stored.ID, nil
}

func (m *mockCommandSourceRepository) GetByID(ctx context.Context, id int64) (*secondary.CommandSourceRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, apperr.NotFound("command", id)
	}
	cp := *r
	return &cp, nil
}

func (m *mockCommandSourceRepository) GetBySubmissionKey(ctx context.Context, key string) (*secondary.CommandSourceRecord, error) {
	for _, r := range m.records {
		if r.SubmissionKey == key {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.CodeNotFound, "no command with submission key %s", key)
}

func (m *mockCommandSourceRepository) Update(ctx context.Context, record *secondary.CommandSourceRecord) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.records[record.ID]; !ok {
		return apperr.NotFound("command", record.ID)
	}
	stored := *record
	m.records[record.ID] = &stored
	return nil
}

func (m *mockCommandSourceRepository) Claim(ctx context.Context, id, checkerID int64, checkedOn string) error {
	r, ok := m.records[id]
	if !ok {
		return apperr.NotFound("command", id)
	}
	if r.Checked {
		return apperr.New(apperr.CodeConflict, "command %d is already checked", id)
	}
	r.Checked = true
	r.CheckedBy = &checkerID
	r.CheckedOn = checkedOn
	return nil
}

func (m *mockCommandSourceRepository) Release(ctx context.Context, id int64) error {
	r, ok := m.records[id]
	if !ok {
		return apperr.NotFound("command", id)
	}
	r.Checked = false
	r.CheckedBy = nil
	r.CheckedOn = ""
	return nil
}

func (m *mockCommandSourceRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.records[id]; !ok {
		return apperr.NotFound("command", id)
	}
	delete(m.records, id)
	return nil
}

func (m *mockCommandSourceRepository) List(ctx context.Context, filters secondary.CommandSourceFilters) ([]*secondary.CommandSourceRecord, error) {
	var out []*secondary.CommandSourceRecord
	for _, r := range m.records {
		if filters.ResourceName != "" && r.ResourceName != filters.ResourceName {
			continue
		}
		if filters.Checked != nil && r.Checked != *filters.Checked {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

var _ secondary.UserRepository = (*mockUserRepository)(nil)

// mockUserRepository implements secondary.UserRepository for testing.
type mockUserRepository struct {
	users  map[int64]*secondary.UserRecord
	nextID int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*secondary.UserRecord)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *secondary.UserRecord) (int64, error) {
	for _, u := range m.users {
		if u.Username == user.Username {
			return 0, apperr.New(apperr.CodeConflict, "user %s already exists", user.Username)
		}
	}
	m.nextID++
	stored := *user
	stored.ID = m.nextID
	m.users[stored.ID] = &stored
	return stored.ID, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*secondary.UserRecord, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	cp := *u
	cp.Permissions = append([]string(nil), u.Permissions...)
	return &cp, nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*secondary.UserRecord, error) {
	for _, u := range m.users {
		if u.Username == username {
			return m.GetByID(ctx, u.ID)
		}
	}
	return nil, apperr.New(apperr.CodeNotFound, "user %s not found", username)
}

func (m *mockUserRepository) List(ctx context.Context) ([]*secondary.UserRecord, error) {
	var out []*secondary.UserRecord
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *mockUserRepository) Grant(ctx context.Context, userID int64, permissions []string) error {
	u, ok := m.users[userID]
	if !ok {
		return apperr.NotFound("user", userID)
	}
	held := make(map[string]bool)
	for _, p := range u.Permissions {
		held[p] = true
	}
	for _, p := range permissions {
		if !held[p] {
			u.Permissions = append(u.Permissions, p)
			held[p] = true
		}
	}
	sort.Strings(u.Permissions)
	return nil
}

func (m *mockUserRepository) Revoke(ctx context.Context, userID int64, permissions []string) error {
	u, ok := m.users[userID]
	if !ok {
		return apperr.NotFound("user", userID)
	}
	drop := make(map[string]bool)
	for _, p := range permissions {
		drop[p] = true
	}
	kept := u.Permissions[:0]
	for _, p := range u.Permissions {
		if !drop[p] {
			kept = append(kept, p)
		}
	}
	u.Permissions = kept
	return nil
}

var _ secondary.TokenIssuer = (*mockTokenIssuer)(nil)

// mockTokenIssuer issues "token-<username>" tokens.
type mockTokenIssuer struct{}

func (mockTokenIssuer) Issue(username string) (string, time.Time, error) {
	return "token-" + username, testDay.Add(time.Hour), nil
}

func (mockTokenIssuer) Verify(token string) (string, error) {
	const prefix = "token-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return "", apperr.New(apperr.CodeAuthentication, "invalid token")
	}
	return token[len(prefix):], nil
}
