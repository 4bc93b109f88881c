package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"eatlens-backend-go/internal/models"
)

// MemoryStore is an in-process Account Store used for local development
// (STORE_DRIVER=memory) and tests. Transactions are serialised and their
// writes are staged, then committed only when the transaction function
// returns nil.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]models.User
	requests map[string]models.UpgradeRequest
	reviews  map[string]models.Review
	messages map[string]models.ContactMessage
	audit    []models.AuditLog

	failAfter int // staged writes allowed before failErr is returned; -1 disables
	failErr   error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]models.User),
		requests:  make(map[string]models.UpgradeRequest),
		reviews:   make(map[string]models.Review),
		messages:  make(map[string]models.ContactMessage),
		failAfter: -1,
	}
}

// Repositories wires every repository to m.
func (m *MemoryStore) Repositories() *Repositories {
	return &Repositories{
		Accounts: m,
		Users:    memoryUsers{m},
		Requests: memoryRequests{m},
		Reviews:  memoryReviews{m},
		Messages: memoryMessages{m},
		Audit:    memoryAudit{m},
	}
}

// FailWritesAfter makes the next transaction fail with err once n writes
// have been staged. The failure is consumed by that transaction.
func (m *MemoryStore) FailWritesAfter(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	m.failErr = err
}

// AuditLogs returns a copy of every audit entry written so far.
func (m *MemoryStore) AuditLogs() []models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditLog(nil), m.audit...)
}

// PutUpgradeRequest stores req as is, assigning an ID when empty.
func (m *MemoryStore) PutUpgradeRequest(req models.UpgradeRequest) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	m.requests[req.ID] = req
	return req.ID
}

func (m *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		store:     m,
		users:     make(map[string]models.User),
		requests:  make(map[string]models.UpgradeRequest),
		failAfter: m.failAfter,
		failErr:   m.failErr,
	}
	m.failAfter, m.failErr = -1, nil

	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, u := range tx.users {
		m.users[id] = u
	}
	for id, r := range tx.requests {
		m.requests[id] = r
	}
	return nil
}

type memoryTx struct {
	store    *MemoryStore
	users    map[string]models.User
	requests map[string]models.UpgradeRequest
	writes   int

	failAfter int
	failErr   error
}

func (t *memoryTx) stageWrite() error {
	if t.failAfter >= 0 && t.writes >= t.failAfter {
		return t.failErr
	}
	t.writes++
	return nil
}

func (t *memoryTx) GetUser(userID string) (*models.User, error) {
	if u, ok := t.users[userID]; ok {
		return &u, nil
	}
	u, ok := t.store.users[userID]
	if !ok {
		return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
	}
	return cloneUser(u), nil
}

func (t *memoryTx) GetUpgradeRequest(requestID string) (*models.UpgradeRequest, error) {
	if r, ok := t.requests[requestID]; ok {
		return &r, nil
	}
	r, ok := t.store.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("upgrade request '%s' not found: %w", requestID, ErrNotFound)
	}
	return &r, nil
}

func (t *memoryTx) UpdateUser(userID string, patch models.UserPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	u, err := t.GetUser(userID)
	if err != nil {
		return err
	}
	if err := t.stageWrite(); err != nil {
		return err
	}
	t.users[userID] = patch.Apply(*u)
	return nil
}

func (t *memoryTx) CreateUpgradeRequest(req *models.UpgradeRequest) error {
	if err := t.stageWrite(); err != nil {
		return err
	}
	req.ID = uuid.NewString()
	t.requests[req.ID] = *req
	return nil
}

func (t *memoryTx) UpdateUpgradeRequest(requestID string, patch models.RequestPatch) error {
	r, err := t.GetUpgradeRequest(requestID)
	if err != nil {
		return err
	}
	if err := t.stageWrite(); err != nil {
		return err
	}
	t.requests[requestID] = patch.Apply(*r)
	return nil
}

func cloneUser(u models.User) *models.User {
	if u.PlanExpiryDate != nil {
		exp := *u.PlanExpiryDate
		u.PlanExpiryDate = &exp
	}
	return &u
}

type memoryUsers struct{ m *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[user.ID]; ok {
		return fmt.Errorf("user with ID '%s': %w", user.ID, ErrAlreadyExists)
	}
	r.m.users[user.ID] = *cloneUser(*user)
	return nil
}

func (r memoryUsers) GetByID(ctx context.Context, userID string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[userID]
	if !ok {
		return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
	}
	return cloneUser(u), nil
}

func (r memoryUsers) Update(ctx context.Context, userID string, patch models.UserPatch) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[userID]
	if !ok {
		return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
	}
	r.m.users[userID] = patch.Apply(u)
	return nil
}

func (r memoryUsers) ListByPlan(ctx context.Context, plan models.Plan) ([]*models.User, error) {
	return r.filter(func(u models.User) bool { return u.Plan == plan }), nil
}

func (r memoryUsers) ListExpiredPro(ctx context.Context, now models.Millis) ([]*models.User, error) {
	return r.filter(func(u models.User) bool {
		return u.Plan == models.PlanPro && u.PlanExpiryDate != nil && *u.PlanExpiryDate < now
	}), nil
}

func (r memoryUsers) filter(keep func(models.User) bool) []*models.User {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.User
	for id, u := range r.m.users {
		if keep(u) {
			c := cloneUser(u)
			c.ID = id
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memoryRequests struct{ m *MemoryStore }

func (r memoryRequests) GetByID(ctx context.Context, requestID string) (*models.UpgradeRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	req, ok := r.m.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("upgrade request '%s' not found: %w", requestID, ErrNotFound)
	}
	return &req, nil
}

func (r memoryRequests) ListByStatus(ctx context.Context, statuses ...models.RequestStatus) ([]*models.UpgradeRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.UpgradeRequest
	for _, req := range r.m.requests {
		for _, s := range statuses {
			if req.Status == s {
				c := req
				out = append(out, &c)
				break
			}
		}
	}
	return out, nil
}

type memoryReviews struct{ m *MemoryStore }

func (r memoryReviews) Create(ctx context.Context, review *models.Review) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	review.ID = uuid.NewString()
	r.m.reviews[review.ID] = *review
	return nil
}

func (r memoryReviews) List(ctx context.Context) ([]*models.Review, error) {
	return r.list(func(models.Review) bool { return true }, 0), nil
}

func (r memoryReviews) ListApproved(ctx context.Context, limit int) ([]*models.Review, error) {
	return r.list(func(rv models.Review) bool { return rv.Status == models.ReviewApproved }, limit), nil
}

func (r memoryReviews) list(keep func(models.Review) bool, limit int) []*models.Review {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Review
	for _, rv := range r.m.reviews {
		if keep(rv) {
			c := rv
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].SubmittedAt, out[j].SubmittedAt, out[i].ID, out[j].ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r memoryReviews) SetStatus(ctx context.Context, reviewID string, expect, next models.ReviewStatus) (*models.Review, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rv, ok := r.m.reviews[reviewID]
	if !ok {
		return nil, fmt.Errorf("review '%s' not found: %w", reviewID, ErrNotFound)
	}
	if rv.Status != expect {
		return &rv, fmt.Errorf("review '%s' is %s: %w", reviewID, rv.Status, ErrStatusConflict)
	}
	rv.Status = next
	r.m.reviews[reviewID] = rv
	return &rv, nil
}

type memoryMessages struct{ m *MemoryStore }

func (r memoryMessages) Create(ctx context.Context, msg *models.ContactMessage) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	msg.ID = uuid.NewString()
	r.m.messages[msg.ID] = *msg
	return nil
}

func (r memoryMessages) List(ctx context.Context) ([]*models.ContactMessage, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.ContactMessage, 0, len(r.m.messages))
	for _, msg := range r.m.messages {
		c := msg
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].SubmittedAt, out[j].SubmittedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (r memoryMessages) SetStatus(ctx context.Context, messageID string, expect, next models.MessageStatus) (*models.ContactMessage, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	msg, ok := r.m.messages[messageID]
	if !ok {
		return nil, fmt.Errorf("contact message '%s' not found: %w", messageID, ErrNotFound)
	}
	if msg.Status != expect {
		return &msg, fmt.Errorf("contact message '%s' is %s: %w", messageID, msg.Status, ErrStatusConflict)
	}
	msg.Status = next
	r.m.messages[messageID] = msg
	return &msg, nil
}

type memoryAudit struct{ m *MemoryStore }

func (r memoryAudit) Create(ctx context.Context, logEntry models.AuditLog) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	logEntry.ID = uuid.NewString()
	if logEntry.Timestamp.IsZero() {
		logEntry.Timestamp = time.Now().UTC()
	}
	r.m.audit = append(r.m.audit, logEntry)
	return nil
}

func newerFirst(a, b time.Time, idA, idB string) bool {
	if a.Equal(b) {
		return idA < idB
	}
	return a.After(b)
}
