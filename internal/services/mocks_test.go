package services

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	stripe "github.com/stripe/stripe-go/v82"

	"tickethub/internal/models/db_models"
	"tickethub/internal/models/store_models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type patchCall struct {
	id     int64
	fields map[string]interface{}
}

// mockStore is a function-field fake of the store client. Unset fields fall
// back to empty results so each test only wires what it exercises.
type mockStore struct {
	mu sync.Mutex

	createTransactionFn func(ctx context.Context, txn *store_models.Transaction) (*store_models.Transaction, error)
	getTransactionFn    func(ctx context.Context, id int64) (*store_models.Transaction, error)
	findBySessionFn     func(ctx context.Context, tenantID, sessionID string) ([]store_models.Transaction, error)
	findByIntentFn      func(ctx context.Context, tenantID, paymentIntentID string) ([]store_models.Transaction, error)
	patchTransactionFn  func(ctx context.Context, id int64, fields map[string]interface{}) (*store_models.Transaction, error)
	bulkCreateItemsFn   func(ctx context.Context, items []store_models.TransactionItem) ([]store_models.TransactionItem, error)
	listItemsFn         func(ctx context.Context, transactionID int64) ([]store_models.TransactionItem, error)
	getTicketTypeFn     func(ctx context.Context, id int64) (*store_models.TicketType, error)
	putTicketTypeFn     func(ctx context.Context, tt *store_models.TicketType, expectedSold int) error
	getEventFn          func(ctx context.Context, id int64) (*store_models.Event, error)
	getDiscountCodeFn   func(ctx context.Context, id int64) (*store_models.DiscountCode, error)
	getProfileFn        func(ctx context.Context, tenantID, email string) (*store_models.UserProfile, error)
	createProfileFn     func(ctx context.Context, profile *store_models.UserProfile) (*store_models.UserProfile, error)
	updateProfileFn     func(ctx context.Context, profile *store_models.UserProfile) error

	createCalls  int
	patchCalls   []patchCall
	bulkItems    [][]store_models.TransactionItem
	putCalls     []putTicketTypeCall
	profileGets  int
	profilePuts  []store_models.UserProfile
	profileSaves []store_models.UserProfile
}

type putTicketTypeCall struct {
	ticketType   store_models.TicketType
	expectedSold int
}

func (m *mockStore) CreateTransaction(ctx context.Context, txn *store_models.Transaction) (*store_models.Transaction, error) {
	m.mu.Lock()
	m.createCalls++
	m.mu.Unlock()
	if m.createTransactionFn != nil {
		return m.createTransactionFn(ctx, txn)
	}
	out := *txn
	out.ID = 1
	return &out, nil
}

func (m *mockStore) GetTransaction(ctx context.Context, id int64) (*store_models.Transaction, error) {
	if m.getTransactionFn != nil {
		return m.getTransactionFn(ctx, id)
	}
	return nil, nil
}

func (m *mockStore) FindTransactionsByCheckoutSession(ctx context.Context, tenantID, sessionID string) ([]store_models.Transaction, error) {
	if m.findBySessionFn != nil {
		return m.findBySessionFn(ctx, tenantID, sessionID)
	}
	return nil, nil
}

func (m *mockStore) FindTransactionsByPaymentIntent(ctx context.Context, tenantID, paymentIntentID string) ([]store_models.Transaction, error) {
	if m.findByIntentFn != nil {
		return m.findByIntentFn(ctx, tenantID, paymentIntentID)
	}
	return nil, nil
}

func (m *mockStore) PatchTransaction(ctx context.Context, id int64, fields map[string]interface{}) (*store_models.Transaction, error) {
	m.mu.Lock()
	m.patchCalls = append(m.patchCalls, patchCall{id: id, fields: fields})
	m.mu.Unlock()
	if m.patchTransactionFn != nil {
		return m.patchTransactionFn(ctx, id, fields)
	}
	return &store_models.Transaction{ID: id}, nil
}

func (m *mockStore) BulkCreateTransactionItems(ctx context.Context, items []store_models.TransactionItem) ([]store_models.TransactionItem, error) {
	m.mu.Lock()
	m.bulkItems = append(m.bulkItems, items)
	m.mu.Unlock()
	if m.bulkCreateItemsFn != nil {
		return m.bulkCreateItemsFn(ctx, items)
	}
	return items, nil
}

func (m *mockStore) ListTransactionItems(ctx context.Context, transactionID int64) ([]store_models.TransactionItem, error) {
	if m.listItemsFn != nil {
		return m.listItemsFn(ctx, transactionID)
	}
	return nil, nil
}

func (m *mockStore) GetTicketType(ctx context.Context, id int64) (*store_models.TicketType, error) {
	if m.getTicketTypeFn != nil {
		return m.getTicketTypeFn(ctx, id)
	}
	return &store_models.TicketType{ID: id}, nil
}

func (m *mockStore) PutTicketType(ctx context.Context, tt *store_models.TicketType, expectedSold int) error {
	m.mu.Lock()
	m.putCalls = append(m.putCalls, putTicketTypeCall{ticketType: *tt, expectedSold: expectedSold})
	m.mu.Unlock()
	if m.putTicketTypeFn != nil {
		return m.putTicketTypeFn(ctx, tt, expectedSold)
	}
	return nil
}

func (m *mockStore) GetEvent(ctx context.Context, id int64) (*store_models.Event, error) {
	if m.getEventFn != nil {
		return m.getEventFn(ctx, id)
	}
	return &store_models.Event{ID: id, Name: "Test Event"}, nil
}

func (m *mockStore) GetDiscountCode(ctx context.Context, id int64) (*store_models.DiscountCode, error) {
	if m.getDiscountCodeFn != nil {
		return m.getDiscountCodeFn(ctx, id)
	}
	return nil, nil
}

func (m *mockStore) GetUserProfileByEmail(ctx context.Context, tenantID, email string) (*store_models.UserProfile, error) {
	m.mu.Lock()
	m.profileGets++
	m.mu.Unlock()
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, tenantID, email)
	}
	return nil, nil
}

func (m *mockStore) CreateUserProfile(ctx context.Context, profile *store_models.UserProfile) (*store_models.UserProfile, error) {
	m.mu.Lock()
	m.profilePuts = append(m.profilePuts, *profile)
	m.mu.Unlock()
	if m.createProfileFn != nil {
		return m.createProfileFn(ctx, profile)
	}
	return profile, nil
}

func (m *mockStore) UpdateUserProfile(ctx context.Context, profile *store_models.UserProfile) error {
	m.mu.Lock()
	m.profileSaves = append(m.profileSaves, *profile)
	m.mu.Unlock()
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, profile)
	}
	return nil
}

type mockProvider struct {
	constructEventFn        func(payload []byte, signature string) (stripe.Event, error)
	getCheckoutSessionFn    func(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	getPaymentIntentFn      func(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	getCustomerFn           func(ctx context.Context, id string) (*stripe.Customer, error)
	getBalanceTransactionFn func(ctx context.Context, id string) (*stripe.BalanceTransaction, error)
	createRefundFn          func(ctx context.Context, paymentIntentID, reason string, transactionID int64) (*stripe.Refund, error)

	refundCalls int
}

func (m *mockProvider) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	if m.constructEventFn != nil {
		return m.constructEventFn(payload, signature)
	}
	return stripe.Event{}, nil
}

func (m *mockProvider) GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	if m.getCheckoutSessionFn != nil {
		return m.getCheckoutSessionFn(ctx, id)
	}
	return &stripe.CheckoutSession{ID: id}, nil
}

func (m *mockProvider) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	if m.getPaymentIntentFn != nil {
		return m.getPaymentIntentFn(ctx, id)
	}
	return &stripe.PaymentIntent{ID: id}, nil
}

func (m *mockProvider) GetCustomer(ctx context.Context, id string) (*stripe.Customer, error) {
	if m.getCustomerFn != nil {
		return m.getCustomerFn(ctx, id)
	}
	return &stripe.Customer{ID: id}, nil
}

func (m *mockProvider) GetBalanceTransaction(ctx context.Context, id string) (*stripe.BalanceTransaction, error) {
	if m.getBalanceTransactionFn != nil {
		return m.getBalanceTransactionFn(ctx, id)
	}
	return &stripe.BalanceTransaction{ID: id}, nil
}

func (m *mockProvider) CreateRefund(ctx context.Context, paymentIntentID, reason string, transactionID int64) (*stripe.Refund, error) {
	m.refundCalls++
	if m.createRefundFn != nil {
		return m.createRefundFn(ctx, paymentIntentID, reason, transactionID)
	}
	return &stripe.Refund{ID: "re_1"}, nil
}

// mockJournal remembers which provider events it has seen, like the real
// journal's unique index does.
type mockJournal struct {
	mu      sync.Mutex
	records map[string]*db_models.ProviderEventRecord

	claimErr  error
	processed []string
	ignored   []string
	failed    []string
}

func newMockJournal() *mockJournal {
	return &mockJournal{records: make(map[string]*db_models.ProviderEventRecord)}
}

func (m *mockJournal) Claim(ctx context.Context, providerEventID, eventType string, payload []byte) (*db_models.ProviderEventRecord, bool, error) {
	if m.claimErr != nil {
		return nil, false, m.claimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[providerEventID]; ok {
		existing.Attempts++
		return existing, true, nil
	}
	record := &db_models.ProviderEventRecord{
		ProviderEventID: providerEventID,
		EventType:       eventType,
		Status:          db_models.EventStatusReceived,
		Attempts:        1,
	}
	m.records[providerEventID] = record
	return record, false, nil
}

func (m *mockJournal) MarkProcessed(ctx context.Context, providerEventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed = append(m.processed, providerEventID)
	if record, ok := m.records[providerEventID]; ok {
		record.Status = db_models.EventStatusProcessed
	}
	return nil
}

func (m *mockJournal) MarkIgnored(ctx context.Context, providerEventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ignored = append(m.ignored, providerEventID)
	if record, ok := m.records[providerEventID]; ok {
		record.Status = db_models.EventStatusIgnored
	}
	return nil
}

func (m *mockJournal) MarkFailed(ctx context.Context, providerEventID string, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, providerEventID)
	if record, ok := m.records[providerEventID]; ok {
		record.Status = db_models.EventStatusFailed
		if cause != nil {
			record.LastError = cause.Error()
		}
	}
	return nil
}

// mockGuards behaves like the durable guard table: first Claim per key wins.
type mockGuards struct {
	mu     sync.Mutex
	guards map[string]*db_models.ArtifactGuard

	claimErr error
	claims   int
}

func newMockGuards() *mockGuards {
	return &mockGuards{guards: make(map[string]*db_models.ArtifactGuard)}
}

func (m *mockGuards) Claim(ctx context.Context, guardKey, sessionKey string) (*db_models.ArtifactGuard, bool, error) {
	if m.claimErr != nil {
		return nil, false, m.claimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims++
	if existing, ok := m.guards[guardKey]; ok {
		return existing, false, nil
	}
	guard := &db_models.ArtifactGuard{
		GuardKey:   guardKey,
		SessionKey: sessionKey,
		State:      db_models.GuardStateInFlight,
	}
	m.guards[guardKey] = guard
	return guard, true, nil
}

func (m *mockGuards) Complete(ctx context.Context, guardKey, qrData string, emailSent bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if guard, ok := m.guards[guardKey]; ok {
		guard.State = db_models.GuardStateCompleted
		guard.QRData = qrData
		guard.EmailSent = emailSent
	}
	return nil
}

func (m *mockGuards) Fail(ctx context.Context, guardKey string, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if guard, ok := m.guards[guardKey]; ok {
		guard.State = db_models.GuardStateFailed
		if cause != nil {
			guard.LastError = cause.Error()
		}
	}
	return nil
}

func (m *mockGuards) GetCompleted(ctx context.Context, guardKey string) (*db_models.ArtifactGuard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	guard, ok := m.guards[guardKey]
	if !ok || guard.State != db_models.GuardStateCompleted {
		return nil, nil
	}
	return guard, nil
}

type mockMail struct {
	mu    sync.Mutex
	sends []string
	err   error
}

func (m *mockMail) SendTicketEmail(to string, data TicketEmailData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sends = append(m.sends, to)
	return nil
}

type mockInventory struct {
	mu    sync.Mutex
	carts [][]store_models.CartItem
}

func (m *mockInventory) AdjustForPurchase(ctx context.Context, cart []store_models.CartItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts = append(m.carts, cart)
}

type mockProfiles struct {
	mu      sync.Mutex
	upserts []store_models.UserProfile
	done    chan struct{}
}

func (m *mockProfiles) UpsertBuyer(ctx context.Context, buyer store_models.UserProfile) error {
	m.mu.Lock()
	m.upserts = append(m.upserts, buyer)
	m.mu.Unlock()
	if m.done != nil {
		close(m.done)
	}
	return nil
}

type mockReconciler struct {
	fn    func(ctx context.Context, in ReconcileInput, policy LookupPolicy) (*store_models.Transaction, bool, error)
	calls int
}

func (m *mockReconciler) EnsureTransaction(ctx context.Context, in ReconcileInput, policy LookupPolicy) (*store_models.Transaction, bool, error) {
	m.calls++
	if m.fn != nil {
		return m.fn(ctx, in, policy)
	}
	return &store_models.Transaction{ID: 1}, false, nil
}

type mockArtifacts struct {
	fn    func(ctx context.Context, txn *store_models.Transaction, sessionKey string) (string, error)
	calls int
	keys  []string
}

func (m *mockArtifacts) EnsureTicketArtifact(ctx context.Context, txn *store_models.Transaction, sessionKey string) (string, error) {
	m.calls++
	m.keys = append(m.keys, sessionKey)
	if m.fn != nil {
		return m.fn(ctx, txn, sessionKey)
	}
	return "data:image/png;base64,stub", nil
}

type mockFees struct {
	fn      func(ctx context.Context, charge *stripe.Charge) error
	charges []*stripe.Charge
}

func (m *mockFees) ApplyChargeFee(ctx context.Context, charge *stripe.Charge) error {
	m.charges = append(m.charges, charge)
	if m.fn != nil {
		return m.fn(ctx, charge)
	}
	return nil
}
