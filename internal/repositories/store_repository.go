package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"tickethub/internal/models/store_models"
	"tickethub/pkg/utils"
)

// StoreRepositoryInterface is the thin client over the external ticketing
// store's CRUD API. Auth is a bearer token obtained from the store; a 401 is
// retried exactly once after a transparent re-login.
type StoreRepositoryInterface interface {
	CreateTransaction(ctx context.Context, txn *store_models.Transaction) (*store_models.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*store_models.Transaction, error)
	FindTransactionsByCheckoutSession(ctx context.Context, tenantID, sessionID string) ([]store_models.Transaction, error)
	FindTransactionsByPaymentIntent(ctx context.Context, tenantID, paymentIntentID string) ([]store_models.Transaction, error)
	PatchTransaction(ctx context.Context, id int64, fields map[string]interface{}) (*store_models.Transaction, error)

	BulkCreateTransactionItems(ctx context.Context, items []store_models.TransactionItem) ([]store_models.TransactionItem, error)
	ListTransactionItems(ctx context.Context, transactionID int64) ([]store_models.TransactionItem, error)

	GetTicketType(ctx context.Context, id int64) (*store_models.TicketType, error)
	PutTicketType(ctx context.Context, ticketType *store_models.TicketType, expectedSold int) error

	GetEvent(ctx context.Context, id int64) (*store_models.Event, error)
	GetDiscountCode(ctx context.Context, id int64) (*store_models.DiscountCode, error)

	GetUserProfileByEmail(ctx context.Context, tenantID, email string) (*store_models.UserProfile, error)
	CreateUserProfile(ctx context.Context, profile *store_models.UserProfile) (*store_models.UserProfile, error)
	UpdateUserProfile(ctx context.Context, profile *store_models.UserProfile) error
}

type StoreConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

type storeRepository struct {
	cfg    StoreConfig
	logger *logrus.Logger
	hc     *http.Client

	mu    sync.Mutex
	token string
}

func NewStoreRepository(cfg StoreConfig, logger *logrus.Logger, hc *http.Client) (StoreRepositoryInterface, error) {
	if cfg.BaseURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("missing ticketing store credentials")
	}
	return &storeRepository{
		cfg:    cfg,
		logger: logger,
		hc:     hc,
	}, nil
}

// errStatusNotFound is internal; resource methods map it to the matching
// sentinel so callers can errors.Is against the resource they asked for.
var errStatusNotFound = fmt.Errorf("store returned 404")

func (r *storeRepository) authenticate(ctx context.Context) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"clientId":     r.cfg.ClientID,
		"clientSecret": r.cfg.ClientSecret,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/v1/auth/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: auth returned %d", utils.ErrStoreUnauthorized, resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}

	r.mu.Lock()
	r.token = out.Token
	r.mu.Unlock()

	return out.Token, nil
}

func (r *storeRepository) currentToken(ctx context.Context) (string, error) {
	r.mu.Lock()
	token := r.token
	r.mu.Unlock()
	if token != "" {
		return token, nil
	}
	return r.authenticate(ctx)
}

func (r *storeRepository) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	send := func(token string) (*http.Response, error) {
		u := r.cfg.BaseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return r.hc.Do(req)
	}

	token, err := r.currentToken(ctx)
	if err != nil {
		return err
	}

	resp, err := send(token)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrStoreUnavailable, err)
	}

	// One transparent re-login on an expired or revoked token.
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		token, err = r.authenticate(ctx)
		if err != nil {
			return err
		}
		resp, err = send(token)
		if err != nil {
			return fmt.Errorf("%w: %v", utils.ErrStoreUnavailable, err)
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrStoreUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errStatusNotFound
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", utils.ErrStoreConflict, string(respBody))
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: after re-authentication", utils.ErrStoreUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s %s returned %d: %s", utils.ErrStoreUnavailable, method, path, resp.StatusCode, string(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode store response for %s %s: %w", method, path, err)
	}
	return nil
}

func (r *storeRepository) CreateTransaction(ctx context.Context, txn *store_models.Transaction) (*store_models.Transaction, error) {
	var created store_models.Transaction
	if err := r.do(ctx, http.MethodPost, "/v1/transactions", nil, txn, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *storeRepository) GetTransaction(ctx context.Context, id int64) (*store_models.Transaction, error) {
	var txn store_models.Transaction
	err := r.do(ctx, http.MethodGet, "/v1/transactions/"+strconv.FormatInt(id, 10), nil, nil, &txn)
	if err == errStatusNotFound {
		return nil, utils.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *storeRepository) findTransactions(ctx context.Context, query url.Values) ([]store_models.Transaction, error) {
	var txns []store_models.Transaction
	err := r.do(ctx, http.MethodGet, "/v1/transactions", query, nil, &txns)
	if err == errStatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *storeRepository) FindTransactionsByCheckoutSession(ctx context.Context, tenantID, sessionID string) ([]store_models.Transaction, error) {
	query := url.Values{}
	query.Set("checkout_session_id", sessionID)
	if tenantID != "" {
		query.Set("tenant_id", tenantID)
	}
	return r.findTransactions(ctx, query)
}

func (r *storeRepository) FindTransactionsByPaymentIntent(ctx context.Context, tenantID, paymentIntentID string) ([]store_models.Transaction, error) {
	query := url.Values{}
	query.Set("payment_intent_id", paymentIntentID)
	if tenantID != "" {
		query.Set("tenant_id", tenantID)
	}
	return r.findTransactions(ctx, query)
}

func (r *storeRepository) PatchTransaction(ctx context.Context, id int64, fields map[string]interface{}) (*store_models.Transaction, error) {
	var patched store_models.Transaction
	err := r.do(ctx, http.MethodPatch, "/v1/transactions/"+strconv.FormatInt(id, 10), nil, fields, &patched)
	if err == errStatusNotFound {
		return nil, utils.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &patched, nil
}

func (r *storeRepository) BulkCreateTransactionItems(ctx context.Context, items []store_models.TransactionItem) ([]store_models.TransactionItem, error) {
	var created []store_models.TransactionItem
	if err := r.do(ctx, http.MethodPost, "/v1/transaction-items/bulk", nil, items, &created); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *storeRepository) ListTransactionItems(ctx context.Context, transactionID int64) ([]store_models.TransactionItem, error) {
	query := url.Values{}
	query.Set("transaction_id", strconv.FormatInt(transactionID, 10))

	var items []store_models.TransactionItem
	err := r.do(ctx, http.MethodGet, "/v1/transaction-items", query, nil, &items)
	if err == errStatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *storeRepository) GetTicketType(ctx context.Context, id int64) (*store_models.TicketType, error) {
	var ticketType store_models.TicketType
	err := r.do(ctx, http.MethodGet, "/v1/ticket-types/"+strconv.FormatInt(id, 10), nil, nil, &ticketType)
	if err == errStatusNotFound {
		return nil, utils.ErrTicketTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticketType, nil
}

// PutTicketType writes back adjusted counters. expectedSold carries the sold
// count the caller read, so a store that supports conditional writes can
// reject concurrent updates with 409; stores that ignore it fall back to
// last-writer-wins.
func (r *storeRepository) PutTicketType(ctx context.Context, ticketType *store_models.TicketType, expectedSold int) error {
	payload := struct {
		store_models.TicketType
		ExpectedSold int `json:"expectedSold"`
	}{*ticketType, expectedSold}

	err := r.do(ctx, http.MethodPut, "/v1/ticket-types/"+strconv.FormatInt(ticketType.ID, 10), nil, payload, nil)
	if err == errStatusNotFound {
		return utils.ErrTicketTypeNotFound
	}
	return err
}

func (r *storeRepository) GetEvent(ctx context.Context, id int64) (*store_models.Event, error) {
	var event store_models.Event
	err := r.do(ctx, http.MethodGet, "/v1/events/"+strconv.FormatInt(id, 10), nil, nil, &event)
	if err == errStatusNotFound {
		return nil, utils.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *storeRepository) GetDiscountCode(ctx context.Context, id int64) (*store_models.DiscountCode, error) {
	var code store_models.DiscountCode
	err := r.do(ctx, http.MethodGet, "/v1/discount-codes/"+strconv.FormatInt(id, 10), nil, nil, &code)
	if err == errStatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *storeRepository) GetUserProfileByEmail(ctx context.Context, tenantID, email string) (*store_models.UserProfile, error) {
	query := url.Values{}
	query.Set("email", email)
	if tenantID != "" {
		query.Set("tenant_id", tenantID)
	}

	var profiles []store_models.UserProfile
	err := r.do(ctx, http.MethodGet, "/v1/user-profiles", query, nil, &profiles)
	if err == errStatusNotFound || (err == nil && len(profiles) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profiles[0], nil
}

func (r *storeRepository) CreateUserProfile(ctx context.Context, profile *store_models.UserProfile) (*store_models.UserProfile, error) {
	var created store_models.UserProfile
	if err := r.do(ctx, http.MethodPost, "/v1/user-profiles", nil, profile, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *storeRepository) UpdateUserProfile(ctx context.Context, profile *store_models.UserProfile) error {
	return r.do(ctx, http.MethodPut, "/v1/user-profiles/"+strconv.FormatInt(profile.ID, 10), nil, profile, nil)
}
