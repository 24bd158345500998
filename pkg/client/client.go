package client

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/board"
	"github.com/jmerrifield20/linkboard/pkg/txn"
)

// Status sentinels matched by APIError.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrRejected     = errors.New("transaction rejected")
)

// APIError is a non-2xx response from the node. errors.Is matches it against
// the status sentinels above and, when the node reported one, against the
// board program error with the same code.
type APIError struct {
	StatusCode int
	Message    string
	Code       uint32 // board program error code, 0 if none
	Name       string
}

func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("node returned %d [%s %d]: %s", e.StatusCode, e.Name, e.Code, e.Message)
	}
	return fmt.Sprintf("node returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap implements the multi-error form of errors.Unwrap.
func (e *APIError) Unwrap() []error {
	var out []error
	switch e.StatusCode {
	case http.StatusNotFound:
		out = append(out, ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		out = append(out, ErrUnauthorized)
	case http.StatusConflict:
		out = append(out, ErrConflict)
	case http.StatusUnprocessableEntity:
		out = append(out, ErrRejected)
	}
	if e.Code != 0 {
		if perr := board.ErrorByCode(e.Code); perr != nil {
			out = append(out, perr)
		}
	}
	return out
}

// Receipt is returned for an applied transaction.
type Receipt struct {
	Signature   string `json:"signature"`
	Instruction string `json:"instruction"`
	Slot        int    `json:"slot"`
}

// Account is the raw state of one address.
type Account struct {
	Address  address.Address `json:"address"`
	Owner    address.Address `json:"owner"`
	Lamports uint64          `json:"lamports"`
	Data     []byte          `json:"data"`
	Space    int             `json:"space"`
}

// Board is the decoded state of a board account.
type Board struct {
	Address      address.Address `json:"address"`
	TotalEntries uint64          `json:"total_entries"`
	Entries      []board.Entry   `json:"entries"`
}

// AirdropResult is returned by Airdrop.
type AirdropResult struct {
	Signature string `json:"signature"`
	Slot      int    `json:"slot"`
	Balance   uint64 `json:"balance"`
}

// JournalInfo summarises the node's transaction journal.
type JournalInfo struct {
	Entries int    `json:"entries"`
	Root    string `json:"root"`
}

// Client is the linkboard SDK entry point.
type Client struct {
	base       string
	httpClient *http.Client
	cache      *boardCache

	mu          sync.Mutex
	bearerToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("nil http client")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.httpClient = &http.Client{Timeout: d}
		return nil
	}
}

// WithCacheTTL enables in-memory caching of GetBoard results. Boards this
// client appends to are evicted immediately.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) error {
		c.cache = newBoardCache(ttl)
		return nil
	}
}

// WithBearerToken attaches an admin token to every request.
func WithBearerToken(token string) Option {
	return func(c *Client) error {
		c.bearerToken = token
		return nil
	}
}

// New creates a Client for the node at base, e.g. "http://localhost:8899".
//
//	c, err := client.New("http://localhost:8899",
//	    client.WithCacheTTL(5*time.Second),
//	)
func New(base string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parse node URL: %w", err)
	}
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(base string, opts ...Option) *Client {
	c, err := New(base, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// SendTransaction submits a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *txn.Transaction) (*Receipt, error) {
	var r Receipt
	if err := c.call(ctx, http.MethodPost, "/api/v1/transactions", tx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Send signs msg with keys and submits it. A zero nonce is replaced with a
// random one so repeated identical instructions are distinct transactions.
func (c *Client) Send(ctx context.Context, msg txn.Message, keys ...*address.Keypair) (*Receipt, error) {
	if msg.Nonce == 0 {
		n, err := randomNonce()
		if err != nil {
			return nil, err
		}
		msg.Nonce = n
	}
	tx, err := txn.New(msg, keys...)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return c.SendTransaction(ctx, tx)
}

// Initialize creates an empty board at boardKey's address, funded by payer.
func (c *Client) Initialize(ctx context.Context, payer, boardKey *address.Keypair) (*Receipt, error) {
	return c.Send(ctx, board.InitializeMessage(boardKey.Address(), payer.Address(), 0), boardKey, payer)
}

// Append adds link to the board at boardAddr, signed by submitter.
func (c *Client) Append(ctx context.Context, boardAddr address.Address, submitter *address.Keypair, link string) (*Receipt, error) {
	if c.cache != nil {
		defer c.cache.evict(boardAddr)
	}
	return c.Send(ctx, board.AppendMessage(boardAddr, submitter.Address(), link, 0), submitter)
}

// GetBoard returns the decoded board at addr.
func (c *Client) GetBoard(ctx context.Context, addr address.Address) (*Board, error) {
	if c.cache != nil {
		if b, ok := c.cache.get(addr); ok {
			return b, nil
		}
	}
	var b Board
	if err := c.call(ctx, http.MethodGet, "/api/v1/boards/"+addr.String(), nil, &b); err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.set(addr, &b)
	}
	return &b, nil
}

// GetAccount returns the raw account at addr.
func (c *Client) GetAccount(ctx context.Context, addr address.Address) (*Account, error) {
	var a Account
	if err := c.call(ctx, http.MethodGet, "/api/v1/accounts/"+addr.String(), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Balance returns the lamports held at addr; an account that does not exist
// holds zero.
func (c *Client) Balance(ctx context.Context, addr address.Address) (uint64, error) {
	a, err := c.GetAccount(ctx, addr)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return a.Lamports, nil
}

// MinimumBalance returns the rent-exempt balance for an account of space
// bytes.
func (c *Client) MinimumBalance(ctx context.Context, space uint64) (uint64, error) {
	var out struct {
		Lamports uint64 `json:"lamports"`
	}
	path := "/api/v1/rent?space=" + strconv.FormatUint(space, 10)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Lamports, nil
}

// AdminToken exchanges the node's admin secret for a bearer token, which the
// client then attaches to every request.
func (c *Client) AdminToken(ctx context.Context, secret string) (string, time.Duration, error) {
	var out struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/auth/admin-token", map[string]string{"secret": secret}, &out); err != nil {
		return "", 0, err
	}
	c.mu.Lock()
	c.bearerToken = out.Token
	c.mu.Unlock()
	return out.Token, time.Duration(out.ExpiresIn) * time.Second, nil
}

// Airdrop asks the node's faucet to credit lamports to addr. It requires an
// admin token.
func (c *Client) Airdrop(ctx context.Context, addr address.Address, lamports uint64) (*AirdropResult, error) {
	body := map[string]any{"address": addr, "lamports": lamports}
	var out AirdropResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/airdrop", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Journal returns the journal length and root hash.
func (c *Client) Journal(ctx context.Context) (*JournalInfo, error) {
	var out JournalInfo
	if err := c.call(ctx, http.MethodGet, "/api/v1/journal", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call sends a JSON request and decodes a JSON response into out.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var bodyReader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// do executes an HTTP request, attaching the Bearer token if present.
func (c *Client) do(req *http.Request) ([]byte, error) {
	c.mu.Lock()
	token := c.bearerToken
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, body)
	}
	return body, nil
}

func decodeError(status int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
		Code  uint32 `json:"code"`
		Name  string `json:"name"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
		return apiErr
	}
	apiErr.Message = payload.Error
	apiErr.Code = payload.Code
	apiErr.Name = payload.Name
	return apiErr
}

func randomNonce() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("generate nonce: %w", err)
	}
	if n := binary.LittleEndian.Uint64(b[:]); n != 0 {
		return n, nil
	}
	return 1, nil
}

// --- simple in-memory board cache ---

type cacheEntry struct {
	board     *Board
	expiresAt time.Time
}

type boardCache struct {
	mu      sync.RWMutex
	entries map[address.Address]*cacheEntry
	ttl     time.Duration
}

func newBoardCache(ttl time.Duration) *boardCache {
	return &boardCache{entries: make(map[address.Address]*cacheEntry), ttl: ttl}
}

func (bc *boardCache) get(key address.Address) (*Board, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	e, ok := bc.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.board, true
}

func (bc *boardCache) set(key address.Address, b *Board) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.entries[key] = &cacheEntry{board: b, expiresAt: time.Now().Add(bc.ttl)}
}

func (bc *boardCache) evict(key address.Address) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	delete(bc.entries, key)
}
