// Package testing holds the end-to-end suite: the full storefront API on a real
// SQLite database in a temporary directory.
package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/anugrahsy/monolog-food-orders-app/internal/cart"
	"github.com/anugrahsy/monolog-food-orders-app/internal/catalog"
	"github.com/anugrahsy/monolog-food-orders-app/internal/data"
	"github.com/anugrahsy/monolog-food-orders-app/internal/distance"
	"github.com/anugrahsy/monolog-food-orders-app/internal/middleware"
	"github.com/anugrahsy/monolog-food-orders-app/internal/pricing"
	"github.com/anugrahsy/monolog-food-orders-app/internal/session"
	"github.com/anugrahsy/monolog-food-orders-app/internal/storefront"
)

// ShopLocation is Plaza Senayan, Jakarta.
var ShopLocation = distance.Coordinate{Lat: -6.2260056, Lng: 106.7991222}

const TestRecipient = "6281234567890"

// TestConfig holds configuration for test runs
type TestConfig struct {
	DBPath      string
	CatalogPath string
	TestDataDir string
	SessionTTL  time.Duration
}

// TestSuite provides utilities for integration testing
type TestSuite struct {
	Config    TestConfig
	Server    *httptest.Server
	Client    *http.Client
	Sessions  *session.Manager
	Blobs     *data.BlobRepository
	Snapshots *data.SnapshotRepository
	mu        sync.Mutex
	testCount int
}

// NewTestSuite builds the storefront on a fresh database and catalog file.
func NewTestSuite(t *testing.T) *TestSuite {
	t.Helper()

	testDir := t.TempDir()
	config := TestConfig{
		DBPath:      filepath.Join(testDir, fmt.Sprintf("test_%d.db", time.Now().UnixNano())),
		CatalogPath: filepath.Join(testDir, "produk.json"),
		TestDataDir: testDir,
		SessionTTL:  time.Hour,
	}

	if err := os.WriteFile(config.CatalogPath, []byte(TestCatalogJSON), 0644); err != nil {
		t.Fatalf("Failed to create test catalog: %v", err)
	}

	suite := &TestSuite{
		Config: config,
		Client: &http.Client{Timeout: 30 * time.Second},
	}

	if err := suite.InitDatabase(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(suite.Cleanup)

	cat := catalog.New()
	if err := cat.LoadFromFile(config.CatalogPath); err != nil {
		t.Fatalf("Failed to load test catalog: %v", err)
	}

	suite.Sessions = session.NewManager(config.SessionTTL)
	suite.Blobs = data.NewBlobRepository()
	suite.Snapshots = data.NewSnapshotRepository()

	svc := storefront.NewService(cat, suite.Sessions, cart.NewStore(suite.Blobs), suite.Snapshots, storefront.Config{
		Shop:              ShopLocation,
		WhatsAppRecipient: TestRecipient,
		Promotion:         pricing.DefaultPromotion,
	})

	mux := http.NewServeMux()
	storefront.NewHandler(svc, middleware.NewRateLimiter(0, 0)).Register(mux)
	suite.Server = httptest.NewServer(middleware.CORS("*", mux))
	t.Cleanup(suite.Server.Close)

	return suite
}

// InitDatabase opens the test database and creates the schema.
func (ts *TestSuite) InitDatabase() error {
	if err := data.InitDB(ts.Config.DBPath); err != nil {
		return fmt.Errorf("failed to init data package: %w", err)
	}
	if err := data.CreateTables(); err != nil {
		return fmt.Errorf("failed to create test schema: %w", err)
	}
	return nil
}

// Cleanup closes the database. The temp directory is removed by the testing package.
func (ts *TestSuite) Cleanup() {
	if err := data.CloseDB(); err != nil {
		fmt.Printf("Warning: failed to close data package database: %v\n", err)
	}
}

// Envelope is the API's response wrapper for both success and error bodies.
type Envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Details   string          `json:"details"`
	RequestID string          `json:"request_id"`
}

// MakeAPIRequest sends a JSON request, tagged with sessionID when set.
func (ts *TestSuite) MakeAPIRequest(method, path string, body interface{}, sessionID string) (*http.Response, error) {
	var reqBody *bytes.Buffer

	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(bodyBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}

	ts.mu.Lock()
	ts.testCount++
	ts.mu.Unlock()

	return ts.Client.Do(req)
}

// Call performs a request and decodes the envelope, failing the test on transport errors.
func (ts *TestSuite) Call(t *testing.T, method, path string, body interface{}, sessionID string) (int, Envelope) {
	t.Helper()
	resp, err := ts.MakeAPIRequest(method, path, body, sessionID)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}

	var env Envelope
	if err := ts.ParseJSONResponse(resp, &env); err != nil {
		t.Fatalf("Failed to decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, env
}

// ParseJSONResponse parses a JSON response into the provided interface
func (ts *TestSuite) ParseJSONResponse(resp *http.Response, dest interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(dest)
}

// NewSession starts a storefront session and returns its ID.
func (ts *TestSuite) NewSession(t *testing.T) string {
	t.Helper()
	status, env := ts.Call(t, http.MethodPost, "/api/session", nil, "")
	ts.AssertStatusCode(t, status, http.StatusOK)

	var view storefront.SessionView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("Failed to decode session: %v", err)
	}
	return view.SessionID
}

// RequestCount reports how many API requests the suite has sent.
func (ts *TestSuite) RequestCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.testCount
}

// AssertStatusCode checks if response has expected status code
func (ts *TestSuite) AssertStatusCode(t *testing.T, got, expected int) {
	t.Helper()
	if got != expected {
		t.Fatalf("Expected status code %d, got %d", expected, got)
	}
}
