package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/campus-velo/velo/internal/testutil"
	"github.com/google/uuid"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient()
	testutil.AssertNil(t, err)
	testutil.AssertTrue(t, client != nil)
	testutil.AssertTrue(t, client.httpClient != nil)
	testutil.AssertEqual(t, client.baseURL, BaseURL)
	testutil.AssertTrue(t, client.logger != nil)
}

func TestNewClient_WithTimeout(t *testing.T) {
	customTimeout := 30 * time.Second
	client, err := NewClient(WithTimeout(customTimeout))
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, client.httpClient.Timeout, customTimeout)
}

func TestNewClient_WithHTTPClient(t *testing.T) {
	customClient := &http.Client{Timeout: 5 * time.Second}
	client, err := NewClient(WithHTTPClient(customClient))
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, client.httpClient, customClient)
}

func TestNewClient_WithCache(t *testing.T) {
	mockCache := newMockCache()
	client, err := NewClient(WithCache(mockCache))
	testutil.AssertNil(t, err)
	testutil.AssertTrue(t, client.cache != nil)
}

func TestNewClient_WithBaseURL(t *testing.T) {
	client, err := NewClient(WithBaseURL("https://fleet.example.edu/api/"))
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, client.BaseURL(), "https://fleet.example.edu/api")
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, u := range []string{"", "fleet.example.edu", "ftp://fleet.example.edu", "http://"} {
		_, err := NewClient(WithBaseURL(u))
		testutil.AssertError(t, err)

		var ve *ValidationError
		testutil.AssertTrue(t, errors.As(err, &ve))
		testutil.AssertEqual(t, ve.Field, "api_url")
	}
}

func TestGetStations_Success(t *testing.T) {
	ms := testutil.NewMockServer(func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.Method, "GET")
		testutil.AssertEqual(t, r.URL.Path, EndpointStations)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(testutil.SampleStationsResponse))
	})
	defer ms.Close()

	client := newTestClient(t, ms.URL)

	snap, err := client.GetStations(context.Background())
	testutil.AssertNil(t, err)
	testutil.AssertLen(t, snap.Stations, 3)
	testutil.AssertEqual(t, snap.Excluded, 1)
	testutil.AssertEqual(t, snap.Stations[0].Name, "Biblioteca Central")
	testutil.AssertEqual(t, ms.RequestCount(), 1)
}

func TestGetStations_Headers(t *testing.T) {
	ms := testutil.NewRouteServer(map[string]string{EndpointStations: testutil.SampleEmptyResponse})
	defer ms.Close()

	client := newTestClient(t, ms.URL, WithToken("s3cret"))

	_, err := client.GetStations(context.Background())
	testutil.AssertNil(t, err)

	req := ms.LastRequest()
	testutil.AssertEqual(t, req.Header.Get("Authorization"), "Bearer s3cret")
	testutil.AssertEqual(t, req.Header.Get("Accept"), "application/json")
	testutil.AssertEqual(t, req.Header.Get("User-Agent"), UserAgent)

	_, err = uuid.Parse(req.Header.Get(RequestIDHeader))
	testutil.AssertNil(t, err)
}

func TestGetStations_NoTokenNoAuthorization(t *testing.T) {
	ms := testutil.NewRouteServer(map[string]string{EndpointStations: testutil.SampleEmptyResponse})
	defer ms.Close()

	client := newTestClient(t, ms.URL)
	_, err := client.GetStations(context.Background())
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, ms.LastRequest().Header.Get("Authorization"), "")
}

func TestGetStations_EmptyAndNull(t *testing.T) {
	for _, body := range []string{"[]", "null", ""} {
		ms := testutil.NewRouteServer(map[string]string{EndpointStations: body})
		client := newTestClient(t, ms.URL)

		snap, err := client.GetStations(context.Background())
		testutil.AssertNil(t, err)
		testutil.AssertTrue(t, snap.Stations != nil)
		testutil.AssertLen(t, snap.Stations, 0)
		ms.Close()
	}
}

func TestGetStations_InvalidJSON(t *testing.T) {
	ms := testutil.NewMockServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(testutil.SampleErrorResponse))
	})
	defer ms.Close()

	client := newTestClient(t, ms.URL)

	_, err := client.GetStations(context.Background())
	testutil.AssertErrorIs(t, err, ErrMalformedResponse)
}

func TestGetStations_HTTPError(t *testing.T) {
	ms := testutil.NewMockServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"server error"}`))
	})
	defer ms.Close()

	client := newTestClient(t, ms.URL)

	_, err := client.GetStations(context.Background())
	testutil.AssertErrorIs(t, err, ErrServerError)

	var apiErr *APIError
	testutil.AssertTrue(t, errors.As(err, &apiErr))
	testutil.AssertEqual(t, apiErr.Endpoint, EndpointStations)
	testutil.AssertTrue(t, apiErr.RequestID != "")
	testutil.AssertEqual(t, apiErr.Message, "server error")
}

func TestGetStations_Unreachable(t *testing.T) {
	ms := testutil.NewRouteServer(nil)
	url := ms.URL
	ms.Close()

	client := newTestClient(t, url)

	_, err := client.GetStations(context.Background())
	testutil.AssertErrorIs(t, err, ErrUnreachable)
	testutil.AssertTrue(t, Retryable(err))
}

func TestGetStations_Deduplicates(t *testing.T) {
	ms := testutil.NewRouteServer(map[string]string{EndpointStations: testutil.SampleDuplicateStationsResponse})
	defer ms.Close()

	client := newTestClient(t, ms.URL)
	snap, err := client.GetStations(context.Background())
	testutil.AssertNil(t, err)
	testutil.AssertLen(t, snap.Stations, 2)
	testutil.AssertEqual(t, snap.Stations[0].ID, "5")
	testutil.AssertEqual(t, snap.Stations[0].Name, "New Name")
}

func TestGetBikes_Success(t *testing.T) {
	ms := testutil.NewRouteServer(map[string]string{EndpointBikes: testutil.SampleBikesResponse})
	defer ms.Close()

	client := newTestClient(t, ms.URL)

	snap, err := client.GetBikes(context.Background())
	testutil.AssertNil(t, err)
	testutil.AssertLen(t, snap.Bikes, 4)
	testutil.AssertEqual(t, snap.Bikes[1].StationName(), "-")
	testutil.AssertEqual(t, ms.CountPath(EndpointBikes), 1)
}

func TestGetUsage24h_Success(t *testing.T) {
	ms := testutil.NewRouteServer(map[string]string{EndpointUsage24h: testutil.SampleUsageResponse})
	defer ms.Close()

	client := newTestClient(t, ms.URL)

	points, err := client.GetUsage24h(context.Background())
	testutil.AssertNil(t, err)
	testutil.AssertLen(t, points, 24)
	testutil.AssertEqual(t, points[0].Hour, "14:00")
	testutil.AssertEqual(t, points[23].Count, 0)
}

func TestGetUsage24h_KeepsMalformedSlots(t *testing.T) {
	ms := testutil.NewRouteServer(map[string]string{
		EndpointUsage24h: `[{"hour": "10:00", "count": 2}, 42, {"hour": "11:00", "count": 5}]`,
	})
	defer ms.Close()

	client := newTestClient(t, ms.URL)

	points, err := client.GetUsage24h(context.Background())
	testutil.AssertNil(t, err)
	testutil.AssertLen(t, points, 3)
	testutil.AssertEqual(t, points[0].Hour, "10:00")
	testutil.AssertEqual(t, points[1].Hour, "11:00")
	testutil.AssertEqual(t, points[2].Hour, "00:00")
	testutil.AssertEqual(t, points[2].Count, 0)
}

func TestGetStationsRaw_Success(t *testing.T) {
	ms := testutil.NewRouteServer(map[string]string{EndpointStations: testutil.SampleStationsResponse})
	defer ms.Close()

	client := newTestClient(t, ms.URL)

	rawJSON, err := client.GetStationsRaw(context.Background())
	testutil.AssertNil(t, err)
	testutil.AssertContains(t, string(rawJSON), "no-data")
}

func TestFetchFleet_Success(t *testing.T) {
	ms := testutil.NewRouteServer(map[string]string{
		EndpointStations: testutil.SampleStationsResponse,
		EndpointBikes:    testutil.SampleBikesResponse,
		EndpointUsage24h: testutil.SampleUsageResponse,
	})
	defer ms.Close()

	client := newTestClient(t, ms.URL)

	fleet, err := client.FetchFleet(context.Background())
	testutil.AssertNil(t, err)
	testutil.AssertLen(t, fleet.Stations.Stations, 3)
	testutil.AssertLen(t, fleet.Bikes.Bikes, 4)
	testutil.AssertLen(t, fleet.Usage, 24)
	testutil.AssertEqual(t, ms.RequestCount(), 3)
}

func TestFetchFleet_OneEndpointFails(t *testing.T) {
	ms := testutil.NewRouteServer(map[string]string{
		EndpointStations: testutil.SampleStationsResponse,
		EndpointBikes:    testutil.SampleBikesResponse,
	})
	defer ms.Close()

	client := newTestClient(t, ms.URL)

	fleet, err := client.FetchFleet(context.Background())
	testutil.AssertErrorIs(t, err, ErrNotFound)
	testutil.AssertLen(t, fleet.Stations.Stations, 0)
}

func TestClient_WithCache(t *testing.T) {
	mockCache := newMockCache()

	ms := testutil.NewRouteServer(map[string]string{EndpointStations: testutil.SampleStationsResponse})
	defer ms.Close()

	client := newTestClient(t, ms.URL, WithCache(mockCache))

	// First call - should hit the server
	_, err := client.GetStations(context.Background())
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, ms.RequestCount(), 1)

	// Second call - should use cache
	snap, err := client.GetStations(context.Background())
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, ms.RequestCount(), 1)
	testutil.AssertLen(t, snap.Stations, 3)
}

func TestClient_ErrorsAreNotCached(t *testing.T) {
	mockCache := newMockCache()
	ms := testutil.NewRouteServer(map[string]string{})
	defer ms.Close()

	client := newTestClient(t, ms.URL, WithCache(mockCache))
	_, err := client.GetBikes(context.Background())
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, len(mockCache.data), 0)
}

func TestClient_Offline(t *testing.T) {
	ms := testutil.NewRouteServer(map[string]string{EndpointStations: testutil.SampleStationsResponse})
	defer ms.Close()

	conn := &staticConn{}
	client := newTestClient(t, ms.URL, WithConnectivity(conn))

	_, err := client.GetStations(context.Background())
	testutil.AssertErrorIs(t, err, ErrOffline)
	testutil.AssertEqual(t, ms.RequestCount(), 0)

	conn.set(true)
	_, err = client.GetStations(context.Background())
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, ms.RequestCount(), 1)
}

func TestClient_ContextCancellation(t *testing.T) {
	// Create a server that delays response
	ms := testutil.NewMockServer(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(testutil.SampleStationsResponse))
	})
	defer ms.Close()

	client := newTestClient(t, ms.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := client.GetStations(ctx)
	testutil.AssertErrorIs(t, err, ErrTimeout)
}

type staticConn struct {
	mu     sync.Mutex
	online bool
}

func (c *staticConn) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *staticConn) set(v bool) {
	c.mu.Lock()
	c.online = v
	c.mu.Unlock()
}

// Mock cache implementation for testing
type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	return val, ok
}

func (m *mockCache) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Helper to create a client against a test server
func newTestClient(t *testing.T, baseURL string, opts ...ClientOption) *Client {
	t.Helper()
	client, err := NewClient(append([]ClientOption{WithBaseURL(baseURL)}, opts...)...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}
