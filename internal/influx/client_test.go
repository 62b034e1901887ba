// ABOUTME: Tests for the InfluxDB store client against a fake HTTP API
// ABOUTME: Covers not-connected errors, idempotent connect, and request shapes

package influx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/location/internal/flux"
	"github.com/harper/location/internal/tsdb"
)

type recordedRequest struct {
	Path  string
	Query map[string]string
	Body  string
}

// fakeInflux serves the subset of the InfluxDB v2 HTTP API the client uses.
type fakeInflux struct {
	mu       sync.Mutex
	requests []recordedRequest

	queryCSV    string
	failStatus  int
	failMessage string
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	params := map[string]string{}
	for k := range r.URL.Query() {
		params[k] = r.URL.Query().Get(k)
	}

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Path: r.URL.Path, Query: params, Body: string(body)})
	failStatus, failMessage, csv := f.failStatus, f.failMessage, f.queryCSV
	f.mu.Unlock()

	if failStatus != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(failStatus)
		_, _ = w.Write([]byte(`{"code":"invalid","message":"` + failMessage + `"}`))
		return
	}

	switch r.URL.Path {
	case "/api/v2/write", "/api/v2/delete", "/ping":
		w.WriteHeader(http.StatusNoContent)
	case "/api/v2/query":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte(csv))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeInflux) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "expected at least one request")
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T) (*Client, *fakeInflux) {
	t.Helper()
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c := NewClient(Settings{URL: srv.URL, Token: "test-token"}, nil)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}

// annotatedCSV builds one table of annotated CSV as returned by the query API.
func annotatedCSV(types, groups, header []string, rows ...[]string) string {
	var b strings.Builder
	b.WriteString("#datatype," + strings.Join(types, ",") + "\n")
	b.WriteString("#group," + strings.Join(groups, ",") + "\n")
	defaults := make([]string, len(types))
	defaults[0] = "_result"
	b.WriteString("#default," + strings.Join(defaults, ",") + "\n")
	b.WriteString("," + strings.Join(header, ",") + "\n")
	for _, r := range rows {
		b.WriteString("," + strings.Join(r, ",") + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func TestOperationsBeforeConnect(t *testing.T) {
	c := NewClient(Settings{URL: "localhost:8086", Token: "t"}, nil)
	ctx := context.Background()

	assert.False(t, c.Connected())

	err := c.WritePoint(ctx, "Location", "PetP", tsdb.Point{Measurement: "m"})
	assert.ErrorIs(t, err, tsdb.ErrNotConnected)

	_, err = c.ExecuteQuery(ctx, "org", "query")
	assert.ErrorIs(t, err, tsdb.ErrNotConnected)

	_, err = c.QueryRows(ctx, "org", &flux.RangeQuery{})
	assert.ErrorIs(t, err, tsdb.ErrNotConnected, "connection is checked before the query is validated")

	err = c.DeleteRange(ctx, "bucket", "org", "predicate")
	assert.ErrorIs(t, err, tsdb.ErrNotConnected)

	_, err = c.Ping(ctx)
	assert.ErrorIs(t, err, tsdb.ErrNotConnected)
}

func TestConnectIsIdempotent(t *testing.T) {
	c := NewClient(Settings{URL: "localhost:8086", Token: "t"}, nil)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx))
	first := c.handle
	require.NotNil(t, first)

	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Connect(ctx))
	assert.True(t, first == c.handle, "repeat Connect must reuse the handle")
}

func TestConnectConcurrentCreatesOneHandle(t *testing.T) {
	c := NewClient(Settings{URL: "localhost:8086", Token: "t"}, nil)
	defer func() { _ = c.Close() }()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Connect(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	h := c.handle
	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, h == c.handle)
}

func TestConnectRequiresURL(t *testing.T) {
	c := NewClient(Settings{Token: "t"}, nil)
	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, tsdb.ErrInvalidInput)
	assert.False(t, c.Connected())
}

func TestCloseDisconnects(t *testing.T) {
	c, _ := newTestClient(t)
	require.True(t, c.Connected())
	require.NoError(t, c.Close())
	assert.False(t, c.Connected())

	err := c.WritePoint(context.Background(), "b", "o", tsdb.Point{})
	assert.ErrorIs(t, err, tsdb.ErrNotConnected)
}

func TestServerURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8086", ServerURL("localhost:8086"))
	assert.Equal(t, "http://localhost:8086", ServerURL(" localhost:8086/ "))
	assert.Equal(t, "https://influx.example.com", ServerURL("https://influx.example.com/"))
	assert.Equal(t, "http://10.0.0.5:8086", ServerURL("http://10.0.0.5:8086"))
}

func TestWritePoint(t *testing.T) {
	c, fake := newTestClient(t)

	ts := time.Date(2025, 3, 1, 10, 0, 0, 123, time.UTC)
	err := c.WritePoint(context.Background(), "Location", "PetP", tsdb.Point{
		Measurement: "Animal_position",
		Tags:        map[string]string{"Animal": "animal1"},
		Fields:      map[string]any{"latitude": 52.0, "longitude": 5.0, "altitude": 100.0},
		Time:        ts,
	})
	require.NoError(t, err)

	req := fake.last(t)
	assert.Equal(t, "/api/v2/write", req.Path)
	assert.Equal(t, "Location", req.Query["bucket"])
	assert.Equal(t, "PetP", req.Query["org"])
	assert.Equal(t, "ns", req.Query["precision"])

	line := strings.TrimSpace(req.Body)
	assert.True(t, strings.HasPrefix(line, "Animal_position,Animal=animal1 "), "line protocol: %s", line)
	assert.Contains(t, line, "latitude=52")
	assert.Contains(t, line, "longitude=5")
	assert.Contains(t, line, "altitude=100")
	assert.True(t, strings.HasSuffix(line, " 1740823200000000123"), "timestamp in ns: %s", line)
}

func TestWritePointUpstreamError(t *testing.T) {
	c, fake := newTestClient(t)
	fake.failStatus = http.StatusBadRequest
	fake.failMessage = "bucket not found"

	err := c.WritePoint(context.Background(), "missing", "PetP", tsdb.Point{
		Measurement: "m",
		Fields:      map[string]any{"v": 1.0},
		Time:        time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, tsdb.KindUpstream, tsdb.Kind(err))
}

func TestExecuteQueryFlattensTables(t *testing.T) {
	c, fake := newTestClient(t)

	types := []string{"string", "long", "dateTime:RFC3339", "double", "string", "string"}
	groups := []string{"false", "false", "false", "false", "true", "true"}
	header := []string{"result", "table", "_time", "_value", "_field", "Animal"}
	fake.queryCSV = annotatedCSV(types, groups, header,
		[]string{"", "0", "2025-03-01T10:00:00Z", "52.1", "latitude", "rex"},
		[]string{"", "0", "2025-03-01T10:01:00Z", "52.2", "latitude", "rex"},
	) + annotatedCSV(types, groups, header,
		[]string{"", "1", "2025-03-01T09:59:00Z", "5.1", "longitude", "rex"},
	)

	samples, err := c.ExecuteQuery(context.Background(), "PetP", `from(bucket: "Location") |> range(start: -1h)`)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	want := []struct {
		at    string
		value float64
	}{
		{"2025-03-01T10:00:00Z", 52.1},
		{"2025-03-01T10:01:00Z", 52.2},
		{"2025-03-01T09:59:00Z", 5.1},
	}
	for i, w := range want {
		require.NotNil(t, samples[i].Time, "sample %d", i)
		assert.Equal(t, w.at, samples[i].Time.Format(time.RFC3339), "sample %d keeps store order", i)
		f, ok := samples[i].Value.Float()
		require.True(t, ok)
		assert.Equal(t, w.value, f)
		assert.Equal(t, tsdb.TypeDouble, samples[i].Value.Type())
	}

	req := fake.last(t)
	assert.Equal(t, "/api/v2/query", req.Path)
	assert.Equal(t, "PetP", req.Query["org"])

	var body struct {
		Query string `json:"query"`
	}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	assert.Equal(t, `from(bucket: "Location") |> range(start: -1h)`, body.Query, "query text is sent verbatim")
}

func TestExecuteQueryWithoutTime(t *testing.T) {
	c, fake := newTestClient(t)
	fake.queryCSV = annotatedCSV(
		[]string{"string", "long", "long"},
		[]string{"false", "false", "false"},
		[]string{"result", "table", "_value"},
		[]string{"", "0", "3"},
	)

	samples, err := c.ExecuteQuery(context.Background(), "PetP", "count")
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Nil(t, samples[0].Time)
	assert.Equal(t, tsdb.Long(3), samples[0].Value)
}

func TestExecuteQueryEmpty(t *testing.T) {
	c, _ := newTestClient(t)

	samples, err := c.ExecuteQuery(context.Background(), "PetP", "empty")
	require.NoError(t, err)
	assert.NotNil(t, samples)
	assert.Empty(t, samples)
}

func TestExecuteQueryUpstreamError(t *testing.T) {
	c, fake := newTestClient(t)
	fake.failStatus = http.StatusBadRequest
	fake.failMessage = "compilation failed"

	_, err := c.ExecuteQuery(context.Background(), "PetP", "from(")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compilation failed")
	assert.Equal(t, tsdb.KindUpstream, tsdb.Kind(err))
}

func TestQueryRowsPivoted(t *testing.T) {
	c, fake := newTestClient(t)
	fake.queryCSV = annotatedCSV(
		[]string{"string", "long", "dateTime:RFC3339", "string", "string", "double", "double", "double"},
		[]string{"false", "false", "false", "true", "true", "false", "false", "false"},
		[]string{"result", "table", "_time", "_measurement", "Animal", "altitude", "latitude", "longitude"},
		[]string{"", "0", "2025-03-01T10:05:00Z", "Animal_position", "rex", "101", "52.2", "5.2"},
		[]string{"", "0", "2025-03-01T10:00:00Z", "Animal_position", "rex", "100", "52.1", "5.1"},
	)

	q := &flux.RangeQuery{
		Bucket:      "Location",
		Measurement: "Animal_position",
		Start:       time.Hour,
		Tags:        map[string]string{"Animal": "rex"},
		Pivot:       true,
	}
	rows, err := c.QueryRows(context.Background(), "PetP", q)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC), rows[0].Time)
	assert.Equal(t, tsdb.String("rex"), rows[0].Get("Animal"))
	assert.Equal(t, tsdb.Double(52.2), rows[0].Get("latitude"))
	assert.Equal(t, tsdb.Double(100), rows[1].Get("altitude"))
	assert.True(t, rows[0].Get("missing").IsNull())

	var body struct {
		Query string `json:"query"`
	}
	require.NoError(t, json.Unmarshal([]byte(fake.last(t).Body), &body))
	assert.Equal(t, q.String(), body.Query)
}

func TestQueryRowsRejectsInvalidQuery(t *testing.T) {
	c, fake := newTestClient(t)

	_, err := c.QueryRows(context.Background(), "PetP", &flux.RangeQuery{Start: time.Hour})
	assert.ErrorIs(t, err, tsdb.ErrInvalidInput)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Empty(t, fake.requests, "invalid queries never reach the server")
}

func TestDeleteRange(t *testing.T) {
	c, fake := newTestClient(t)

	err := c.DeleteRange(context.Background(), "Location", "PetP", `Animal="rex"`)
	require.NoError(t, err)

	req := fake.last(t)
	assert.Equal(t, "/api/v2/delete", req.Path)
	assert.Equal(t, "Location", req.Query["bucket"])
	assert.Equal(t, "PetP", req.Query["org"])

	var body struct {
		Start     time.Time `json:"start"`
		Stop      time.Time `json:"stop"`
		Predicate string    `json:"predicate"`
	}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	assert.Equal(t, `Animal="rex"`, body.Predicate)
	assert.True(t, body.Start.Equal(minTime), "start = %s", body.Start)
	assert.True(t, body.Stop.Equal(maxTime), "stop = %s", body.Stop)
}

func TestPing(t *testing.T) {
	c, _ := newTestClient(t)

	ok, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}
