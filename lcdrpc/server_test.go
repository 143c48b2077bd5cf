package lcdrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/peachcloud/hd44780/hd44780test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer serves a simulated display over httptest.
func startServer(t *testing.T, logger *slog.Logger) (*Client, *hd44780test.Controller, *httptest.Server) {
	t.Helper()
	svc, c := newSimService(t)
	srv, err := NewServer(ServerConfig{Version: "test"}, svc, logger)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, ts.Client()), c, ts
}

func rpcError(t *testing.T, err error) *json2.Error {
	t.Helper()
	var je *json2.Error
	require.ErrorAs(t, err, &je)
	return je
}

func TestNewServerDefaults(t *testing.T) {
	svc, _ := newSimService(t)
	srv, err := NewServer(ServerConfig{}, svc, nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3030", srv.Addr())
	assert.Equal(t, []string{"null"}, srv.config.AllowedOrigins)

	_, err = NewServer(ServerConfig{}, nil, nil)
	assert.Error(t, err)
}

func TestServerWrite(t *testing.T) {
	client, c, _ := startServer(t, nil)
	ctx := context.Background()

	res, err := client.Write(ctx, 5, "hi")
	require.NoError(t, err)
	assert.Equal(t, "success", res)
	assert.Equal(t, "hi", c.Text(0x05, 2))

	res, err = client.Call(ctx, "write", []any{40, "far"})
	require.NoError(t, err)
	assert.Equal(t, "success", res)
	assert.Equal(t, "far", c.Text(0x28, 3))
}

func TestServerClearReset(t *testing.T) {
	client, c, _ := startServer(t, nil)
	ctx := context.Background()

	_, err := client.Write(ctx, 0, "junk")
	require.NoError(t, err)

	res, err := client.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, "success", res)
	assert.Equal(t, "    ", c.Text(0x00, 4))

	res, err = client.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "success", res)

	res, err = client.Call(ctx, "lcd.Clear", nil)
	require.NoError(t, err)
	assert.Equal(t, "success", res)
}

func TestServerErrors(t *testing.T) {
	client, c, _ := startServer(t, nil)
	ctx := context.Background()
	long := strings.Repeat("x", 41)

	tests := []struct {
		name    string
		method  string
		params  any
		code    json2.ErrorCode
		message string
		data    any
	}{
		{"missing params", "write", nil, json2.E_BAD_PARAMS, "invalid params", "missing params"},
		{"missing field", "write", map[string]any{"position": 3}, json2.E_BAD_PARAMS, "invalid params", `missing field "string"`},
		{"position", "write", WriteParams{Position: 41, String: "hi"}, CodeValidation, "validation error", "position not in range 0-40"},
		{"string", "write", WriteParams{Position: 0, String: long}, CodeValidation, "validation error", "string length > 40 characters"},
		{"both", "write", WriteParams{Position: 41, String: long}, CodeValidation, "validation error", "position not in range 0-40"},
		{"unknown method", "blink", nil, json2.E_NO_METHOD, "method not found", "blink"},
		{"unknown dotted method", "lcd.Blink", nil, json2.E_NO_METHOD, "method not found", "lcd.Blink"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.ResetLog()
			_, err := client.Call(ctx, tt.method, tt.params)
			je := rpcError(t, err)
			assert.Equal(t, tt.code, je.Code)
			assert.Equal(t, tt.message, je.Message)
			assert.Equal(t, tt.data, je.Data)
			assert.Zero(t, c.Pulses(), "failed call touched the bus")
		})
	}
}

func TestServerInternalError(t *testing.T) {
	client, c, _ := startServer(t, nil)
	c.D4.Err = errors.New("gpio483: write failed")

	_, err := client.Write(context.Background(), 0, "x")
	je := rpcError(t, err)
	assert.Equal(t, json2.E_INTERNAL, je.Code)
	assert.Equal(t, "internal error", je.Message)
	assert.Contains(t, je.Data, "gpio483: write failed")

	_, err = client.Clear(context.Background())
	assert.Equal(t, json2.E_INTERNAL, rpcError(t, err).Code)
}

func TestServerConcurrentWrites(t *testing.T) {
	client, c, _ := startServer(t, nil)
	c.ResetLog()

	const writers = 10
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := strings.Repeat(string(rune('a'+i)), 4)
			_, err := client.Write(context.Background(), i*4, s)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Every write is one set_ddram followed by its four characters.
	ops := c.Ops()
	require.Len(t, ops, writers*5)
	seen := map[int]bool{}
	for k := 0; k < len(ops); k += 5 {
		require.Equal(t, "set_ddram", ops[k].Kind(), "op %d", k)
		i := int(ops[k].Value&0x7F) / 4
		want := byte('a' + i)
		for _, op := range ops[k+1 : k+5] {
			assert.Equal(t, hd44780test.Op{RS: true, Value: want}, op)
		}
		seen[i] = true
	}
	assert.Len(t, seen, writers)
	assert.Equal(t, "aaaabbbbccccddddeeeeffffgggghhhhiiiijjjj", c.Text(0x00, 40))
}

func TestServerHealth(t *testing.T) {
	_, _, ts := startServer(t, nil)
	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"status": "ok", "version": "test"}, body)
}

func TestServerRejectsGet(t *testing.T) {
	_, _, ts := startServer(t, nil)
	resp, err := ts.Client().Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServerCORS(t *testing.T) {
	_, _, ts := startServer(t, nil)

	preflight := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "content-type")
		resp, err := ts.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	resp := preflight("null")
	assert.Equal(t, "null", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = preflight("http://example.com")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))

	post := func(origin string) *http.Response {
		body, err := json2.EncodeClientRequest("clear", nil)
		require.NoError(t, err)
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/", bytes.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Origin", origin)
		resp, err := ts.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	resp = post("null")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "null", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = post("http://example.com")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServerLogsCalls(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client, _, _ := startServer(t, logger)

	_, err := client.Write(context.Background(), 1, "x")
	require.NoError(t, err)
	_, err = client.Write(context.Background(), 99, "x")
	require.Error(t, err)

	var done, failed map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		switch rec["msg"] {
		case "rpc done":
			done = rec
		case "rpc failed":
			failed = rec
		}
	}
	require.NotNil(t, done)
	assert.Equal(t, "lcd.Write", done["method"])
	assert.NotEmpty(t, done["id"])

	require.NotNil(t, failed)
	assert.Equal(t, float64(CodeValidation), failed["code"])
	assert.Equal(t, fmt.Sprint(done["method"]), failed["method"])
}
