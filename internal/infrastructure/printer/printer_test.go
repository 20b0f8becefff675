package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kthimi/invoicer/internal/infrastructure/config"
)

func TestProbeSet(t *testing.T) {
	t.Run("valid unit", func(t *testing.T) {
		addrs := ProbeSet("17")
		require.Len(t, addrs, 254)
		assert.Equal(t, "192.168.17.1", addrs[0])
		assert.Equal(t, "192.168.17.254", addrs[253])
	})

	t.Run("trims whitespace", func(t *testing.T) {
		assert.Len(t, ProbeSet(" 3 "), 254)
	})

	t.Run("excluded units", func(t *testing.T) {
		assert.Empty(t, ProbeSet("200"))
		assert.Empty(t, ProbeSet("201"))
	})

	t.Run("out of range", func(t *testing.T) {
		assert.Empty(t, ProbeSet("-1"))
		assert.Empty(t, ProbeSet("255"))
	})

	t.Run("non numeric", func(t *testing.T) {
		assert.Empty(t, ProbeSet("depo"))
		assert.Empty(t, ProbeSet(""))
	})
}

func TestInMemoryAddressCache(t *testing.T) {
	cache := NewInMemoryAddressCache()
	defer cache.Close()
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "17")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "17", "192.168.17.31:9100", time.Minute))
	addr, ok, err := cache.Get(ctx, "17")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "192.168.17.31:9100", addr)

	require.NoError(t, cache.Forget(ctx, "17"))
	_, ok, err = cache.Get(ctx, "17")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryAddressCacheExpiry(t *testing.T) {
	cache := NewInMemoryAddressCache()
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "17", "192.168.17.31:9100", -time.Second))
	_, ok, err := cache.Get(ctx, "17")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry should be a miss")
}

func newTestDiscoverer(t *testing.T, dial dialFunc) *Discoverer {
	t.Helper()
	cache := NewInMemoryAddressCache()
	t.Cleanup(func() { cache.Close() })

	d := NewDiscoverer(cache, config.PrinterConfig{
		Port:         9100,
		ProbeTimeout: 100 * time.Millisecond,
		ScanWorkers:  50,
		CacheTTL:     time.Minute,
	}, zap.NewNop())
	d.dial = dial
	return d
}

// fakeConn is a no-op net.Conn for probe results.
type fakeConn struct{ net.Conn }

func (fakeConn) Close() error { return nil }

func TestDiscoverFindsResponder(t *testing.T) {
	var mu sync.Mutex
	probed := make(map[string]int)

	dial := func(_, addr string, _ time.Duration) (net.Conn, error) {
		mu.Lock()
		probed[addr]++
		mu.Unlock()
		if addr == "192.168.17.31:9100" {
			return fakeConn{}, nil
		}
		return nil, errors.New("connection refused")
	}

	d := newTestDiscoverer(t, dial)
	addr, err := d.Discover(context.Background(), "17")
	require.NoError(t, err)
	assert.Equal(t, "192.168.17.31:9100", addr)

	// second lookup is served from the cache after one verification probe
	mu.Lock()
	probed = make(map[string]int)
	mu.Unlock()

	addr, err = d.Discover(context.Background(), "17")
	require.NoError(t, err)
	assert.Equal(t, "192.168.17.31:9100", addr)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"192.168.17.31:9100": 1}, probed)
}

func TestDiscoverNoResponder(t *testing.T) {
	dial := func(_, _ string, _ time.Duration) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}

	d := newTestDiscoverer(t, dial)
	_, err := d.Discover(context.Background(), "17")
	assert.ErrorIs(t, err, ErrPrinterNotFound)
}

func TestDiscoverExcludedUnit(t *testing.T) {
	dial := func(_, _ string, _ time.Duration) (net.Conn, error) {
		t.Fatal("excluded unit must not be probed")
		return nil, nil
	}

	d := newTestDiscoverer(t, dial)
	_, err := d.Discover(context.Background(), "200")
	assert.ErrorIs(t, err, ErrPrinterNotFound)
}

func TestDiscoverRescansWhenCachedAddressDies(t *testing.T) {
	var mu sync.Mutex
	alive := "192.168.17.31:9100"

	dial := func(_, addr string, _ time.Duration) (net.Conn, error) {
		mu.Lock()
		defer mu.Unlock()
		if addr == alive {
			return fakeConn{}, nil
		}
		return nil, errors.New("connection refused")
	}

	d := newTestDiscoverer(t, dial)
	addr, err := d.Discover(context.Background(), "17")
	require.NoError(t, err)
	require.Equal(t, "192.168.17.31:9100", addr)

	mu.Lock()
	alive = "192.168.17.77:9100"
	mu.Unlock()

	addr, err = d.Discover(context.Background(), "17")
	require.NoError(t, err)
	assert.Equal(t, "192.168.17.77:9100", addr)
}

func TestDispatchSendsOneConnectionPerCopy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	payload := make([]byte, dispatchChunkSize*2+100)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	received := make(chan []byte, 3)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			data, _ := io.ReadAll(conn)
			conn.Close()
			received <- data
		}
	}()

	d := NewDispatcher(time.Second, zap.NewNop())
	err = d.Dispatch(context.Background(), ln.Addr().String(), path, 2)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		select {
		case data := <-received:
			assert.Equal(t, payload, data, "copy %d payload mismatch", i+1)
		case <-time.After(2 * time.Second):
			t.Fatal("printer listener did not receive copy")
		}
	}

	ln.Close()
	wg.Wait()
}

func TestDispatchMissingDocument(t *testing.T) {
	d := NewDispatcher(time.Second, zap.NewNop())
	dialed := false
	d.dial = func(_, _ string, _ time.Duration) (net.Conn, error) {
		dialed = true
		return nil, fmt.Errorf("unreachable")
	}

	err := d.Dispatch(context.Background(), "192.168.17.31:9100", filepath.Join(t.TempDir(), "gone.pdf"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open document for printing")
	assert.False(t, dialed, "should not dial when the document cannot be opened")
}

func TestDispatchConnectFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0o644))

	d := NewDispatcher(time.Second, zap.NewNop())
	d.dial = func(_, _ string, _ time.Duration) (net.Conn, error) {
		return nil, fmt.Errorf("no route to host")
	}

	err := d.Dispatch(context.Background(), "192.168.17.31:9100", path, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy 1/2")
}
