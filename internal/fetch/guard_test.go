package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBlockedAddr(t *testing.T) {
	tests := []struct {
		addr    string
		blocked bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"10.1.2.3", true},
		{"172.16.0.9", true},
		{"192.168.1.1", true},
		{"169.254.169.254", true},
		{"fe80::1", true},
		{"fc00::1", true},
		{"0.0.0.0", true},
		{"100.64.0.1", true},
		{"::ffff:127.0.0.1", true},
		{"224.0.0.1", true},
		{"8.8.8.8", false},
		{"2606:4700:4700::1111", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.blocked, IsBlockedAddr(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestCheckHost_Literals(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, CheckHost(ctx, "127.0.0.1"), ErrBlockedAddress)
	assert.ErrorIs(t, CheckHost(ctx, "::1"), ErrBlockedAddress)
	assert.NoError(t, CheckHost(ctx, "93.184.216.34"))
}

func TestURL_BlockPrivateNetworks(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<html><body>internal</body></html>"))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.BlockPrivateNetworks = true
	// A caller-supplied client must not bypass the check.
	opts.HTTPClient = server.Client()

	result, err := URL(context.Background(), server.URL+"/admin", opts)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrBlockedAddress))
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, hits.Load())
}

func TestDialControl(t *testing.T) {
	assert.ErrorIs(t, dialControl("tcp", "127.0.0.1:80", nil), ErrBlockedAddress)
	assert.ErrorIs(t, dialControl("tcp", "[::1]:443", nil), ErrBlockedAddress)
	assert.ErrorIs(t, dialControl("tcp", "no-port", nil), ErrBlockedAddress)
	assert.NoError(t, dialControl("tcp", "93.184.216.34:443", nil))
}

func TestJobPosting_BlockedHost(t *testing.T) {
	opts := DefaultOptions()
	opts.BlockPrivateNetworks = true

	_, _, err := JobPosting(context.Background(), "http://localhost:9/jobs/1", opts, true, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBlockedAddress)
}
