package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "time,ghi_pyr_1\n2023-01-01 00:00:00,0\n"

func TestDetect(t *testing.T) {
	tests := []struct {
		location string
		want     Format
	}{
		{"data/site.csv", CSV},
		{"data/site.CSV", CSV},
		{"data/site.xlsx", Workbook},
		{"https://example.com/site.xlsx?token=abc", Workbook},
		{"https://example.com/export", CSV},
		{"noext", CSV},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.location))
		})
	}
}

func TestFetch_LocalFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "site.csv")
	require.NoError(t, os.WriteFile(p, []byte(sample), 0o644))

	c := NewClient(time.Second, 1, time.Millisecond)
	data, err := c.Fetch(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, sample, string(data))

	_, err = c.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = io.WriteString(w, sample)
	}))
	defer srv.Close()

	c := NewClient(time.Second, 3, time.Millisecond)
	data, err := c.Fetch(context.Background(), srv.URL+"/site.csv")
	require.NoError(t, err)
	assert.Equal(t, sample, string(data))
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, sample)
	}))
	defer srv.Close()

	c := NewClient(time.Second, 3, time.Millisecond)
	data, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, sample, string(data))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(time.Second, 2, time.Millisecond)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetch_ClientErrorFailsFast(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(time.Second, 3, time.Millisecond)
	_, err := c.Fetch(context.Background(), srv.URL)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(time.Second, 3, time.Hour)
	_, err := c.Fetch(ctx, srv.URL)
	assert.Error(t, err)
}
