/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeoutRoundTripper(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
				return
			}
		}
		rw.(http.Flusher).Flush()
		time.Sleep(50 * time.Millisecond)
		_, _ = rw.Write([]byte("ok"))
	}))
	defer server.Close()

	t.Run("slow response exceeds timeout", func(t *testing.T) {
		client := &http.Client{Transport: NewTimeoutRoundTripper(http.DefaultTransport, 100*time.Millisecond)}
		_, err := client.Get(server.URL + "/slow")
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.ErrorContains(t, err, "request timeout 100ms exceeded")
	})

	t.Run("body can be read until it is closed", func(t *testing.T) {
		client := &http.Client{Transport: NewTimeoutRoundTripper(http.DefaultTransport, time.Second)}
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, "ok", string(body))
	})

	t.Run("zero timeout", func(t *testing.T) {
		client := &http.Client{Transport: NewTimeoutRoundTripper(http.DefaultTransport, 0)}
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
	})

	t.Run("parent context deadline is reported as is", func(t *testing.T) {
		client := &http.Client{Transport: NewTimeoutRoundTripper(http.DefaultTransport, time.Minute)}
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/slow", nil)
		require.NoError(t, err)
		_, err = client.Do(req)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.NotContains(t, err.Error(), "request timeout")
	})
}
