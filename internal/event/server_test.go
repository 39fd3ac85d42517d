package event

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twominute/twominute/internal/auth"
	"github.com/twominute/twominute/internal/eventbus"
	"github.com/twominute/twominute/pkg/cerr"
)

func newTestServer(t *testing.T, bus *eventbus.Bus, userID string) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(cerr.NewConvertErrorChiMiddleware())
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				r = r.WithContext(auth.ContextWithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	})
	NewServer(bus).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestStreamEvents_FiltersByUserAndType(t *testing.T) {
	bus := eventbus.New()
	srv := newTestServer(t, bus, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?types=task.logged", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Headers are flushed after the subscription exists, so these are seen.
	bus.PublishNew(eventbus.EventTypeTaskLogged, "t-bob", "bob", nil)
	bus.PublishNew(eventbus.EventTypePlanGenerated, "", "alice", nil)
	bus.PublishNew(eventbus.EventTypeTaskLogged, "t-alice", "alice", nil)

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line == "\n" {
			break
		}
		lines = append(lines, strings.TrimSuffix(line, "\n"))
	}
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id: "))
	assert.Equal(t, "event: task.logged", lines[1])
	assert.Contains(t, lines[2], `"resourceId":"t-alice"`)
	assert.NotContains(t, lines[2], "bob")
}

func TestStreamEvents_Unauthenticated(t *testing.T) {
	srv := newTestServer(t, eventbus.New(), "")
	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
