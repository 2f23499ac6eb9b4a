package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/spacetracker/internal/domain/space"
	"github.com/stretchr/testify/require"
)

func TestHTTPObserver(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"present":true,"spaceId":"1mnxeNVXrYvKX","title":"State of Type","host":"Tex"}`))
		}
	}))
	defer server.Close()

	observer := NewHTTPObserver(server.URL, nil)
	ctx := context.Background()

	obs, err := observer.Observe(ctx)
	require.NoError(t, err)
	require.True(t, obs.Present)
	require.Equal(t, "1mnxeNVXrYvKX", obs.SpaceID)

	status = http.StatusNoContent
	obs, err = observer.Observe(ctx)
	require.NoError(t, err)
	require.Equal(t, space.Absent, obs)

	status = http.StatusBadGateway
	_, err = observer.Observe(ctx)
	require.Error(t, err)
}
