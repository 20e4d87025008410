package daemon

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolmux/toolmux/internal/api"
	"github.com/toolmux/toolmux/internal/errors"
)

// humaContext lets recordingContext embed huma.Context without the field
// name shadowing the interface's Context() method.
type humaContext = huma.Context

// recordingContext captures response headers set during error handling.
// The embedded interface covers the methods the handler never touches.
type recordingContext struct {
	humaContext

	headers map[string]string
}

func (r *recordingContext) SetHeader(name, value string) {
	if r.headers == nil {
		r.headers = map[string]string{}
	}
	r.headers[name] = value
}

func TestDaemon_NewAPIServer(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		server, err := NewAPIServer(validAPIDependencies(t))
		require.NoError(t, err)
		require.NotNil(t, server)
		assert.Equal(t, DefaultAPIShutdownTimeout(), server.shutdownTimeout)
		assert.False(t, server.cors.Enabled)
	})

	t.Run("applies options on top of defaults", func(t *testing.T) {
		t.Parallel()

		server, err := NewAPIServer(
			validAPIDependencies(t),
			WithShutdownTimeout(10*time.Second),
			WithCORSEnabled(true),
		)
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, server.shutdownTimeout)
		assert.True(t, server.cors.Enabled)
	})

	t.Run("skips nil options", func(t *testing.T) {
		t.Parallel()

		server, err := NewAPIServer(validAPIDependencies(t), nil, WithShutdownTimeout(3*time.Second), nil)
		require.NoError(t, err)
		assert.Equal(t, 3*time.Second, server.shutdownTimeout)
	})

	t.Run("rejects invalid dependencies", func(t *testing.T) {
		t.Parallel()

		deps := validAPIDependencies(t)
		deps.Engine = nil

		_, err := NewAPIServer(deps)
		require.EqualError(t, err, "invalid dependencies for API server: engine cannot be nil")
	})

	t.Run("rejects invalid options", func(t *testing.T) {
		t.Parallel()

		_, err := NewAPIServer(validAPIDependencies(t), WithShutdownTimeout(0))
		require.EqualError(t, err, "invalid API options: shutdown timeout must be positive, got 0s")
	})
}

func TestAPIServer_ApplyCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		corsConfig CORSConfig
	}{
		{
			name: "basic configuration",
			corsConfig: CORSConfig{
				Enabled:          true,
				AllowOrigins:     []string{"http://localhost:3000", "https://example.com"},
				AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut},
				AllowedHeaders:   []string{"Content-Type", "Authorization"},
				ExposedHeaders:   []string{"X-Total-Count"},
				AllowCredentials: true,
				MaxAge:           5 * time.Minute,
			},
		},
		{
			name: "wildcard origin alongside credentials",
			corsConfig: CORSConfig{
				Enabled:          true,
				AllowOrigins:     []string{"http://localhost:3000", "*", "https://example.com"},
				AllowMethods:     []string{http.MethodGet, http.MethodPost},
				AllowCredentials: true,
				MaxAge:           10 * time.Minute,
			},
		},
		{
			name: "empty origins list",
			corsConfig: CORSConfig{
				Enabled:      true,
				AllowOrigins: []string{},
				AllowMethods: []string{http.MethodGet, http.MethodPost},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := &APIServer{
				logger: hclog.NewNullLogger(),
				cors:   tc.corsConfig,
			}

			require.NotPanics(t, func() {
				server.applyCORS(chi.NewMux())
			})
		})
	}

	t.Run("origins are trimmed", func(t *testing.T) {
		t.Parallel()

		server := &APIServer{
			logger: hclog.NewNullLogger(),
			cors: CORSConfig{
				Enabled:      true,
				AllowOrigins: []string{"  http://localhost:3000  ", "\thttps://example.com\n"},
			},
		}

		server.applyCORS(chi.NewMux())

		// The trim writes through to the shared backing array.
		assert.Equal(t, []string{"http://localhost:3000", "https://example.com"}, server.cors.AllowOrigins)
	})
}

func TestMapError(t *testing.T) {
	t.Parallel()

	logger := hclog.NewNullLogger()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "ErrBadRequest maps to 400",
			err:            errors.ErrBadRequest,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "ErrServerNotFound maps to 404",
			err:            errors.ErrServerNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "ErrToolsNotFound maps to 404",
			err:            errors.ErrToolsNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "ErrToolNotFound maps to 404",
			err:            errors.ErrToolNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "ErrCompressedToolNotFound maps to 404",
			err:            errors.ErrCompressedToolNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "ErrHealthNotTracked maps to 404",
			err:            errors.ErrHealthNotTracked,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "ErrSessionNotFound maps to 502",
			err:            errors.ErrSessionNotFound,
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "ErrToolListFailed maps to 502",
			err:            errors.ErrToolListFailed,
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "ErrToolCallFailed maps to 502",
			err:            errors.ErrToolCallFailed,
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "ErrToolCallFailedUnknown maps to 502",
			err:            errors.ErrToolCallFailedUnknown,
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "wrapped sentinel keeps its mapping",
			err:            fmt.Errorf("calling 'mcp_time_get_time': %w", errors.ErrToolNotFound),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "unknown error maps to 500",
			err:            fmt.Errorf("unknown error"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			statusErr := mapError(logger, tc.err)
			require.Equal(t, tc.expectedStatus, statusErr.GetStatus())
		})
	}
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	handler := errorHandler(hclog.NewNullLogger())

	t.Run("no errors returns generic error", func(t *testing.T) {
		t.Parallel()

		statusErr := handler(nil, http.StatusTeapot, "kettle")
		require.Equal(t, http.StatusTeapot, statusErr.GetStatus())
	})

	t.Run("single error is mapped and classified", func(t *testing.T) {
		t.Parallel()

		ctx := &recordingContext{}
		statusErr := handler(ctx, http.StatusInternalServerError, "ignored", errors.ErrToolNotFound)

		require.Equal(t, http.StatusNotFound, statusErr.GetStatus())
		assert.Equal(t, string(api.RoutingFailure), ctx.headers[api.HeaderErrorType])
	})

	t.Run("upstream error sets upstream category", func(t *testing.T) {
		t.Parallel()

		ctx := &recordingContext{}
		statusErr := handler(ctx, http.StatusInternalServerError, "ignored", errors.ErrToolCallFailed)

		require.Equal(t, http.StatusBadGateway, statusErr.GetStatus())
		assert.Equal(t, string(api.UpstreamFailure), ctx.headers[api.HeaderErrorType])
	})

	t.Run("unclassified error sets no header", func(t *testing.T) {
		t.Parallel()

		ctx := &recordingContext{}
		statusErr := handler(ctx, http.StatusInternalServerError, "ignored", fmt.Errorf("boom"))

		require.Equal(t, http.StatusInternalServerError, statusErr.GetStatus())
		assert.NotContains(t, ctx.headers, api.HeaderErrorType)
	})

	t.Run("multiple errors are joined before mapping", func(t *testing.T) {
		t.Parallel()

		ctx := &recordingContext{}
		statusErr := handler(ctx, http.StatusInternalServerError, "ignored",
			fmt.Errorf("boom"), errors.ErrBadRequest)

		require.Equal(t, http.StatusBadRequest, statusErr.GetStatus())
		assert.Equal(t, string(api.ValidationFailure), ctx.headers[api.HeaderErrorType])
	})

	t.Run("nil context does not panic", func(t *testing.T) {
		t.Parallel()

		require.NotPanics(t, func() {
			_ = handler(nil, http.StatusInternalServerError, "ignored", errors.ErrToolNotFound)
		})
	})
}
