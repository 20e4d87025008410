package daemon

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDependencies(t *testing.T) Dependencies {
	t.Helper()

	return Dependencies{
		APIAddr:   "localhost:8090",
		Logger:    hclog.NewNullLogger(),
		Router:    &fakeRouter{},
		Directory: &fakeDirectory{},
		Results:   newTestCache(t),
	}
}

func TestDaemon_Dependencies_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(deps *Dependencies)
		wantErr string
	}{
		{
			name:   "valid dependencies",
			mutate: func(deps *Dependencies) {},
		},
		{
			name:    "nil logger",
			mutate:  func(deps *Dependencies) { deps.Logger = nil },
			wantErr: "logger cannot be nil",
		},
		{
			name:    "logger interface pointing to nil",
			mutate:  func(deps *Dependencies) { deps.Logger = (hclog.Logger)(nil) },
			wantErr: "logger cannot be nil",
		},
		{
			name:    "invalid API address",
			mutate:  func(deps *Dependencies) { deps.APIAddr = "invalid-address" },
			wantErr: "invalid API address 'invalid-address': invalid address format: address invalid-address: missing port in address",
		},
		{
			name:    "nil router",
			mutate:  func(deps *Dependencies) { deps.Router = nil },
			wantErr: "router cannot be nil",
		},
		{
			name:    "typed nil router",
			mutate:  func(deps *Dependencies) { deps.Router = (*fakeRouter)(nil) },
			wantErr: "router cannot be nil",
		},
		{
			name:    "nil directory",
			mutate:  func(deps *Dependencies) { deps.Directory = nil },
			wantErr: "server directory cannot be nil",
		},
		{
			name:    "nil result cache",
			mutate:  func(deps *Dependencies) { deps.Results = nil },
			wantErr: "result cache cannot be nil",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			deps := validDependencies(t)
			tc.mutate(&deps)

			err := deps.Validate()

			if tc.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.EqualError(t, err, tc.wantErr)
			}
		})
	}
}

func TestDaemon_NewDependencies(t *testing.T) {
	t.Parallel()

	t.Run("valid dependencies", func(t *testing.T) {
		t.Parallel()

		logger := hclog.NewNullLogger()
		router := &fakeRouter{}
		directory := &fakeDirectory{}
		results := newTestCache(t)

		deps, err := NewDependencies(logger, "localhost:8090", router, directory, results)
		require.NoError(t, err)
		assert.Equal(t, "localhost:8090", deps.APIAddr)
		assert.Equal(t, logger, deps.Logger)
		assert.Same(t, router, deps.Router)
		assert.Same(t, directory, deps.Directory)
		assert.Same(t, results, deps.Results)
	})

	t.Run("invalid dependencies return zero value", func(t *testing.T) {
		t.Parallel()

		deps, err := NewDependencies(nil, "localhost:8090", &fakeRouter{}, &fakeDirectory{}, newTestCache(t))
		require.EqualError(t, err, "logger cannot be nil")
		require.Equal(t, Dependencies{}, deps)
	})
}
