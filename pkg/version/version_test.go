package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuildValues(t *testing.T, version, buildTime, commit string) {
	t.Helper()
	origVersion, origBuildTime, origCommit := Version, BuildTime, Commit
	t.Cleanup(func() {
		Version, BuildTime, Commit = origVersion, origBuildTime, origCommit
	})
	Version, BuildTime, Commit = version, buildTime, commit
}

func TestInfo(t *testing.T) {
	withBuildValues(t, "1.0.0", "2023-01-01", "abcdef0123456789")

	info := Info()
	assert.Contains(t, info, "nak 1.0.0")
	assert.Contains(t, info, "(abcdef01)")
	assert.NotContains(t, info, "abcdef0123456789")
	assert.Contains(t, info, "2023-01-01")
	assert.Contains(t, info, runtime.GOOS+"/"+runtime.GOARCH)

	Commit = "abc123"
	assert.Contains(t, Info(), "(abc123)")
}

func TestResolved(t *testing.T) {
	origRead := readBuildInfo
	t.Cleanup(func() { readBuildInfo = origRead })

	tests := []struct {
		name    string
		version string
		module  string
		ok      bool
		want    string
	}{
		{name: "linked version wins", version: "1.2.0", module: "v9.9.9", ok: true, want: "1.2.0"},
		{name: "module version", version: "dev", module: "v0.3.1", ok: true, want: "v0.3.1"},
		{name: "devel build", version: "dev", module: "(devel)", ok: true, want: "dev"},
		{name: "no build info", version: "dev", ok: false, want: "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildValues(t, tt.version, "unknown", "unknown")
			readBuildInfo = func() (*debug.BuildInfo, bool) {
				if !tt.ok {
					return nil, false
				}
				return &debug.BuildInfo{Main: debug.Module{Version: tt.module}}, true
			}
			assert.Equal(t, tt.want, Resolved())
		})
	}
}
