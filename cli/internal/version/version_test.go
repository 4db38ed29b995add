package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfo_Semver(t *testing.T) {
	info := Info{Version: "1.4.2"}
	v, err := info.Semver()
	require.NoError(t, err)
	assert.Equal(t, "1.4.2", v.String())
	assert.False(t, info.IsPrerelease())

	_, err = Info{Version: "dev"}.Semver()
	assert.Error(t, err)
}

func TestInfo_Satisfies(t *testing.T) {
	tests := []struct {
		version    string
		constraint string
		want       bool
	}{
		{"0.1.0", ">= 0.1, < 1.0", true},
		{"1.2.0", ">= 0.1, < 1.0", false},
		{"1.2.3", "~> 1.2", true},
	}
	for _, tt := range tests {
		ok, err := Info{Version: tt.version}.Satisfies(tt.constraint)
		require.NoError(t, err, tt.version)
		assert.Equal(t, tt.want, ok, tt.version)
	}

	_, err := Info{Version: "1.0.0"}.Satisfies("not a constraint")
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.String(), "dataql version "+Version)
	assert.True(t, info.IsPrerelease())
}
