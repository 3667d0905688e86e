package contracts

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Architecture)
	assert.Equal(t, DataFormatVersion, info.DataFormat)
}

func TestGetFullVersionString(t *testing.T) {
	saved := GitCommit
	GitCommit = "abc1234"
	t.Cleanup(func() { GitCommit = saved })

	s := GetFullVersionString()
	assert.Contains(t, s, "trialguard v"+Version)
	assert.Contains(t, s, "commit: abc1234")
}
