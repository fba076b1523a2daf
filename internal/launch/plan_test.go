package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Passthrough(t *testing.T) {
	plan, err := Parse([]string{"sscc", "-o", "hello", "-Wall", "hello.c"})
	require.NoError(t, err)
	assert.Equal(t, ModeRun, plan.Mode)
	assert.Equal(t, "sscc", plan.Program)
	assert.Empty(t, plan.Addons)
	assert.Equal(t, []string{"-o", "hello", "-Wall", "hello.c"}, plan.Passthrough)
}

func TestParse_UnknownLongOptionsPassThrough(t *testing.T) {
	// The back-end decides what unknown options mean.
	plan, err := Parse([]string{"sscc", "--whole-archive", "-nostdlib", "a.c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"--whole-archive", "-nostdlib", "a.c"}, plan.Passthrough)
}

func TestParse_Addons(t *testing.T) {
	plan, err := Parse([]string{"sscc", "--addon", "gmp.addon", "--addon", "posix.addon", "hello.c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gmp.addon", "posix.addon"}, plan.Addons)
	assert.Equal(t, []string{"hello.c"}, plan.Passthrough)
}

func TestParse_AddonMissingArgument(t *testing.T) {
	_, err := Parse([]string{"sscc", "hello.c", "--addon"})
	require.Error(t, err)

	var ue *UsageError
	assert.ErrorAs(t, err, &ue)
}

func TestParse_Banners(t *testing.T) {
	tests := []struct {
		arg  string
		mode Mode
	}{
		{"-h", ModeHelp},
		{"--help", ModeHelp},
		{"-v", ModeVersion},
		{"--version", ModeVersion},
		{"--list-addons", ModeListAddons},
	}
	for _, tc := range tests {
		t.Run(tc.arg, func(t *testing.T) {
			plan, err := Parse([]string{"sscc", tc.arg})
			require.NoError(t, err)
			assert.Equal(t, tc.mode, plan.Mode)
		})
	}
}

func TestParse_BannerWinsMidStream(t *testing.T) {
	// The walk stops at the first banner flag, like the original CLI.
	plan, err := Parse([]string{"sscc", "a.c", "--help", "b.c"})
	require.NoError(t, err)
	assert.Equal(t, ModeHelp, plan.Mode)
}

func TestParse_ScanAddons(t *testing.T) {
	plan, err := Parse([]string{"sscc", "--scan-addons", "hello.c"})
	require.NoError(t, err)
	assert.True(t, plan.ScanAddons)
	assert.Equal(t, []string{"hello.c"}, plan.Passthrough)
}
