package test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestdataResolvesModuleFixtures(t *testing.T) {
	for _, name := range []string{"haarcascade_frontalface_default.xml", "face.jpg", "facefinder"} {
		t.Run(name, func(t *testing.T) {
			p, ok := Testdata(name)
			require.True(t, ok, "%s not found", name)

			info, err := os.Stat(p)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}
}

func TestTestdataUnknown(t *testing.T) {
	p, ok := Testdata("no-such-fixture.bin")
	assert.False(t, ok)
	assert.Equal(t, filepath.Join("testdata", "no-such-fixture.bin"), p)
}

func TestModuleDir(t *testing.T) {
	assert.NotEmpty(t, ModuleDir("gocv.io/x/gocv"))
	assert.Empty(t, ModuleDir("example.com/not/a/dependency"))
}
