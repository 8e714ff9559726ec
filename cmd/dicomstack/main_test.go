package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSlices(t *testing.T, dir string, sizes map[string]int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, size := range sizes {
		file, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, png.Encode(file, image.NewGray(image.Rect(0, 0, size, size))))
		require.NoError(t, file.Close())
	}
}

func TestRun_Assemble(t *testing.T) {
	tmp := t.TempDir()
	input := filepath.Join(tmp, "in")
	writeSlices(t, input, map[string]int{"000.png": 4, "001.png": 4, "002.png": 4})
	out := filepath.Join(tmp, "out")

	var stdout bytes.Buffer
	err := run([]string{"assemble",
		"-config", filepath.Join(tmp, "none.yaml"),
		"-input", input, "-ext", ".png", "-output", out, "-quiet", "-extract-slices",
	}, &stdout)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Shape (z, y, x): 3 x 4 x 4")
	assert.FileExists(t, filepath.Join(out, "volume_slices", "z", "slice_z_002.png"))
	assert.FileExists(t, filepath.Join(out, "volume_slices", "x", "slice_x_003.png"))
}

func TestRun_AssembleRegion(t *testing.T) {
	tmp := t.TempDir()
	input := filepath.Join(tmp, "in")
	writeSlices(t, input, map[string]int{"000.png": 4, "001.png": 4})

	var stdout bytes.Buffer
	err := run([]string{"assemble",
		"-config", filepath.Join(tmp, "none.yaml"),
		"-input", input, "-ext", ".png", "-quiet", "-region", "1,1,0,2,2,2",
	}, &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Region 1,1,0,2,2,2:  min 0, max 0, mean 0.00, std 0.00")

	for _, bad := range []string{"1,1,0,2,2", "a,1,0,2,2,2", "3,3,0,2,2,2"} {
		err := run([]string{"assemble",
			"-config", filepath.Join(tmp, "none.yaml"),
			"-input", input, "-ext", ".png", "-quiet", "-region", bad,
		}, &stdout)
		assert.Error(t, err, bad)
	}
}

func TestParseRegion(t *testing.T) {
	region, err := parseRegion("0, 1,2,3,4,5")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, region)
}

func TestRun_AssembleShapeMismatch(t *testing.T) {
	tmp := t.TempDir()
	input := filepath.Join(tmp, "in")
	writeSlices(t, input, map[string]int{"000.png": 4, "001.png": 5, "002.png": 4})

	var stdout bytes.Buffer
	err := run([]string{"assemble",
		"-config", filepath.Join(tmp, "none.yaml"),
		"-input", input, "-ext", "png", "-quiet",
	}, &stdout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[shape mismatch]")
	assert.Contains(t, err.Error(), "001.png")
}

func TestRun_Export(t *testing.T) {
	tmp := t.TempDir()
	input := filepath.Join(tmp, "in")
	writeSlices(t, input, map[string]int{"a.png": 2, "b.png": 3})
	out := filepath.Join(tmp, "out")

	var stdout bytes.Buffer
	err := run([]string{"export",
		"-config", filepath.Join(tmp, "none.yaml"),
		"-input", input, "-ext", ".png", "-output", out, "-format", "tiff",
	}, &stdout)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, "a.tiff"))
	assert.FileExists(t, filepath.Join(out, "b.tiff"))
	assert.Contains(t, stdout.String(), "Exported 2 frames from 2 sources")
}

func TestRun_InitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "dicomstack.yaml")
	var stdout bytes.Buffer
	require.NoError(t, run([]string{"init-config", "-config", path}, &stdout))
	assert.FileExists(t, path)
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout bytes.Buffer
	assert.Error(t, run(nil, &stdout))
	assert.Error(t, run([]string{"render"}, &stdout))
}
