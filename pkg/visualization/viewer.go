package visualization

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"dicomstack/internal/models"
	"dicomstack/pkg/export"
)

// Viewer extracts orthogonal planes from an assembled volume.
// Intensities are scaled with one window over the whole volume so planes
// along different axes stay comparable.
type Viewer struct {
	volume *models.Volume

	// intensity window
	lo, hi int
}

// NewViewer creates a viewer over vol
func NewViewer(vol *models.Volume) *Viewer {
	v := &Viewer{volume: vol}
	for i, s := range vol.Data {
		if i == 0 || s < v.lo {
			v.lo = s
		}
		if i == 0 || s > v.hi {
			v.hi = s
		}
	}
	return v
}

// Window returns the intensity range mapped onto the output gray levels
func (v *Viewer) Window() (lo, hi int) {
	return v.lo, v.hi
}

func (v *Viewer) gray(sample int) color.Gray16 {
	if v.hi == v.lo {
		return color.Gray16{}
	}
	return color.Gray16{Y: uint16(float64(sample-v.lo) * 65535 / float64(v.hi-v.lo))}
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	vol := v.volume
	var img *image.Gray16

	switch axis {
	case "x", "X":
		// YZ plane
		if position >= vol.Width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, vol.Width)
		}
		img = image.NewGray16(image.Rect(0, 0, vol.Depth, vol.Height))
		for y := 0; y < vol.Height; y++ {
			for z := 0; z < vol.Depth; z++ {
				img.SetGray16(z, y, v.gray(vol.At(position, y, z)))
			}
		}

	case "y", "Y":
		// XZ plane
		if position >= vol.Height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, vol.Height)
		}
		img = image.NewGray16(image.Rect(0, 0, vol.Width, vol.Depth))
		for z := 0; z < vol.Depth; z++ {
			for x := 0; x < vol.Width; x++ {
				img.SetGray16(x, z, v.gray(vol.At(x, position, z)))
			}
		}

	case "z", "Z":
		// XY plane
		if position >= vol.Depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, vol.Depth)
		}
		img = image.NewGray16(image.Rect(0, 0, vol.Width, vol.Height))
		for y := 0; y < vol.Height; y++ {
			for x := 0; x < vol.Width; x++ {
				img.SetGray16(x, y, v.gray(vol.At(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// ExtractRegion extracts a 3D subregion from the volume in (z, y, x) order
func (v *Viewer) ExtractRegion(startX, startY, startZ, sizeX, sizeY, sizeZ int) ([]int, error) {
	vol := v.volume
	if startX < 0 || startY < 0 || startZ < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}

	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}

	if startX+sizeX > vol.Width || startY+sizeY > vol.Height || startZ+sizeZ > vol.Depth {
		return nil, fmt.Errorf("region extends beyond volume boundaries")
	}

	region := make([]int, sizeX*sizeY*sizeZ)
	for z := 0; z < sizeZ; z++ {
		for y := 0; y < sizeY; y++ {
			for x := 0; x < sizeX; x++ {
				region[z*sizeX*sizeY+y*sizeX+x] = vol.At(startX+x, startY+y, startZ+z)
			}
		}
	}

	return region, nil
}

// SaveSliceSequence extracts and saves every slice along the specified axis.
// It returns the written paths.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string, format export.Format) ([]string, error) {
	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.volume.Width
	case "y", "Y":
		maxPos = v.volume.Height
	case "z", "Z":
		maxPos = v.volume.Depth
	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, maxPos)
	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return paths, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.%s", axis, pos, format.Ext()))
		if err := format.WriteFile(filename, img); err != nil {
			return paths, err
		}
		paths = append(paths, filename)
	}

	return paths, nil
}
