package imageio

import (
	"bufio"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Encode an image as an 8-bit PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// Write an image as an 8-bit PNG file.
func WritePNG(path string, img image.Image) error {
	return writeFile(path, func(w io.Writer) error {
		return EncodePNG(w, img)
	})
}

// Downscale an image to the given width while preserving its aspect ratio.
// Images that are already narrower than width are returned unchanged.
func Preview(img image.Image, width uint) image.Image {
	if width == 0 || int(width) >= img.Bounds().Dx() {
		return img
	}
	return resize.Resize(width, 0, img, resize.Lanczos3)
}

// Create a file and stream the output of encode into it.
func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "imageio: could not create %s", path)
	}

	w := bufio.NewWriter(f)
	if err = encode(w); err == nil {
		err = w.Flush()
	}
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "imageio: could not encode %s", path)
	}

	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "imageio: could not close %s", path)
	}
	return nil
}
