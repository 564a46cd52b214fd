package imageio

import (
	"io"
	"os"

	"github.com/mrjoshuak/go-openexr/exr"
	"github.com/mrjoshuak/go-openexr/half"
	"github.com/pkg/errors"
	"github.com/yinxirun/Ray-Tracing-sub001/types"
)

// Channels in header order. Each entry maps a channel name to the RGB
// component it stores.
var exrChannels = []struct {
	name      string
	component int
}{
	{"B", 2},
	{"G", 1},
	{"R", 0},
}

// Encode an RGB frame as a single part, uncompressed scanline EXR image
// with half float B, G and R channels. Pixels are stored in row-major
// order starting from the top row.
func EncodeEXR(w io.WriteSeeker, width, height int, pixels []types.Vec3) error {
	if width <= 0 || height <= 0 {
		return errors.Errorf("imageio: invalid exr frame size %dx%d", width, height)
	}
	if len(pixels) != width*height {
		return errors.Errorf("imageio: expected %d pixels for a %dx%d exr frame; got %d", width*height, width, height, len(pixels))
	}

	header := exr.NewScanlineHeader(width, height)
	header.SetCompression(exr.CompressionNone)

	channels := exr.NewChannelList()
	fb := exr.NewFrameBuffer()
	for _, ch := range exrChannels {
		channels.Add(exr.NewChannel(ch.name, exr.PixelTypeHalf))

		data := make([]half.Half, len(pixels))
		for i, px := range pixels {
			data[i] = half.FromFloat32(px[ch.component])
		}
		fb.Set(ch.name, exr.NewSliceFromHalf(data, width, height))
	}
	header.SetChannels(channels)

	sw, err := exr.NewScanlineWriter(w, header)
	if err != nil {
		return errors.Wrap(err, "imageio: could not write exr header")
	}
	sw.SetFrameBuffer(fb)

	if err = sw.WritePixels(0, height-1); err != nil {
		sw.Close()
		return errors.Wrap(err, "imageio: could not write exr scanlines")
	}
	return errors.Wrap(sw.Close(), "imageio: could not finalize exr image")
}

// Write an RGB frame as an EXR file.
func WriteEXR(path string, width, height int, pixels []types.Vec3) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "imageio: could not create %s", path)
	}

	if err = EncodeEXR(f, width, height, pixels); err != nil {
		f.Close()
		return errors.Wrapf(err, "imageio: could not encode %s", path)
	}

	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "imageio: could not close %s", path)
	}
	return nil
}
