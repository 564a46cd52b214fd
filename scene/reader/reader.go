package reader

import (
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/yinxirun/Ray-Tracing-sub001/asset"
	"github.com/yinxirun/Ray-Tracing-sub001/scene"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read a scene from a local file or an http(s) URL. The reader is selected
// by the file extension: ".obj" for wavefront scenes and ".zip" for scenes
// compiled with the writer package.
func ReadScene(filename string) (*scene.Scene, error) {
	var reader Reader
	switch strings.ToLower(path.Ext(filename)) {
	case ".obj":
		reader = newWavefrontReader()
	case ".zip":
		reader = newZipSceneReader()
	default:
		return nil, errors.Errorf("reader: unsupported scene format %q", path.Ext(filename))
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "reader: could not open scene %q", filename)
	}
	defer res.Close()

	return reader.Read(res)
}
