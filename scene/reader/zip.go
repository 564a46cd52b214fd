package reader

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/yinxirun/Ray-Tracing-sub001/asset"
	"github.com/yinxirun/Ray-Tracing-sub001/log"
	"github.com/yinxirun/Ray-Tracing-sub001/scene"
	"github.com/yinxirun/Ray-Tracing-sub001/scene/writer"
)

type zipSceneReader struct {
	logger log.Logger
}

// Create a new reader for scenes compiled by the writer package.
func newZipSceneReader() *zipSceneReader {
	return &zipSceneReader{
		logger: log.New("zip scene reader"),
	}
}

// Read scene definition from zip file.
func (p *zipSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	p.logger.Noticef(`parsing compiled scene from "%s"`, sceneRes.Path())
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := io.ReadAll(sceneRes)
	if err != nil {
		return nil, errors.Wrapf(err, "reader: could not read %s", sceneRes.Path())
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrapf(err, "reader: could not open archive %s", sceneRes.Path())
	}

	var sc *scene.Scene
	for _, f := range zr.File {
		if f.Name != writer.DataFile {
			p.logger.Warningf("unknown file %s in scene zip file; skipping", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "reader: could not open %s", f.Name)
		}
		err = gob.NewDecoder(rc).Decode(&sc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "reader: failed to load %s", f.Name)
		}
	}

	if sc == nil {
		return nil, errors.Errorf("reader: %s does not contain a compiled scene", sceneRes.Path())
	}
	if sc.Camera == nil {
		sc.Camera = scene.NewCamera(45)
	}

	p.logger.Noticef("loaded scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}
