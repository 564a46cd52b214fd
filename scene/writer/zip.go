package writer

import (
	"archive/zip"
	"encoding/gob"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/yinxirun/Ray-Tracing-sub001/log"
	"github.com/yinxirun/Ray-Tracing-sub001/scene"
)

// Name of the archive entry holding the gob-encoded scene.
const DataFile = "scene.bin"

type zipSceneWriter struct {
	logger    log.Logger
	sceneFile string
}

// Create a new zip scene writer
func newZipSceneWriter(sceneFile string) *zipSceneWriter {
	return &zipSceneWriter{
		logger:    log.New("zip scene writer"),
		sceneFile: sceneFile,
	}
}

// Write scene definition to zip file.
func (w *zipSceneWriter) Write(sc *scene.Scene) (err error) {
	w.logger.Noticef(`writing compiled scene to "%s"`, w.sceneFile)
	start := time.Now()

	zipFile, err := os.Create(w.sceneFile)
	if err != nil {
		return errors.Wrapf(err, "writer: could not create %s", w.sceneFile)
	}
	defer func() {
		if closeErr := zipFile.Close(); err == nil && closeErr != nil {
			err = errors.Wrapf(closeErr, "writer: could not close %s", w.sceneFile)
		}
	}()

	zw := zip.NewWriter(zipFile)
	cw, err := zw.Create(DataFile)
	if err != nil {
		return errors.Wrapf(err, "writer: could not create %s entry", DataFile)
	}
	if err = gob.NewEncoder(cw).Encode(sc); err != nil {
		return errors.Wrap(err, "writer: could not encode scene")
	}
	if err = zw.Close(); err != nil {
		return errors.Wrapf(err, "writer: could not finalize %s", w.sceneFile)
	}

	w.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}
