package asset

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// A Resource is a readable stream backed either by a local file or by the
// body of an http(s) response. Scene files refer to other resources (material
// libraries, included meshes) relative to their own location.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Get the path or URL this resource was loaded from.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns true if the resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource. When relTo is not nil and pathToResource has no scheme,
// the path is resolved against the directory containing relTo. Both local
// and http(s) parents are supported.
//
// Callers must Close the returned resource.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	// Normalize windows-style separators before parsing as a URL
	resURL, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, errors.Wrapf(err, "resource: invalid path %q", pathToResource)
	}

	if resURL.Scheme == "" && relTo != nil {
		resURL, err = resolveRelative(resURL.Path, relTo)
		if err != nil {
			return nil, err
		}
	}

	var reader io.ReadCloser
	switch resURL.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(resURL.Path))
		if err != nil {
			return nil, errors.Wrap(err, "resource")
		}
	case "http", "https":
		resp, err := http.Get(resURL.String())
		if err != nil {
			return nil, errors.Wrapf(err, "resource: could not fetch '%s'", resURL.String())
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, errors.Errorf("resource: could not fetch '%s': status %d", resURL.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, errors.Errorf("resource: unsupported scheme '%s'", resURL.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        resURL,
	}, nil
}

// Wrap an in-memory stream into a resource with the given name. Relative
// resources opened from it resolve against name.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	resURL, err := url.Parse(name)
	if err != nil {
		resURL = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        resURL,
	}
}

func resolveRelative(path string, relTo *Resource) (*url.URL, error) {
	resolved := *relTo.url
	prefix := resolved.Path
	if resolved.Scheme == "" {
		var err error
		prefix, err = filepath.Abs(relTo.url.String())
		if err != nil {
			return nil, errors.Wrapf(err, "resource: could not detect abs path for %s", relTo.url.String())
		}
	}
	resolved.Path = filepath.Dir(prefix) + "/" + path
	return &resolved, nil
}
