package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/synapse-transformation/pkg/consts"
)

// Extension is appended to the table name to form the manifest file name.
const Extension = ".manifest"

// FileSink writes manifests as JSON files into a directory.
type FileSink struct {
	dir string
}

// NewFileSink returns a sink writing <dir>/<table>.manifest files. The
// directory is created on first write.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Dir returns the directory manifests are written to.
func (s *FileSink) Dir() string {
	return s.dir
}

// Path returns the manifest path of table.
func (s *FileSink) Path(table string) string {
	return filepath.Join(s.dir, table+Extension)
}

// WriteTableManifest writes m as indented JSON, replacing any previous manifest.
func (s *FileSink) WriteTableManifest(table string, m *TableManifest) error {
	if table == "" || strings.ContainsAny(table, `/\`) {
		return errors.Errorf("invalid table name %q", table)
	}

	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}

	if err := os.MkdirAll(s.dir, consts.ModeDir); err != nil {
		return errors.Wrapf(err, "failed to create %s", s.dir)
	}

	path := s.Path(table)
	if err := os.WriteFile(path, append(data, '\n'), consts.ModeFile); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}

	return nil
}
