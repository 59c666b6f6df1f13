// Package datacfg reads and updates the cGAN training config file
// config/data_paths.yaml. Each top-level entry names a machine or session
// and points at the local data tree the training code should use.
package datacfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one named configuration in data_paths.yaml. Field names match
// what the training code expects, so the YAML keys are fixed.
type Entry struct {
	General   General   `yaml:"GENERAL"`
	TFRecords TFRecords `yaml:"TFRecords"`
}

// General holds the data paths used during training.
type General struct {
	TruthPath     string `yaml:"TRUTH_PATH"`
	ForecastPath  string `yaml:"FORECAST_PATH"`
	ConstantsPath string `yaml:"CONSTANTS_PATH"`
}

// TFRecords holds the path TFRecord shards are written to.
type TFRecords struct {
	TFRecordsPath string `yaml:"tfrecords_path"`
}

// Overrides replaces individual derived paths. Empty fields keep the
// defaults relative to the base path.
type Overrides struct {
	ForecastPath  string
	TruthPath     string
	ConstantsPath string
	TFRecordsPath string
}

// NewEntry derives an entry from a base data directory. Defaults mirror
// the layout train-data produces: forecasts at the base, truth under
// TRUTH/, constants under constants/, TFRecords under tfrecords/.
// All paths come out absolute with a trailing separator.
func NewEntry(basePath string, o Overrides) (Entry, error) {
	base, err := filepath.Abs(basePath)
	if err != nil {
		return Entry{}, fmt.Errorf("resolve base path: %w", err)
	}

	forecast := o.ForecastPath
	if forecast == "" {
		forecast = base
	}
	truth := o.TruthPath
	if truth == "" {
		truth = filepath.Join(base, "TRUTH")
	}
	constants := o.ConstantsPath
	if constants == "" {
		constants = filepath.Join(base, "constants")
	}
	tfrecords := o.TFRecordsPath
	if tfrecords == "" {
		tfrecords = filepath.Join(base, "tfrecords")
	}

	return Entry{
		General: General{
			TruthPath:     dirSlash(truth),
			ForecastPath:  dirSlash(forecast),
			ConstantsPath: dirSlash(constants),
		},
		TFRecords: TFRecords{
			TFRecordsPath: dirSlash(tfrecords),
		},
	}, nil
}

// Update inserts or replaces the named entry in the YAML file at path,
// preserving all other entries. A missing file starts an empty document.
func Update(path, name string, e Entry) error {
	doc := map[string]yaml.Node{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fresh file.
	default:
		return fmt.Errorf("read %s: %w", path, err)
	}

	var node yaml.Node
	if err := node.Encode(e); err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	doc[name] = node

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Load reads all entries from the YAML file at path.
func Load(path string) (map[string]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	entries := map[string]Entry{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return entries, nil
}

// dirSlash returns p with exactly one trailing separator, the form the
// training code concatenates file names onto.
func dirSlash(p string) string {
	return strings.TrimRight(p, "/") + "/"
}
