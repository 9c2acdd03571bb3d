package util

import (
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// ReadFileYAML decodes the YAML file at path into target. Unknown keys
// are rejected so that typos in configuration files surface early.
func ReadFileYAML(path string, target interface{}) error {
	if !FileExists(path) {
		return errors.Errorf("file '%s' does not exist", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "problem reading file '%s'", path)
	}

	return errors.Wrapf(yaml.UnmarshalStrict(data, target), "problem parsing yaml from file '%s'", path)
}

func FileExists(path string) bool {
	if path == "" {
		return false
	}

	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
