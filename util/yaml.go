package util

import (
	"bytes"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarshalYaml marshals the given source to a YAML string
func MarshalYaml(source interface{}) (string, error) {
	writer := &bytes.Buffer{}
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(source); err != nil {
		return "", err
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}
	return writer.String(), nil
}

// UnmarshalYamlFile loads and unmarshals YAML from file to interface or pointer to struct
func UnmarshalYamlFile(path string, output interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return UnmarshalYamlReader(file, output)
}

// UnmarshalYamlReader loads and unmarshals YAML from IO reader to interface or pointer to struct
func UnmarshalYamlReader(reader io.Reader, output interface{}) error {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true) // only works outside of custom unmarshalers
	return decoder.Decode(output)
}

// UnmarshalYamlString loads and unmarshals YAML in string to interface or pointer to struct
func UnmarshalYamlString(contents string, output interface{}) error {
	reader := strings.NewReader(contents)
	return UnmarshalYamlReader(reader, output)
}
