package model

import (
    "fmt"
    "os"

    yaml "gopkg.in/yaml.v3"
)

// LoadInput reads a YAML or JSON problem file and validates it.
func LoadInput(path string) (*Input, error) {
    data, err := os.ReadFile(path)
    if err != nil { return nil, err }
    return ParseInput(data)
}

// ParseInput decodes a YAML document (JSON is accepted as a YAML subset).
func ParseInput(data []byte) (*Input, error) {
    var in Input
    if err := yaml.Unmarshal(data, &in); err != nil { return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err) }
    if err := in.Validate(); err != nil { return nil, err }
    return &in, nil
}
