package kb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/celearn/internal/domain"
)

// File is the YAML layout of a knowledge base:
//
//	classes:
//	  - name: Person
//	  - name: Female
//	    parents: [Person]
//	roles: [hasChild]
//	individuals:
//	  - name: anna
//	    types: [Female]
//	    relations:
//	      hasChild: [bob]
type File struct {
	Classes []struct {
		Name    string   `yaml:"name"`
		Parents []string `yaml:"parents"`
	} `yaml:"classes"`
	Roles       []string `yaml:"roles"`
	Individuals []struct {
		Name      string              `yaml:"name"`
		Types     []string            `yaml:"types"`
		Relations map[string][]string `yaml:"relations"`
	} `yaml:"individuals"`
}

// LoadFile reads a knowledge base from a YAML file.
func LoadFile(path string) (*KB, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	return Load(bytes.NewReader(data))
}

// Load parses a knowledge base document. Unknown fields are rejected.
func Load(r io.Reader) (*KB, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse knowledge base: %w: %w", domain.ErrInvalidInput, err)
	}

	b := NewBuilder()
	for _, c := range f.Classes {
		b.Class(c.Name, c.Parents...)
	}
	for _, r := range f.Roles {
		b.Role(r)
	}
	for _, ind := range f.Individuals {
		b.Individual(ind.Name, ind.Types...)
		for role, objs := range ind.Relations {
			for _, o := range objs {
				b.Relate(role, ind.Name, o)
			}
		}
	}
	k, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build knowledge base: %w", err)
	}
	return k, nil
}
