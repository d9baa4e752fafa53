package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"proctor/internal/action"
	"proctor/internal/testcase"
)

// Document is a test case as written in a YAML file
type Document struct {
	// Name identifies the test case; unique across all loaded files
	Name string `yaml:"name"`
	// Description explains what the test case verifies
	Description string `yaml:"description,omitempty"`
	// Author of the test case
	Author string `yaml:"author,omitempty"`
	// Status is one of DRAFT, READY_FOR_REVIEW, DISABLED, FINAL
	Status string `yaml:"status,omitempty"`
	// CreationDate as 2006-01-02 or RFC 3339
	CreationDate string `yaml:"creationDate,omitempty"`
	// LastUpdatedBy names the last editor
	LastUpdatedBy string `yaml:"lastUpdatedBy,omitempty"`
	// LastUpdatedOn as 2006-01-02 or RFC 3339
	LastUpdatedOn string `yaml:"lastUpdatedOn,omitempty"`
	// Variables are seeded in file order when the test case starts
	Variables Variables `yaml:"variables,omitempty"`
	// Actions run in order until the first failure
	Actions []action.Definition `yaml:"actions"`
	// Finally actions always run after the actions
	Finally []action.Definition `yaml:"finally,omitempty"`

	// Source is the file the document was read from
	Source string `yaml:"-"`
}

// Variables keeps test case variables in the order they appear in the file,
// so later values may reference earlier ones.
type Variables []testcase.Variable

// UnmarshalYAML decodes a mapping preserving key order.
func (v *Variables) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: variables must be a mapping", node.Line)
	}

	vars := make(Variables, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: variable %s must be a scalar value", value.Line, key.Value)
		}
		vars = append(vars, testcase.Variable{Name: key.Value, Value: value.Value})
	}
	*v = vars
	return nil
}

// MarshalYAML encodes the variables as an ordered mapping.
func (v Variables) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, variable := range v {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: variable.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: variable.Value},
		)
	}
	return node, nil
}
