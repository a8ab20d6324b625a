// Package workflow loads the service's job template and produces per-item
// submission payloads. A template is the service's native node-graph JSON:
// a map of node id → {class_type, inputs}. Per item, two nodes receive
// substitutions: the image-loader node gets the staged input's filename and
// the prefix node gets the item's base name, which the service then uses as
// the filename prefix for everything the job writes.
package workflow

import (
	"encoding/json"
	"fmt"
	"os"
)

// Node class types carrying the per-item substitutions.
const (
	imageNodeClass  = "Trellis2LoadImageWithTransparency"
	prefixNodeClass = "PrimitiveString"
)

// Input field names within the designated nodes.
const (
	imageInputField  = "image"
	prefixInputField = "value"
)

// Node is one node of the service's workflow graph. Inputs is kept loose:
// node parameters are heterogeneous and the pipeline only ever touches the
// two designated fields.
type Node struct {
	ClassType string                 `json:"class_type"`
	Inputs    map[string]interface{} `json:"inputs"`

	// Fields this pipeline does not interpret survive the clone untouched.
	Meta json.RawMessage `json:"_meta,omitempty"`
}

// Template is a parsed, validated job template. Load it once per run;
// [Template.Instantiate] clones it per item.
type Template struct {
	nodes map[string]Node
}

// Load reads and validates the template file. Errors here are fatal to the
// run: a template that cannot be read or parsed, or that lacks the
// designated substitution nodes, can never produce a valid submission.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workflow template: %w", err)
	}

	var nodes map[string]Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("workflow template %s: %w", path, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("workflow template %s: no nodes", path)
	}

	t := &Template{nodes: nodes}
	if t.findNode(imageNodeClass) == "" {
		return nil, fmt.Errorf("workflow template %s: no %s node", path, imageNodeClass)
	}
	if t.findNode(prefixNodeClass) == "" {
		return nil, fmt.Errorf("workflow template %s: no %s node", path, prefixNodeClass)
	}
	return t, nil
}

// findNode returns the id of the first node with the given class type.
func (t *Template) findNode(classType string) string {
	for id, n := range t.nodes {
		if n.ClassType == classType {
			return id
		}
	}
	return ""
}

// Instantiate returns a deep copy of the template graph with imageName set
// on the image-loader node and prefix set on the prefix node. The returned
// map is safe to mutate and marshal independently of the template.
func (t *Template) Instantiate(imageName, prefix string) (map[string]Node, error) {
	clone, err := t.clone()
	if err != nil {
		return nil, err
	}

	img := clone[t.findNode(imageNodeClass)]
	if img.Inputs == nil {
		img.Inputs = make(map[string]interface{})
	}
	img.Inputs[imageInputField] = imageName
	clone[t.findNode(imageNodeClass)] = img

	pfx := clone[t.findNode(prefixNodeClass)]
	if pfx.Inputs == nil {
		pfx.Inputs = make(map[string]interface{})
	}
	pfx.Inputs[prefixInputField] = prefix
	clone[t.findNode(prefixNodeClass)] = pfx

	return clone, nil
}

// clone deep-copies the node graph via a JSON round trip. Node inputs hold
// arbitrarily nested values, so a structural copy is the only safe one.
func (t *Template) clone() (map[string]Node, error) {
	data, err := json.Marshal(t.nodes)
	if err != nil {
		return nil, fmt.Errorf("clone workflow template: %w", err)
	}
	var out map[string]Node
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("clone workflow template: %w", err)
	}
	return out, nil
}
