// Package catalog holds the static starter-process catalog offered during
// onboarding. The catalog is reference data embedded at build time; it never
// changes at runtime.
package catalog

import (
	"fmt"

	_ "embed"

	"gopkg.in/yaml.v3"
)

// The four IT4IT value streams, in fixed display order. The order index
// determines the canvas column a process is placed in.
const (
	Strategy2Portfolio = "Strategy2Portfolio"
	Requirement2Deploy = "Requirement2Deploy"
	Request2Fulfill    = "Request2Fulfill"
	Detect2Correct     = "Detect2Correct"
)

var streamOrder = map[string]int{
	Strategy2Portfolio: 0,
	Requirement2Deploy: 1,
	Request2Fulfill:    2,
	Detect2Correct:     3,
}

// StreamIndex returns the fixed display-order index for a value stream.
// Unrecognized streams map to column 0.
func StreamIndex(valueStream string) int {
	return streamOrder[valueStream]
}

// ValueStreams returns the known value streams in display order.
func ValueStreams() []string {
	return []string{Strategy2Portfolio, Requirement2Deploy, Request2Fulfill, Detect2Correct}
}

// ValidValueStream reports whether valueStream is one of the four known streams.
func ValidValueStream(valueStream string) bool {
	_, ok := streamOrder[valueStream]
	return ok
}

// StarterProcess is a catalog template process a user can adopt onto their
// organization's canvas during onboarding.
type StarterProcess struct {
	Key         string `yaml:"key" json:"key"`
	Name        string `yaml:"name" json:"name"`
	ValueStream string `yaml:"value_stream" json:"value_stream"`
}

//go:embed catalog.yaml
var catalogYAML []byte

var processes []StarterProcess

func init() {
	var doc struct {
		Processes []StarterProcess `yaml:"processes"`
	}
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		panic(fmt.Sprintf("catalog: invalid embedded catalog.yaml: %v", err))
	}
	processes = doc.Processes
}

// Processes returns all starter processes in catalog order.
// The returned slice is a copy; callers may reorder it freely.
func Processes() []StarterProcess {
	out := make([]StarterProcess, len(processes))
	copy(out, processes)
	return out
}

// Lookup returns the starter process with the given key.
func Lookup(key string) (StarterProcess, bool) {
	for _, p := range processes {
		if p.Key == key {
			return p, true
		}
	}
	return StarterProcess{}, false
}
