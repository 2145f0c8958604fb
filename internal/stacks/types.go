package stacks

import "encoding/json"

// Detector identifies which detector produced a StackEntry.
type Detector string

const (
	DetectorJS     Detector = "js"
	DetectorServer Detector = "server"
)

// DetectedLibrary is a catalog entry whose probe matched.
type DetectedLibrary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	NPMName string `json:"npm_name,omitempty"`
}

// ServerMatch is the server signature selected for a response.
type ServerMatch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StackEntry is one normalized detection in the final artifact.
type StackEntry struct {
	Detector Detector `json:"detector"`
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Version  string   `json:"version,omitempty"`
	NPMName  string   `json:"npm_name,omitempty"`
}

// ServerSignature maps lowercase header names to required value prefixes.
// An empty prefix only requires the header to be present.
type ServerSignature struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	HeaderMatchers map[string]string `json:"headers" yaml:"headers"`
}

// NetworkLogEntry is one captured devtools protocol event.
type NetworkLogEntry struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Entry converts the library into a js StackEntry.
func (lib DetectedLibrary) Entry() StackEntry {
	return StackEntry{
		Detector: DetectorJS,
		ID:       lib.ID,
		Name:     lib.Name,
		Version:  lib.Version,
		NPMName:  lib.NPMName,
	}
}

// Entry converts the match into a server StackEntry.
func (match ServerMatch) Entry() StackEntry {
	return StackEntry{
		Detector: DetectorServer,
		ID:       match.ID,
		Name:     match.Name,
	}
}
