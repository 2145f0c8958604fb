package stacks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/khanhnv2901/seca-stacks/internal/shared/constants"
)

type responseReceivedParams struct {
	Type     string `json:"type"`
	Response *struct {
		Headers map[string]json.RawMessage `json:"headers"`
	} `json:"response"`
}

// DocumentHeaders returns the response headers of the first
// Network.responseReceived entry whose resource type is Document. It returns
// an empty map when the log holds no such entry.
func DocumentHeaders(log []NetworkLogEntry) (map[string]string, error) {
	for i, entry := range log {
		if entry.Method != constants.NetworkResponseReceived {
			continue
		}

		var params responseReceivedParams
		if err := json.Unmarshal(entry.Params, &params); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedNetworkLog, i, err)
		}
		if params.Type != constants.ResourceTypeDocument {
			continue
		}
		if params.Response == nil {
			return nil, fmt.Errorf("%w: entry %d: document response without payload", ErrMalformedNetworkLog, i)
		}

		headers := make(map[string]string, len(params.Response.Headers))
		for name, raw := range params.Response.Headers {
			headers[name] = headerValue(raw)
		}
		return headers, nil
	}
	return map[string]string{}, nil
}

// headerValue decodes a JSON string, or keeps the raw text of anything else.
func headerValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// rawLogRecord covers both bare {method, params} entries and Chrome
// performance-log records that wrap them in a "message" field.
type rawLogRecord struct {
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	Message json.RawMessage `json:"message"`
}

const maxLogRecordDepth = 3

// ReadNetworkLog decodes a captured network log: a JSON array of
// {method, params} objects, or of performance-log records whose message
// field carries one (optionally JSON-encoded as a string).
func ReadNetworkLog(r io.Reader) ([]NetworkLogEntry, error) {
	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNetworkLog, err)
	}

	log := make([]NetworkLogEntry, 0, len(records))
	for i, raw := range records {
		entry, err := unwrapLogRecord(raw, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedNetworkLog, i, err)
		}
		log = append(log, entry)
	}
	return log, nil
}

func unwrapLogRecord(raw json.RawMessage, depth int) (NetworkLogEntry, error) {
	if depth > maxLogRecordDepth {
		return NetworkLogEntry{}, fmt.Errorf("record nested too deeply")
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return NetworkLogEntry{}, err
		}
		return unwrapLogRecord(json.RawMessage(inner), depth+1)
	}

	var rec rawLogRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return NetworkLogEntry{}, err
	}
	if rec.Method == "" && len(rec.Message) > 0 {
		return unwrapLogRecord(rec.Message, depth+1)
	}
	return NetworkLogEntry{Method: rec.Method, Params: rec.Params}, nil
}
