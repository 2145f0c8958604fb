package stacks

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var defaultServerSignatures = []ServerSignature{
	// CDNs and hosting platforms first: they often front a generic server.
	{ID: "cloudflare", Name: "Cloudflare", HeaderMatchers: map[string]string{"server": "cloudflare"}},
	{ID: "vercel", Name: "Vercel", HeaderMatchers: map[string]string{"server": "vercel"}},
	{ID: "netlify", Name: "Netlify", HeaderMatchers: map[string]string{"server": "netlify"}},
	{ID: "github-pages", Name: "GitHub Pages", HeaderMatchers: map[string]string{"server": "github.com"}},
	{ID: "cloudfront", Name: "Amazon CloudFront", HeaderMatchers: map[string]string{"x-amz-cf-id": ""}},
	{ID: "fastly", Name: "Fastly", HeaderMatchers: map[string]string{"x-fastly-request-id": ""}},
	{ID: "akamai", Name: "Akamai", HeaderMatchers: map[string]string{"server": "akamaighost"}},
	{ID: "amazon-s3", Name: "Amazon S3", HeaderMatchers: map[string]string{"server": "amazons3"}},
	{ID: "google-frontend", Name: "Google Frontend", HeaderMatchers: map[string]string{"server": "google frontend"}},
	{ID: "caddy", Name: "Caddy", HeaderMatchers: map[string]string{"server": "caddy"}},
	{ID: "litespeed", Name: "LiteSpeed", HeaderMatchers: map[string]string{"server": "litespeed"}},
	{ID: "openresty", Name: "OpenResty", HeaderMatchers: map[string]string{"server": "openresty"}},
	{ID: "nginx", Name: "nginx", HeaderMatchers: map[string]string{"server": "nginx"}},
	{ID: "apache", Name: "Apache", HeaderMatchers: map[string]string{"server": "apache"}},
	{ID: "iis", Name: "Microsoft IIS", HeaderMatchers: map[string]string{"server": "microsoft-iis"}},
	{ID: "envoy", Name: "Envoy", HeaderMatchers: map[string]string{"server": "envoy"}},
	{ID: "express", Name: "Express", HeaderMatchers: map[string]string{"x-powered-by": "express"}},
}

// DefaultServerSignatures returns a copy of the built-in signature table.
func DefaultServerSignatures() []ServerSignature {
	return cloneSignatures(defaultServerSignatures)
}

// LoadServerSignatures parses an ordered YAML list of signatures:
//
//	- id: nginx
//	  name: nginx
//	  headers:
//	    server: nginx
func LoadServerSignatures(r io.Reader) ([]ServerSignature, error) {
	var sigs []ServerSignature
	if err := yaml.NewDecoder(r).Decode(&sigs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty table", ErrInvalidServerSignature)
		}
		return nil, fmt.Errorf("decode server signatures: %w", err)
	}
	if len(sigs) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrInvalidServerSignature)
	}
	for i := range sigs {
		if err := sigs[i].validate(); err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
	}
	return normalizeSignatures(sigs), nil
}

func (s ServerSignature) validate() error {
	switch {
	case strings.TrimSpace(s.ID) == "":
		return fmt.Errorf("%w: missing id", ErrInvalidServerSignature)
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("%w: %s has no name", ErrInvalidServerSignature, s.ID)
	case len(s.HeaderMatchers) == 0:
		return fmt.Errorf("%w: %s has no header matchers", ErrInvalidServerSignature, s.ID)
	}
	return nil
}

// ServerDetector matches response headers against an ordered signature table.
type ServerDetector struct {
	signatures []ServerSignature
}

// NewServerDetector builds a detector over sigs, or over the built-in table
// when sigs is empty. The table is copied and never mutated afterwards.
func NewServerDetector(sigs []ServerSignature) *ServerDetector {
	if len(sigs) == 0 {
		sigs = defaultServerSignatures
	}
	return &ServerDetector{signatures: normalizeSignatures(sigs)}
}

// Signatures returns a copy of the table in precedence order.
func (d *ServerDetector) Signatures() []ServerSignature {
	return cloneSignatures(d.signatures)
}

// Detect returns the first signature with any satisfied header matcher.
func (d *ServerDetector) Detect(headers map[string]string) (ServerMatch, bool) {
	// Sorted so that case-variant duplicates resolve the same way every time.
	normalized := make(map[string]string, len(headers))
	for _, name := range slices.Sorted(maps.Keys(headers)) {
		normalized[strings.ToLower(name)] = strings.ToLower(headers[name])
	}

	for _, sig := range d.signatures {
		// Any matcher is enough. Multi-matcher entries are OR'ed, not AND'ed.
		for _, header := range slices.Sorted(maps.Keys(sig.HeaderMatchers)) {
			value, ok := normalized[header]
			if ok && strings.HasPrefix(value, sig.HeaderMatchers[header]) {
				return ServerMatch{ID: sig.ID, Name: sig.Name}, true
			}
		}
	}
	return ServerMatch{}, false
}

// normalizeSignatures copies sigs with lowercase header names and prefixes.
func normalizeSignatures(sigs []ServerSignature) []ServerSignature {
	out := make([]ServerSignature, len(sigs))
	for i, sig := range sigs {
		matchers := make(map[string]string, len(sig.HeaderMatchers))
		for header, prefix := range sig.HeaderMatchers {
			matchers[strings.ToLower(strings.TrimSpace(header))] = strings.ToLower(prefix)
		}
		out[i] = ServerSignature{ID: sig.ID, Name: sig.Name, HeaderMatchers: matchers}
	}
	return out
}

func cloneSignatures(sigs []ServerSignature) []ServerSignature {
	out := make([]ServerSignature, len(sigs))
	for i, sig := range sigs {
		out[i] = ServerSignature{ID: sig.ID, Name: sig.Name, HeaderMatchers: maps.Clone(sig.HeaderMatchers)}
	}
	return out
}
