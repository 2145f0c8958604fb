package runner

import (
	"fmt"
	"net/url"
	"strings"

	sharederrors "github.com/khanhnv2901/seca-stacks/internal/shared/errors"
)

// NormalizeTarget turns operator input into an absolute page URL.
// It accepts:
//   - example.com
//   - example.com:8080/path
//   - http://example.com
//   - https://example.com/app#/route
//
// Bare hosts default to https. Schemes other than http and https are rejected.
func NormalizeTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", sharederrors.ErrEmptyTarget
	}

	parsed, err := url.Parse(target)
	// "example.com:8080" parses with scheme "example.com"
	if err != nil || parsed.Scheme == "" || strings.Contains(parsed.Scheme, ".") || parsed.Host == "" && parsed.Opaque != "" {
		parsed, err = url.Parse("https://" + target)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", sharederrors.ErrInvalidTarget, target, err)
		}
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", sharederrors.ErrInvalidTarget, parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("%w: %s has no host", sharederrors.ErrInvalidTarget, target)
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	return parsed.String(), nil
}
