// Package id generates the random identifiers used for request state and
// nonces.
package id

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-uuid"
)

// Len is the length of a generated id, without its prefix.
const Len = 32

// New generates an ID with an optional prefix, which is separated from the
// random part by an underscore.
func New(optionalPrefix string) (string, error) {
	u, err := uuid.GenerateUUID()
	if err != nil {
		return "", fmt.Errorf("unable to generate id: %w", err)
	}
	id := strings.ReplaceAll(u, "-", "")
	switch {
	case optionalPrefix != "":
		return fmt.Sprintf("%s_%s", optionalPrefix, id), nil
	default:
		return id, nil
	}
}
