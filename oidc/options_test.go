package oidc

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
)

func TestApplyOpts(t *testing.T) {
	t.Parallel()
	// Let's make sure we don't panic on nil options
	anonymousOpts := struct {
		Names []string
	}{
		nil,
	}
	ApplyOpts(anonymousOpts, nil)
}

func TestWithLogger(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	l := hclog.New(&hclog.LoggerOptions{Name: "test"})

	mOpts := getManagerOpts(WithLogger(l))
	assert.Equal(l, mOpts.withLogger)
	eOpts := getEventsOpts(WithLogger(l))
	assert.Equal(l, eOpts.withLogger)
	sOpts := getServiceOpts(WithLogger(l))
	assert.Equal(l, sOpts.withLogger)

	// a nil logger falls back to the default
	assert.NotNil(getManagerOpts(WithLogger(nil)).withLogger)
}

func TestWithExpirySkew(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	assert.Equal(DefaultUserExpirySkew, getUserOpts().withExpirySkew)
	assert.Equal(time.Minute, getUserOpts(WithExpirySkew(time.Minute)).withExpirySkew)
}
