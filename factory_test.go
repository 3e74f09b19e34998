package objstore

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oserrors "github.com/strandcloud/objstore/errors"
)

func newTestFactory() *Factory {
	// A prepared SDK config keeps the factory away from the default
	// credential chain in tests.
	return NewFactory(WithAWSConfig(&aws.Config{}))
}

func TestFactory_Client_CreateOnFirstUse(t *testing.T) {
	f := newTestFactory()
	defer func() { _ = f.Shutdown() }()

	first, err := f.Client("acme", "eu")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, f.Len())

	second, err := f.Client("acme", "eu")
	require.NoError(t, err)
	assert.Same(t, first, second, "same account and jurisdiction must share a client")

	other, err := f.Client("acme", "")
	require.NoError(t, err)
	assert.NotSame(t, first, other, "jurisdictions are isolated")
	assert.Equal(t, 2, f.Len())
}

func TestFactory_Client_EmptyAccountRejected(t *testing.T) {
	f := newTestFactory()
	defer func() { _ = f.Shutdown() }()

	_, err := f.Client("", "eu")
	require.Error(t, err)
	assert.True(t, oserrors.IsValidation(err))
}

func TestFactory_Shutdown(t *testing.T) {
	f := newTestFactory()

	_, err := f.Client("acme", "eu")
	require.NoError(t, err)

	require.NoError(t, f.Shutdown())
	assert.Equal(t, 0, f.Len())

	_, err = f.Client("acme", "eu")
	require.Error(t, err, "a shut-down factory hands out nothing")

	// Shutdown is idempotent.
	require.NoError(t, f.Shutdown())
}
