package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	t.Parallel()

	ee := Newf("boom").Build()
	require.NotNil(t, ee)
	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.Equal(t, "boom", ee.Error())
	assert.False(t, ee.Timestamp.IsZero())
}

func TestBuilderMetadata(t *testing.T) {
	t.Parallel()

	ee := Newf("write failed").
		Component("mirror").
		Category(CategoryBuffer).
		Context("source", "malgo").
		Context("bytes", 4096).
		Build()

	assert.Equal(t, "mirror", ee.Component)
	assert.Equal(t, "stream-buffer", ee.GetCategory())

	ctx := ee.GetContext()
	assert.Equal(t, "malgo", ctx["source"])
	assert.Equal(t, 4096, ctx["bytes"])

	// mutating the copy must not leak back into the error
	ctx["source"] = "other"
	assert.Equal(t, "malgo", ee.GetContext()["source"])
}

func TestIsMatchesSentinelAndCategory(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("not ready")
	wrapped := New(sentinel).Category(CategoryBuffer).Build()

	assert.True(t, Is(wrapped, sentinel))

	other := Newf("different cause").Category(CategoryBuffer).Build()
	assert.True(t, Is(wrapped, other), "same-category enhanced errors should match")
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	cause := NewStd("cause")
	ee := New(cause).Build()
	assert.Equal(t, cause, ee.Unwrap())
}
