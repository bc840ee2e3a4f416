package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidEmail(t *testing.T) {
	valid := []string{"a@x.com", "first.last+tag@sub.example.org"}
	invalid := []string{"", "a", "a@x", "@x.com", "a@.com", "a@@x.com", "a b@x.com", "a@x.com extra"}

	for _, s := range valid {
		assert.True(t, ValidEmail(s), s)
	}
	for _, s := range invalid {
		assert.False(t, ValidEmail(s), s)
	}
}

func TestRequest_feedDeduplicates(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	r := NewRequest()
	errs := r.Feed("a@x.com b@x.com,a@x.com")

	assert.Equal([]string{"a@x.com", "b@x.com"}, r.Targets())
	require.Len(errs, 1)
	assert.ErrorIs(errs[0], ErrDuplicate)

	var verr *ValidationError
	require.ErrorAs(errs[0], &verr)
	assert.Equal("a@x.com", verr.Token)
}

func TestRequest_addRejects(t *testing.T) {
	assert := assert.New(t)

	r := NewRequest("a@x.com")

	assert.ErrorIs(r.Add("not-an-email"), ErrInvalidEmail)
	assert.ErrorIs(r.Add("A@X.com"), ErrDuplicate)
	assert.NoError(r.Add("   "))
	assert.NoError(r.Add(" b@x.com, \n"))

	assert.Equal([]string{"a@x.com", "b@x.com"}, r.Targets())
}

func TestRequest_feedSeparators(t *testing.T) {
	r := NewRequest()
	errs := r.Feed("a@x.com\nb@x.com\tc@x.com,,  d@x.com")

	assert.Empty(t, errs)
	assert.Equal(t, 4, r.Len())
}

func TestRequest_removeAndReset(t *testing.T) {
	assert := assert.New(t)

	r := NewRequest("a@x.com", "b@x.com", "c@x.com")
	assert.True(r.Remove("B@x.com"))
	assert.False(r.Remove("z@x.com"))
	assert.Equal([]string{"a@x.com", "c@x.com"}, r.Targets())

	r.Reset()
	assert.Zero(r.Len())
}

func TestNewRequest_dropsInvalid(t *testing.T) {
	r := NewRequest("a@x.com", "bogus", "a@x.com")
	assert.Equal(t, []string{"a@x.com"}, r.Targets())
}
