package mergerules

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-ullrich/XLT/pkg/requestdata"
)

func newURLFilter(t *testing.T, regex string, exclude bool, cacheSize int) *PatternFilter {
	t.Helper()
	f, err := NewPatternFilter(FieldURL, regex, exclude, cacheSize, NewAutomatonTable())
	require.NoError(t, err)
	return f
}

func urlRequest(url string) *requestdata.Request {
	return &requestdata.Request{Name: "req", URL: url}
}

func TestNewPatternFilterInvalidRegex(t *testing.T) {
	_, err := NewPatternFilter(FieldURL, "(unclosed", false, 0, NewAutomatonTable())
	assert.Error(t, err)
}

func TestNewPatternFilterUnknownField(t *testing.T) {
	_, err := NewPatternFilter(Field("bogus"), ".*", false, 0, NewAutomatonTable())
	assert.Error(t, err)
}

func TestNewPatternFilterNegativeCacheSize(t *testing.T) {
	_, err := NewPatternFilter(FieldURL, ".*", false, -1, NewAutomatonTable())
	assert.Error(t, err)
}

func TestBlankPatternMatchesEverything(t *testing.T) {
	for _, regex := range []string{"", "   ", "\t\n"} {
		f := newURLFilter(t, regex, false, DefaultCacheSize)
		require.True(t, f.Empty())

		for _, url := range []string{"", "anything", "https://x/y?z=1"} {
			state, ok := f.AppliesTo(urlRequest(url))
			assert.True(t, ok, "blank pattern must match %q", url)
			assert.Nil(t, state)
		}
	}
}

func TestBlankPatternNotInvertedByExclude(t *testing.T) {
	// A blank exclude pattern still matches everything; "exclude
	// everything" is not expressible this way.
	f := newURLFilter(t, "", true, 0)

	_, ok := f.AppliesTo(urlRequest("anything"))
	assert.True(t, ok)
	_, ok = f.AppliesTo(urlRequest(""))
	assert.True(t, ok)
}

func TestAppliesToIncludeFilter(t *testing.T) {
	f := newURLFilter(t, `^https://[^/]+/(\w+)`, false, 0)

	state, ok := f.AppliesTo(urlRequest("https://shop.example.com/cart/add"))
	require.True(t, ok)
	require.NotNil(t, state)
	assert.Equal(t, "cart", state.Group(1))

	state, ok = f.AppliesTo(urlRequest("ftp://shop.example.com/cart"))
	assert.False(t, ok)
	assert.Nil(t, state)
}

func TestExcludeInversion(t *testing.T) {
	f := newURLFilter(t, "abc", true, 0)

	state, ok := f.AppliesTo(urlRequest("xyz"))
	assert.True(t, ok, "exclude filter applies when the pattern does not match")
	assert.Nil(t, state, "exclude filters never produce captures")

	_, ok = f.AppliesTo(urlRequest("abc"))
	assert.False(t, ok, "exclude filter does not apply when the pattern matches")
}

func TestIdempotentCaching(t *testing.T) {
	f := newURLFilter(t, `/(\w+)\.html`, false, DefaultCacheSize)
	req := urlRequest("https://x/product.html")

	first, ok := f.AppliesTo(req)
	require.True(t, ok)
	require.NotNil(t, first)

	second, ok := f.AppliesTo(req)
	require.True(t, ok)
	require.NotNil(t, second)

	assert.Same(t, first, second, "a cache hit must return the stored result")
	assert.Equal(t, first.Group(1), second.Group(1))
	assert.Equal(t, 1, f.fullMatches, "the capturing matcher must run at most once per distinct text")
}

func TestNegativeResultRoundTrip(t *testing.T) {
	f := newURLFilter(t, "nomatch", false, DefaultCacheSize)
	req := urlRequest("something else")

	for i := 0; i < 2; i++ {
		state, ok := f.AppliesTo(req)
		assert.False(t, ok, "call %d", i+1)
		assert.Nil(t, state, "call %d", i+1)
	}
	assert.Zero(t, f.fullMatches)
}

func TestCachedExcludeOutcome(t *testing.T) {
	f := newURLFilter(t, "abc", true, DefaultCacheSize)

	for i := 0; i < 2; i++ {
		_, ok := f.AppliesTo(urlRequest("xyz"))
		assert.True(t, ok)
		_, ok = f.AppliesTo(urlRequest("abc"))
		assert.False(t, ok)
	}
	assert.Zero(t, f.fullMatches, "exclude filters never invoke the capturing matcher")
}

func TestCacheDisabledReEvaluates(t *testing.T) {
	f := newURLFilter(t, `(\w+)`, false, 0)
	req := urlRequest("hello")

	first, ok := f.AppliesTo(req)
	require.True(t, ok)
	second, ok := f.AppliesTo(req)
	require.True(t, ok)

	assert.NotSame(t, first, second, "without a cache every call produces a fresh result")
	assert.Equal(t, 2, f.fullMatches)
}

func TestCacheEvictionKeepsFilterCorrect(t *testing.T) {
	f := newURLFilter(t, `/(\d+)`, false, 2)

	// Cycle more distinct texts than the cache holds; verdicts must
	// stay correct regardless of eviction.
	for round := 0; round < 3; round++ {
		for i := 0; i < 5; i++ {
			url := fmt.Sprintf("https://x/%d", i)
			state, ok := f.AppliesTo(urlRequest(url))
			require.True(t, ok, "url %s", url)
			assert.Equal(t, fmt.Sprint(i), state.Group(1))
		}
	}
}

func TestReplacementTextPassthrough(t *testing.T) {
	tests := []struct {
		name  string
		regex string
		excl  bool
		group int
	}{
		{name: "group -1", regex: `/(\w+)`, excl: false, group: -1},
		{name: "exclude filter", regex: "abc", excl: true, group: 1},
		{name: "blank pattern", regex: "", excl: false, group: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newURLFilter(t, tt.regex, tt.excl, 0)
			req := urlRequest("https://x/raw-text")

			state, _ := f.AppliesTo(req)
			got, err := f.ReplacementText(req, tt.group, state)
			require.NoError(t, err)
			assert.Equal(t, "https://x/raw-text", got)
		})
	}
}

func TestReplacementTextExtractsGroup(t *testing.T) {
	f := newURLFilter(t, `^https://([^/]+)/(\w+)`, false, 0)
	req := urlRequest("https://shop.example.com/cart")

	state, ok := f.AppliesTo(req)
	require.True(t, ok)

	got, err := f.ReplacementText(req, 0, state)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/cart", got)

	got, err = f.ReplacementText(req, 1, state)
	require.NoError(t, err)
	assert.Equal(t, "shop.example.com", got)

	got, err = f.ReplacementText(req, 2, state)
	require.NoError(t, err)
	assert.Equal(t, "cart", got)
}

func TestReplacementTextNonParticipatingGroup(t *testing.T) {
	f := newURLFilter(t, `(foo)|(bar)`, false, 0)
	req := urlRequest("bar")

	state, ok := f.AppliesTo(req)
	require.True(t, ok)

	got, err := f.ReplacementText(req, 1, state)
	require.NoError(t, err)
	assert.Equal(t, "", got, "a group that did not participate yields the empty string")
}

func TestReplacementTextOutOfRange(t *testing.T) {
	f := newURLFilter(t, `/(\w+)`, false, 0)
	req := urlRequest("https://x/page")

	state, ok := f.AppliesTo(req)
	require.True(t, ok)

	_, err := f.ReplacementText(req, 5, state)
	require.Error(t, err)

	var cge *CaptureGroupError
	require.ErrorAs(t, err, &cge)
	assert.Equal(t, 5, cge.Group)
	assert.Equal(t, "https://x/page", cge.Text)
	assert.Equal(t, `/(\w+)`, cge.Pattern)
	assert.Contains(t, cge.Error(), `/(\w+)`)
	assert.Contains(t, cge.Error(), "5")
}

func TestMatchStateSpan(t *testing.T) {
	f := newURLFilter(t, `cart`, false, 0)
	req := urlRequest("https://x/cart/add")

	state, ok := f.AppliesTo(req)
	require.True(t, ok)
	assert.Equal(t, 10, state.Start())
	assert.Equal(t, 14, state.End())
	assert.Equal(t, 0, state.GroupCount())
}

func TestAccessors(t *testing.T) {
	f := newURLFilter(t, "abc", true, 0)

	assert.Equal(t, "u", f.TypeCode())
	assert.Equal(t, FieldURL, f.Field())
	assert.Equal(t, "abc", f.Pattern())
	assert.False(t, f.Empty())
	assert.True(t, f.Exclude())
	assert.Equal(t, "{ type: 'u', pattern: 'abc', isExclude: true }", f.String())
}

func TestEmptyFilterAccessors(t *testing.T) {
	f := newURLFilter(t, "", false, 0)

	assert.Equal(t, "", f.Pattern())
	assert.True(t, f.Empty())
	assert.False(t, f.Exclude())
}

func TestErrorIsNotSwallowedByErrorsIs(t *testing.T) {
	err := error(&CaptureGroupError{Group: 2, Text: "t", Pattern: "p"})

	var cge *CaptureGroupError
	assert.True(t, errors.As(err, &cge))
}
