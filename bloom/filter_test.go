package bloom_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/sitecrawl/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_AddAndTest(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.Test("https://example.com/about/"))

	f.Add("https://example.com/about/")

	assert.True(t, f.Test("https://example.com/about/"))
	assert.False(t, f.Test("https://example.com/contact/"))
}

func TestFilter_TestAndAdd(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.TestAndAdd("https://example.com/a/"), "first sighting is never present")
	assert.True(t, f.TestAndAdd("https://example.com/a/"), "second sighting is present")
	assert.True(t, f.Test("https://example.com/a/"))
}

func TestFilter_EstimatedCount(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)
	assert.Equal(t, uint(0), f.EstimatedCount())

	f.Add("https://example.com/a/")
	f.Add("https://example.com/b/")
	f.Add("https://example.com/c/")

	count := f.EstimatedCount()
	assert.True(t, count >= 2 && count <= 4, "expected count near 3, got %d", count)
}

func TestFilter_no_false_negatives(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(100, 0.01)

	// Overfill the filter well past its sizing; negatives must stay exact.
	for i := range 5000 {
		f.Add(fmt.Sprintf("https://example.com/p/%d/", i))
	}
	for i := range 5000 {
		assert.True(t, f.Test(fmt.Sprintf("https://example.com/p/%d/", i)))
	}
}

func TestFilter_FalsePositiveRate(t *testing.T) {
	t.Parallel()

	const (
		numItems   = 10000
		fpRate     = 0.01
		testProbes = 10000
	)

	f := bloom.NewFilter(numItems, fpRate)
	for i := range numItems {
		f.Add(fmt.Sprintf("https://example.com/added/%d/", i))
	}

	falsePositives := 0
	for i := range testProbes {
		if f.Test(fmt.Sprintf("https://example.com/notadded/%d/", i)) {
			falsePositives++
		}
	}

	// Allow up to 2% to account for statistical variance.
	actualRate := float64(falsePositives) / float64(testProbes)
	assert.Less(t, actualRate, 0.02, "false positive rate %f exceeds 2%%", actualRate)
}
