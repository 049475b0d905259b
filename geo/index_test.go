package geo

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	locations, err := Load(sampleData)
	require.NoError(t, err)
	return NewIndex(locations)
}

func TestLookupMumbai(t *testing.T) {
	ix := testIndex(t)

	locs, ok := ix.Lookup([]string{"mumbai"})
	require.True(t, ok)
	require.NotEmpty(t, locs)
	assert.Equal(t, "IN", locs[0].CountryCode)
	assert.Equal(t, "Asia/Kolkata", locs[0].Timezone)
}

func TestLookupCountryFilter(t *testing.T) {
	ix := testIndex(t)

	tests := []struct {
		name    string
		tokens  []string
		country string
		miss    bool
	}{
		{name: "uk alias", tokens: []string{"london", "uk"}, country: "GB"},
		{name: "iso code", tokens: []string{"london", "gb"}, country: "GB"},
		{name: "other country", tokens: []string{"london", "ca"}, country: "CA"},
		{name: "slash form", tokens: []string{"london/uk"}, country: "GB"},
		{name: "no such country", tokens: []string{"london", "xx"}, miss: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locs, ok := ix.Lookup(tt.tokens)
			if tt.miss {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			for _, loc := range locs {
				assert.Equal(t, tt.country, loc.CountryCode)
			}
		})
	}
}

func TestLookupPopulationOrder(t *testing.T) {
	ix := testIndex(t)

	// Unfiltered london: the GB London (pop 8.9M) outranks the CA one.
	locs, ok := ix.Lookup([]string{"london"})
	require.True(t, ok)
	require.Len(t, locs, 2)
	assert.Equal(t, "GB", locs[0].CountryCode)
	assert.Equal(t, "CA", locs[1].CountryCode)

	// Same ascii name, different populations: higher population first.
	locs, ok = ix.Lookup([]string{"springfield"})
	require.True(t, ok)
	require.Len(t, locs, 2)
	assert.Greater(t, locs[0].Population, locs[1].Population)
}

func TestLookupMultiWordName(t *testing.T) {
	ix := testIndex(t)

	// "new york" is an alternate name of New York City; the space is
	// irrelevant after key cleaning.
	for _, tokens := range [][]string{{"new york"}, {"newyork"}, {"nyc"}} {
		locs, ok := ix.Lookup(tokens)
		require.True(t, ok, "tokens %v", tokens)
		assert.Equal(t, "New York City", locs[0].ASCIIName)
	}
}

func TestLookupTimezoneCityAlias(t *testing.T) {
	ix := testIndex(t)

	// Every Asia/Kolkata city answers to "kolkata"; Mumbai has the
	// largest population so it comes first.
	locs, ok := ix.Lookup([]string{"kolkata"})
	require.True(t, ok)
	assert.Equal(t, "Mumbai", locs[0].ASCIIName)
}

func TestLookupTimezoneID(t *testing.T) {
	ix := testIndex(t)

	locs, ok := ix.Lookup([]string{"asia/kolkata"})
	require.True(t, ok)
	require.Len(t, locs, 3)
	assert.Equal(t, "Mumbai", locs[0].ASCIIName)

	_, ok = ix.Lookup([]string{"asia/nowhere"})
	assert.False(t, ok)
}

func TestLookupMiss(t *testing.T) {
	ix := testIndex(t)

	_, ok := ix.Lookup([]string{"atlantis"})
	assert.False(t, ok)

	_, ok = ix.Lookup(nil)
	assert.False(t, ok)
}

func TestLookupDeterminism(t *testing.T) {
	ix := testIndex(t)

	first, ok := ix.Lookup([]string{"springfield"})
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := ix.Lookup([]string{"springfield"})
		require.True(t, ok)
		require.Equal(t, first, again)
	}
}

func TestNearest(t *testing.T) {
	ix := testIndex(t)

	loc, ok := ix.Nearest(12.97, 77.59)
	require.True(t, ok)
	assert.Equal(t, "Bengaluru", loc.ASCIIName)

	// Middle of the Atlantic: nothing within range.
	_, ok = ix.Nearest(0, -30)
	assert.False(t, ok)
}

func TestConcurrentLookups(t *testing.T) {
	ix := testIndex(t)

	queries := [][]string{
		{"mumbai"}, {"london", "uk"}, {"springfield"}, {"new york"}, {"atlantis"},
	}

	type result struct {
		locs []*Location
		ok   bool
	}
	want := make([]result, len(queries))
	for i, q := range queries {
		locs, ok := ix.Lookup(q)
		want[i] = result{locs, ok}
	}

	var wg sync.WaitGroup
	for g := 0; g < 32; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, q := range queries {
				locs, ok := ix.Lookup(q)
				assert.Equal(t, want[i].ok, ok)
				assert.Equal(t, want[i].locs, locs)
			}
		}()
	}
	wg.Wait()
}

func TestIndexTotality(t *testing.T) {
	locations, err := Load(sampleData)
	require.NoError(t, err)
	ix := NewIndex(locations)

	assert.Equal(t, len(locations), ix.Count())

	// Every loaded location is reachable through byTimezone under its
	// own zone.
	for _, loc := range locations {
		locs, ok := ix.Lookup([]string{loc.Timezone})
		require.True(t, ok, "timezone %s", loc.Timezone)
		assert.Contains(t, locs, loc)
	}
}

func TestEmptyIndex(t *testing.T) {
	ix := NewIndex(nil)
	assert.Equal(t, 0, ix.Count())

	_, ok := ix.Lookup([]string{"mumbai"})
	assert.False(t, ok)
	_, ok = ix.Nearest(12.97, 77.59)
	assert.False(t, ok)
}
