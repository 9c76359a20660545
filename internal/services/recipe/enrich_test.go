package recipe

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/socialchef/leftovers/internal/services/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(ctx context.Context, keywords string) string

func (f resolverFunc) Resolve(ctx context.Context, keywords string) string { return f(ctx, keywords) }

func sampleRecipes() []Recipe {
	return []Recipe{
		{RecipeName: "A", ImageKeywords: "fried rice"},
		{RecipeName: "B", ImageKeywords: "chicken soup"},
		{RecipeName: "C", ImageKeywords: "banana bread"},
	}
}

func TestEnricher_PreservesOrderAndIdentity(t *testing.T) {
	resolver := resolverFunc(func(ctx context.Context, keywords string) string {
		if keywords == "fried rice" {
			time.Sleep(20 * time.Millisecond)
		}
		return "https://img.example/" + keywords
	})

	in := sampleRecipes()
	out := NewEnricher(resolver).Enrich(context.Background(), in)

	require.Len(t, out, 3)
	for i := range in {
		assert.Equal(t, in[i].RecipeName, out[i].RecipeName)
		assert.Equal(t, "https://img.example/"+in[i].ImageKeywords, out[i].ImageURL)
	}
	assert.Empty(t, in[0].ImageURL, "input must not be mutated")
}

func TestEnricher_RunsConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32
	resolver := resolverFunc(func(ctx context.Context, keywords string) string {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		inFlight.Add(-1)
		return "u"
	})

	NewEnricher(resolver).Enrich(context.Background(), sampleRecipes())
	assert.Equal(t, int32(3), peak.Load())
}

func TestEnricher_IsolatesFailures(t *testing.T) {
	resolver := resolverFunc(func(ctx context.Context, keywords string) string {
		switch keywords {
		case "chicken soup":
			panic("image backend exploded")
		case "banana bread":
			return ""
		default:
			return "https://img.example/ok.jpg"
		}
	})

	out := NewEnricher(resolver).Enrich(context.Background(), sampleRecipes())

	require.Len(t, out, 3)
	assert.Equal(t, "https://img.example/ok.jpg", out[0].ImageURL)
	assert.Equal(t, images.FallbackURL("chicken soup"), out[1].ImageURL)
	assert.Equal(t, images.FallbackURL("banana bread"), out[2].ImageURL)
}

func TestEnricher_Empty(t *testing.T) {
	out := NewEnricher(resolverFunc(func(ctx context.Context, k string) string { return "x" })).Enrich(context.Background(), nil)
	assert.Empty(t, out)
}
