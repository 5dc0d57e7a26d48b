package theaterid

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestActorIdRoundTrip(t *testing.T) {
	t.Parallel()

	id := NewActorId()

	parsed, err := ParseActorId(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestActorIdUniqueness(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewActorId()
		require.False(t, seen[id.String()], "actor id collision")
		seen[id.String()] = true
	}
}

func TestParseActorIdRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseActorId("not-a-uuid")
	require.Error(t, err)
}

// TestContentRefEqualityIsContentEquality checks the property from spec §3:
// ContentRef equality is equivalent to content equality.
func TestContentRefEqualityIsContentEquality(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		a := []byte(rapid.String().Draw(t, "a"))
		b := []byte(rapid.String().Draw(t, "b"))

		refA1 := HashContent(a)
		refA2 := HashContent(a)
		refB := HashContent(b)

		require.Equal(t, refA1, refA2, "hashing the same bytes twice must "+
			"yield the same ref")

		if string(a) != string(b) {
			require.NotEqual(t, refA1, refB, "different content must "+
				"produce different refs (modulo SHA-1 collision)")
		}
	})
}

func TestContentRefParseRoundTrip(t *testing.T) {
	t.Parallel()

	ref := HashContent([]byte("hello, theater"))

	parsed, err := ParseContentRef(ref.String())
	require.NoError(t, err)
	require.Equal(t, ref, parsed)
}

func TestParseContentRefRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"not-hex",
		"deadbeef",                                   // too short
		"DEADBEEF00000000000000000000000000000000",  // uppercase
		"deadbeef000000000000000000000000000000000", // too long
	}

	for _, c := range cases {
		_, err := ParseContentRef(c)
		require.Errorf(t, err, "expected error for input %q", c)
	}
}

func TestConventionalLabels(t *testing.T) {
	t.Parallel()

	id := NewActorId()

	require.Equal(t, id.String()+":chain-head", ChainHeadLabel(id).String())
	require.Equal(t, "actor:"+id.String()+":state", StateLabel(id).String())
}
