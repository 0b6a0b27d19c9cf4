package recommend

import (
	"fmt"
	"math/rand"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comigor/bodi-go/internal/catalog"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"dedup keeps first occurrence", "see LAG-001 and ABJ-002 and LAG-001 again", []string{"LAG-001", "ABJ-002"}},
		{"no matches", "nothing to see here", []string{}},
		{"empty", "", []string{}},
		{"case sensitive", "lag-001 Lag-001 LAG-001", []string{"LAG-001"}},
		{"bold and punctuation", "- **LAG-015**: studio. (ABJ-002), IBA-020!", []string{"LAG-015", "ABJ-002", "IBA-020"}},
		{"wrong widths rejected", "LAGO-001 LA-001 LAG-0012 LAG-01", []string{}},
		{"adjacent word characters rejected", "xLAG-001 LAG-001x", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Extract(tt.in))
		})
	}
}

func TestValidIdentifier(t *testing.T) {
	require.True(t, ValidIdentifier("POR-100"))
	require.False(t, ValidIdentifier(" POR-100"))
	require.False(t, ValidIdentifier("POR-100,LAG-001"))
	require.False(t, ValidIdentifier("por-100"))
}

func testSnapshot() *catalog.Snapshot {
	return catalog.NewSnapshot([]catalog.Entry{
		{ID: "LAG-001", Title: "A"},
		{ID: "LAG-002", Title: "B"},
		{ID: "ABJ-003", Title: "C"},
	})
}

// TestCorrelate_DropsDangling never returns an entry missing from the catalog.
func TestCorrelate_DropsDangling(t *testing.T) {
	snap := catalog.NewSnapshot([]catalog.Entry{{ID: "LAG-001", Title: "A"}})
	set := Correlate([]string{"LAG-001", "XYZ-999"}, snap)
	require.Len(t, set, 1)
	require.Equal(t, "A", set[0].Title)
}

func TestCorrelate_OrderAndStats(t *testing.T) {
	set, stats := CorrelateWithStats([]string{"ABJ-003", "NOP-404", "LAG-001", "ABJ-003"}, testSnapshot())
	require.Equal(t, []string{"ABJ-003", "LAG-001"}, set.IDs())
	require.Equal(t, Stats{Requested: 4, Resolved: 2, Dangling: []string{"NOP-404"}}, stats)

	require.Empty(t, Correlate(nil, testSnapshot()))
	require.Empty(t, Correlate([]string{"LAG-001"}, catalog.Empty()))
}

// TestCorrelate_Idempotent re-runs correlation on unchanged input.
func TestCorrelate_Idempotent(t *testing.T) {
	ids := Extract("LAG-002 first, then LAG-001 and NOP-000")
	snap := testSnapshot()
	require.Equal(t, Correlate(ids, snap), Correlate(ids, snap))
}

func randomID(r *rand.Rand) string {
	b := make([]byte, 3)
	for i := range b {
		b[i] = byte('A' + r.Intn(26))
	}
	return fmt.Sprintf("%s-%03d", b, r.Intn(1000))
}

// TestBridge_RoundTrip checks decode(encode(ids)) == ids for grammar ids.
func TestBridge_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for n := 0; n < 200; n++ {
		ids := make([]string, r.Intn(12))
		for i := range ids {
			ids[i] = randomID(r)
		}
		require.Equal(t, ids, Decode(Encode(ids)))
	}
}

func TestDecode_Malformed(t *testing.T) {
	require.Equal(t, []string{}, Decode(""))
	require.Equal(t, []string{}, Decode(",,, ,"))
	require.Equal(t, []string{}, Decode("%%%garbage"))
	require.Equal(t, []string{"LAG-001", "ABJ-002"}, Decode(" LAG-001 ,,junk, ABJ-002"))
}

// TestBridge_ReceivingView re-correlates a decoded token against another snapshot.
func TestBridge_ReceivingView(t *testing.T) {
	token := Encode([]string{"ABJ-003", "LAG-001", "GON-999"})

	set := Correlate(Decode(token), testSnapshot())
	require.Equal(t, []string{"ABJ-003", "LAG-001"}, set.IDs())

	other := catalog.NewSnapshot([]catalog.Entry{{ID: "KAN-001"}})
	require.Empty(t, Correlate(Decode(token), other))
}

func TestViewAllURL(t *testing.T) {
	got := ViewAllURL("/properties", []string{"LAG-001", "LAG-003"})
	require.Equal(t, "/properties?recommended=LAG-001%2CLAG-003", got)

	u, err := url.Parse(got)
	require.NoError(t, err)
	ids, present := FromQuery(u.Query())
	require.True(t, present)
	require.Equal(t, []string{"LAG-001", "LAG-003"}, ids)

	abs := ViewAllURL("http://localhost:3000/properties?verified_only=true", []string{"ABJ-002"})
	require.Equal(t, "http://localhost:3000/properties?recommended=ABJ-002&verified_only=true", abs)
}

func TestFromQuery(t *testing.T) {
	ids, present := FromQuery(url.Values{})
	require.False(t, present)
	require.Nil(t, ids)

	ids, present = FromQuery(url.Values{QueryParam: {""}})
	require.True(t, present)
	require.Empty(t, ids)
}

func TestListingPath(t *testing.T) {
	require.Equal(t, "/property/LAG-001", ListingPath("LAG-001"))
}
