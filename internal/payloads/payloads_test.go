package payloads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLoaded(t *testing.T) {
	groups := Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, KindSQLi, groups[0].Kind)
	assert.Len(t, groups[0].Payloads, 20)
	assert.Equal(t, KindXSS, groups[1].Kind)
	assert.Len(t, groups[1].Payloads, 20)
}

func TestList(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindAll, 40},
		{"", 40},
		{KindSQLi, 20},
		{KindXSS, 20},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			entries, err := List(tt.kind)
			require.NoError(t, err)
			assert.Len(t, entries, tt.want)
		})
	}

	_, err := List("csrf")
	assert.Error(t, err)
}

func TestSample(t *testing.T) {
	assert.Equal(t, "' OR '1'='1", Sample(KindSQLi))
	assert.Equal(t, "<script>alert('xss')</script>", Sample(KindXSS))
	assert.Empty(t, Sample("csrf"))
}

func TestGroupsReturnsCopy(t *testing.T) {
	groups := Groups()
	groups[0].Payloads[0] = "changed"
	assert.Equal(t, "' OR '1'='1", Sample(KindSQLi))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" XSS ")
	require.NoError(t, err)
	assert.Equal(t, KindXSS, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindAll, k)
}
