package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type provider string

func (p provider) Name() string { return string(p) }

func TestResolve(t *testing.T) {
	t.Parallel()

	r := New[provider]()
	r.Register(provider("Messari"))
	r.Register(provider("cryptorank"))

	got, err := r.Resolve(" messari ")
	require.NoError(t, err)
	assert.Equal(t, provider("Messari"), got)

	_, err = r.Resolve("coingecko")
	assert.ErrorContains(t, err, "known: cryptorank, messari")
}

func TestResolveAll(t *testing.T) {
	t.Parallel()

	r := New[provider]()
	r.Register(provider("messari"))
	r.Register(provider("cryptorank"))

	all, err := r.ResolveAll(nil)
	require.NoError(t, err)
	assert.Equal(t, []provider{"cryptorank", "messari"}, all)

	picked, err := r.ResolveAll([]string{"messari", "MESSARI"})
	require.NoError(t, err)
	assert.Equal(t, []provider{"messari"}, picked)

	_, err = r.ResolveAll([]string{"messari", "dune"})
	assert.Error(t, err)
}
