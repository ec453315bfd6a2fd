package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKinds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Kind
		wantErr bool
	}{
		{name: "empty selects report", input: "", want: ReportKinds},
		{name: "all", input: "ALL", want: ReportKinds},
		{name: "list", input: "var, trade", want: []Kind{KindVaR, KindTrade}},
		{name: "duplicates dropped", input: "rates,Rates,var", want: []Kind{KindRates, KindVaR}},
		{name: "unknown", input: "var,garch", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKinds(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKinds_ReturnsCopy(t *testing.T) {
	got, err := ParseKinds("all")
	require.NoError(t, err)
	got[0] = KindTrade
	assert.Equal(t, KindVaR, ReportKinds[0])
}

type stubAnalysis struct {
	kind Kind
	err  error
}

func (s stubAnalysis) Kind() Kind { return s.kind }

func (s stubAnalysis) Run(ctx context.Context, env *Env) (*Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Result{Kind: s.kind}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubAnalysis{kind: KindRates}))
	require.NoError(t, r.Register(stubAnalysis{kind: KindVaR}))
	assert.Error(t, r.Register(stubAnalysis{kind: KindVaR}))

	a, err := r.Get(KindRates)
	require.NoError(t, err)
	assert.Equal(t, KindRates, a.Kind())

	_, err = r.Get(KindTrade)
	assert.Error(t, err)

	assert.Equal(t, []Kind{KindRates, KindVaR}, r.Kinds())
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	for _, k := range append(ReportKinds, KindTrade) {
		a, err := r.Get(k)
		require.NoError(t, err, k)
		assert.Equal(t, k, a.Kind())
	}
}
