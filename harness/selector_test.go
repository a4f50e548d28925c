package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-test/component"
)

func nullaryExport(name string) Export {
	return Export{Name: name, Sort: component.SortFunc, Signature: &component.Signature{}}
}

func TestListExportsSorted(t *testing.T) {
	ct := &component.ComponentType{Exports: []component.ExternItem{
		{Name: "test-c", Sort: component.SortFunc, Func: &component.Signature{}},
		{Name: "test-a", Sort: component.SortFunc, Func: &component.Signature{}},
		{Name: "helper", Sort: component.SortInstance},
		{Name: "test-b", Sort: component.SortFunc, Func: &component.Signature{}},
	}}

	exports := ListExports(ct)
	var names []string
	for _, e := range exports {
		names = append(names, e.Name)
	}
	require.Equal(t, []string{"helper", "test-a", "test-b", "test-c"}, names)
	require.False(t, exports[0].IsFunc())
	require.True(t, exports[1].IsFunc())
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		exports []string
		want    []string
	}{
		{"empty", nil, nil},
		{"no tests", []string{"helper", "run"}, nil},
		{"prefix only", []string{"helper-func", "test-addition-works"}, []string{"addition-works"}},
		{"bare prefix", []string{"test-"}, []string{""}},
		{"case sensitive", []string{"Test-a", "testa", "test-a"}, []string{"a"}},
		{"order preserved", []string{"test-b", "test-a"}, []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exports []Export
			for _, n := range tt.exports {
				exports = append(exports, nullaryExport(n))
			}
			var got []string
			for _, tc := range Select(exports) {
				got = append(got, tc.Name)
				require.Equal(t, TestPrefix+tc.Name, tc.Export.Name)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestMalformed(t *testing.T) {
	_, bad := TestCase{Export: nullaryExport("test-ok")}.Malformed()
	require.False(t, bad)

	reason, bad := TestCase{Export: Export{Name: "test-inst", Sort: component.SortInstance}}.Malformed()
	require.True(t, bad)
	require.Contains(t, reason, "not a function")

	sig := &component.Signature{Params: []component.NamedType{{Name: "p0", Type: wit.S32{}}}}
	reason, bad = TestCase{Export: Export{Name: "test-param", Sort: component.SortFunc, Signature: sig}}.Malformed()
	require.True(t, bad)
	require.Equal(t, "malformed test: expected func(), got func(p0: s32)", reason)
}
