package document

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseYAMLNested(t *testing.T) {
	src := "bear:\n  polar: white\n  brown: ~\nlist:\n  - a\n  - b\nn: 3\n"
	v, root, err := ParseYAML([]byte(src))
	require.NoError(t, err)
	require.NotNil(t, root)
	require.Equal(t, yaml.MappingNode, root.Kind)
	require.Equal(t, Mapping(
		E("bear", Mapping(E("polar", Scalar("white")), E("brown", Null()))),
		E("list", Array(Scalar("a"), Scalar("b"))),
		E("n", Scalar("3")),
	), v)
}

func TestParseYAMLAliasAndMerge(t *testing.T) {
	src := "base: &base\n  a: 1\n  b: 2\nchild:\n  <<: *base\n  b: 3\n  c: 4\n"
	v, _, err := ParseYAML([]byte(src))
	require.NoError(t, err)
	child, ok := v.Lookup("child")
	require.True(t, ok)
	require.Equal(t, Mapping(E("a", Scalar("1")), E("b", Scalar("3")), E("c", Scalar("4"))), child)
}

func TestParseYAMLEmpty(t *testing.T) {
	v, root, err := ParseYAML(nil)
	require.NoError(t, err)
	require.Nil(t, root)
	require.Equal(t, KindNull, v.Kind)
}

func TestParseYAMLMalformed(t *testing.T) {
	_, _, err := ParseYAML([]byte("a: [1, 2\n"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseYAMLBoundsAliasExpansion(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("l0: &l0 [lol, lol, lol, lol, lol, lol, lol, lol, lol, lol]\n")
	for i := 1; i <= 8; i++ {
		ref := fmt.Sprintf("*l%d", i-1)
		refs := strings.TrimSuffix(strings.Repeat(ref+", ", 10), ", ")
		fmt.Fprintf(&sb, "l%d: &l%d [%s]\n", i, i, refs)
	}
	_, _, err := ParseYAML([]byte(sb.String()))
	require.ErrorIs(t, err, ErrMalformed)
	require.ErrorIs(t, err, errYAMLTooLarge)
}

func TestParseYAMLSharedAnchorWithinBudget(t *testing.T) {
	src := "greeting: &g\n  hello: hi\n  bye: ciao\nen: *g\nde: *g\n"
	v, _, err := ParseYAML([]byte(src))
	require.NoError(t, err)
	de, ok := v.Lookup("de")
	require.True(t, ok)
	require.Equal(t, Mapping(E("hello", Scalar("hi")), E("bye", Scalar("ciao"))), de)
}
