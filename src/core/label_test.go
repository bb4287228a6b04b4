package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelString(t *testing.T) {
	assert.Equal(t, "src/core:core", Label{PackageName: "src/core", Name: "core"}.String())
	assert.Equal(t, ":util", Label{Name: "util"}.String())
	assert.Equal(t, "", Label{}.String())
}

func TestParseLabel(t *testing.T) {
	assert.Equal(t, Label{PackageName: "spam/eggs", Name: "ham"}, ParseLabel("spam/eggs:ham", ""))
	assert.Equal(t, Label{PackageName: "spam", Name: "ham"}, ParseLabel(":ham", "spam"))
	assert.Equal(t, Label{PackageName: "", Name: "root"}, ParseLabel(":root", ""))
}

func TestParseLabelFailures(t *testing.T) {
	for _, input := range []string{
		"",
		":",
		"no_target_name",
		"pkg:",
		"pkg:bad name",
		"/leading:x",
		"trailing/:x",
		"a//b:x",
		"pkg:na|me",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := TryParseLabel(input, "")
			assert.Error(t, err)
		})
	}
}

func TestTargetNameCharset(t *testing.T) {
	_, err := TryNewLabel("pkg", "A-Za.z0_9")
	assert.NoError(t, err)
	_, err = TryNewLabel("pkg", "bad$name")
	assert.Error(t, err)
}

func TestLabelCaseIsPreserved(t *testing.T) {
	label := ParseLabel("Pkg:Tgt", "")
	assert.Equal(t, "Pkg", label.PackageName)
	assert.Equal(t, "Tgt", label.Name)
	assert.NotEqual(t, label, ParseLabel("pkg:tgt", ""))
}

func TestParent(t *testing.T) {
	assert.Equal(t, Label{PackageName: "pkg", Name: "lib"}, Label{PackageName: "pkg", Name: "_lib#objs"}.Parent())
	label := Label{PackageName: "pkg", Name: "lib"}
	assert.Equal(t, label, label.Parent())
	assert.False(t, label.HasParent())
	assert.True(t, Label{PackageName: "pkg", Name: "_lib#objs"}.HasParent())
}

func TestIsHidden(t *testing.T) {
	assert.True(t, Label{PackageName: "pkg", Name: "_hidden"}.IsHidden())
	assert.False(t, Label{PackageName: "pkg", Name: "visible"}.IsHidden())
}

func TestUnmarshalFlag(t *testing.T) {
	var label Label
	assert.NoError(t, label.UnmarshalFlag("App:hello"))
	assert.Equal(t, Label{PackageName: "App", Name: "hello"}, label)
	assert.Error(t, label.UnmarshalFlag("nonsense"))
}

func TestMarshalTextRoundTrip(t *testing.T) {
	in := Label{PackageName: "third_party/fmt", Name: "fmt"}
	text, err := in.MarshalText()
	assert.NoError(t, err)
	var out Label
	assert.NoError(t, out.UnmarshalText(text))
	assert.Equal(t, in, out)
}
