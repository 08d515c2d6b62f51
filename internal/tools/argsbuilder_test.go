package tools_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x6d61/cybersec-ai/internal/tools"
)

func TestTemplateBuilder_OptionsThenTarget(t *testing.T) {
	b := tools.TemplateBuilder{Template: "{options} {target!}"}

	got := b.BuildArguments(tools.Inputs{Target: "123.123.123.123", Options: []string{"-sV", "-p-"}})
	assert.Equal(t, []string{"-sV", "-p-", "123.123.123.123"}, got)
}

func TestTemplateBuilder_SubcommandAndURL(t *testing.T) {
	b := tools.TemplateBuilder{Template: "dir -u {url!} {options}"}

	got := b.BuildArguments(tools.Inputs{Target: "123.123.123.123", Options: []string{"-w", "/path/to/wordlist.txt"}})
	assert.Equal(t, []string{"dir", "-u", "http://123.123.123.123", "-w", "/path/to/wordlist.txt"}, got)
}

func TestTemplateBuilder_URLKeepsExistingScheme(t *testing.T) {
	b := tools.TemplateBuilder{Template: "dir -u {url!}"}

	got := b.BuildArguments(tools.Inputs{Target: "https://example.com"})
	assert.Equal(t, []string{"dir", "-u", "https://example.com"}, got)
}

func TestTemplateBuilder_MissingOptionalKeyDropsGroup(t *testing.T) {
	// options が無い → "-x {options}" グループを丸ごと除去
	b := tools.TemplateBuilder{Template: "-x {options} {target}"}

	got := b.BuildArguments(tools.Inputs{Target: "10.0.0.5"})
	assert.Equal(t, []string{"10.0.0.5"}, got)
}

func TestTemplateBuilder_OptionWithSpacesStaysOneToken(t *testing.T) {
	b := tools.TemplateBuilder{Template: "{options} {target}"}

	got := b.BuildArguments(tools.Inputs{Target: "10.0.0.5", Options: []string{"-w", "/lists/my list.txt"}})
	assert.Equal(t, []string{"-w", "/lists/my list.txt", "10.0.0.5"}, got)
}

func TestTemplateBuilder_EmbeddedPlaceholder(t *testing.T) {
	b := tools.TemplateBuilder{Template: "--url={url!}"}

	got := b.BuildArguments(tools.Inputs{Target: "10.0.0.5"})
	assert.Equal(t, []string{"--url=http://10.0.0.5"}, got)
}

func TestTemplateBuilder_EmptyTemplate(t *testing.T) {
	b := tools.TemplateBuilder{}

	assert.Equal(t, []string{"-h", "10.0.0.5"}, b.BuildArguments(tools.Inputs{Target: "10.0.0.5", Options: []string{"-h"}}))
	assert.Empty(t, b.BuildArguments(tools.Inputs{}))
}

func TestTemplateBuilder_Validate(t *testing.T) {
	b := tools.TemplateBuilder{Template: "-sV {target!}"}
	require.Error(t, b.Validate(tools.Inputs{}), "missing required key")
	require.NoError(t, b.Validate(tools.Inputs{Target: "10.0.0.5"}))

	unknown := tools.TemplateBuilder{Template: "{ports} {target}"}
	require.Error(t, unknown.Validate(tools.Inputs{Target: "10.0.0.5"}))
}

func TestTemplateBuilder_IsPure(t *testing.T) {
	b := tools.TemplateBuilder{Template: "{options} {target!}"}
	opts := []string{"-sV"}
	in := tools.Inputs{Target: "10.0.0.5", Options: opts}

	first := b.BuildArguments(in)
	second := b.BuildArguments(in)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"-sV"}, opts, "inputs must not be modified")
}
