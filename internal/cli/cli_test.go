package cli

import (
	"io"
	"slices"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{"serve", "layout", "export", "browse", "completion"}
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}

	for _, name := range want {
		if !slices.Contains(got, name) {
			t.Errorf("subcommand %q not registered (have %v)", name, got)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "Empty", input: "", want: []string{"svg"}},
		{name: "Single", input: "png", want: []string{"png"}},
		{name: "Multiple", input: "svg,png,pdf", want: []string{"svg", "png", "pdf"}},
		{name: "Spaces", input: "svg, png", want: []string{"svg", "png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseFormats(tt.input); !slices.Equal(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
