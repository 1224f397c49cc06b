// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"slices"
	"testing"
)

func TestDirectBinaryArgv(t *testing.T) {
	t.Parallel()

	p := DirectBinary("/opt/tool/build/tool", 0o755)

	if p.Kind() != KindDirectBinary {
		t.Fatalf("Kind() = %v, want %v", p.Kind(), KindDirectBinary)
	}
	path, mode, ok := p.Binary()
	if !ok || path != "/opt/tool/build/tool" || mode != 0o755 {
		t.Errorf("Binary() = %q, %o, %v", path, mode, ok)
	}
	if _, ok := p.Toolchain(); ok {
		t.Error("Toolchain() should report false for a binary plan")
	}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "no args", args: nil, want: []string{"/opt/tool/build/tool"}},
		{name: "plain", args: []string{"serve", "--port", "80"}, want: []string{"/opt/tool/build/tool", "serve", "--port", "80"}},
		{name: "whitespace and metacharacters", args: []string{"a b", "$HOME", "x;y|z", ""}, want: []string{"/opt/tool/build/tool", "a b", "$HOME", "x;y|z", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := p.Argv(tt.args); !slices.Equal(got, tt.want) {
				t.Errorf("Argv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToolchainSourceArgvOrder(t *testing.T) {
	t.Parallel()

	p := ToolchainSource(Toolchain{
		Command:    "go",
		RunArgs:    []string{"run"},
		EntryPoint: "/opt/tool/cmd/tool",
	})

	got := p.Argv([]string{"--flag", "value with space"})
	want := []string{"go", "run", "/opt/tool/cmd/tool", "--flag", "value with space"}
	if !slices.Equal(got, want) {
		t.Errorf("Argv() = %q, want %q", got, want)
	}
	if _, _, ok := p.Binary(); ok {
		t.Error("Binary() should report false for a toolchain plan")
	}
}

func TestToolchainSourceDirFlag(t *testing.T) {
	t.Parallel()

	p := ToolchainSource(Toolchain{
		Command:    "go",
		DirFlag:    "-C",
		Dir:        "/opt/tool",
		RunArgs:    []string{"run"},
		EntryPoint: "./cmd/tool",
	})
	want := []string{"go", "-C", "/opt/tool", "run", "./cmd/tool", "-v"}
	if got := p.Argv([]string{"-v"}); !slices.Equal(got, want) {
		t.Errorf("Argv() = %q, want %q", got, want)
	}

	// A flag without a directory is dropped rather than emitted dangling.
	p = ToolchainSource(Toolchain{Command: "go", DirFlag: "-C", RunArgs: []string{"run"}, EntryPoint: "/src"})
	if got := p.Argv(nil); !slices.Equal(got, []string{"go", "run", "/src"}) {
		t.Errorf("Argv() without Dir = %q", got)
	}
}

func TestToolchainSourceWithLauncher(t *testing.T) {
	t.Parallel()

	p := ToolchainSource(Toolchain{
		Launcher:   []string{"flatpak-spawn", "--host"},
		Command:    "go",
		RunArgs:    []string{"run", "-trimpath"},
		EntryPoint: "example.com/tool/cmd/tool@latest",
	})

	got := p.Argv([]string{"x"})
	want := []string{"flatpak-spawn", "--host", "go", "run", "-trimpath", "example.com/tool/cmd/tool@latest", "x"}
	if !slices.Equal(got, want) {
		t.Errorf("Argv() = %q, want %q", got, want)
	}
}

func TestPlanIsImmutable(t *testing.T) {
	t.Parallel()

	runArgs := []string{"run"}
	p := ToolchainSource(Toolchain{Command: "go", RunArgs: runArgs, EntryPoint: "/src"})
	runArgs[0] = "build"

	tc, _ := p.Toolchain()
	tc.RunArgs[0] = "vet"

	if got := p.Argv(nil); !slices.Equal(got, []string{"go", "run", "/src"}) {
		t.Errorf("plan changed through shared slices: %q", got)
	}

	args := []string{"a"}
	argv := p.Argv(args)
	argv[len(argv)-1] = "changed"
	if args[0] != "a" {
		t.Error("Argv() must not alias the caller's args")
	}
}

func TestCommandLine(t *testing.T) {
	t.Parallel()

	p := DirectBinary("/opt/my tool/bin/tool", 0)
	got := p.CommandLine([]string{"plain", "a b", "$HOME", ""})
	want := `'/opt/my tool/bin/tool' plain 'a b' '$HOME' ''`
	if got != want {
		t.Errorf("CommandLine() = %s, want %s", got, want)
	}
}

func TestZeroPlan(t *testing.T) {
	t.Parallel()

	var p Plan
	if !p.IsZero() || p.Kind().String() != "invalid" {
		t.Errorf("zero plan: IsZero=%v Kind=%v", p.IsZero(), p.Kind())
	}
	if argv := p.Argv([]string{"x"}); argv != nil {
		t.Errorf("Argv() = %q, want nil", argv)
	}
	if p.String() != "invalid plan" {
		t.Errorf("String() = %q", p.String())
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	if KindDirectBinary.String() != "binary" || KindToolchainSource.String() != "toolchain" {
		t.Errorf("unexpected kind names: %s, %s", KindDirectBinary, KindToolchainSource)
	}
}
