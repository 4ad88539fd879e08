// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nagaoil/nagaoil/internal/compose"
	"github.com/nagaoil/nagaoil/internal/compose/composetest"
	"github.com/nagaoil/nagaoil/internal/discovery"
	"github.com/nagaoil/nagaoil/pkg/types"
)

const (
	utilSource = "#define_import_path my::util\n\nfn twice(x: f32) -> f32 { return x * 2.0; }\n"
	mathSource = "#define_import_path my::math\n#import my::util\n\nfn halve(x: f32) -> f32 { return x / 2.0; }\n"
	mainSource = "#import my::math\n\n@compute @workgroup_size(64, 1, 1)\nfn main() {}\n"
)

type testEnv struct {
	dir     string
	shaders string
	engine  *composetest.Engine
	stdout  bytes.Buffer
	stderr  bytes.Buffer
}

func newTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()

	env := &testEnv{dir: t.TempDir(), engine: composetest.New()}
	env.shaders = filepath.Join(env.dir, "shaders")
	if err := os.MkdirAll(env.shaders, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		path := filepath.Join(env.dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return env
}

func (e *testEnv) path(name string) string {
	return filepath.Join(e.dir, filepath.FromSlash(name))
}

func (e *testEnv) run(args ...string) types.ExitCode {
	app := NewApp(Dependencies{
		Stdout:  &e.stdout,
		Stderr:  &e.stderr,
		Engines: func(bool) compose.Engine { return e.engine },
	})
	return app.Run(context.Background(), args)
}

func defaultFiles() map[string]string {
	return map[string]string{
		"shaders/util.wgsl": utilSource,
		"shaders/math.wgsl": mathSource,
		"main.wgsl":         mainSource,
	}
}

func TestBuild_WritesStdout(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, defaultFiles())
	code := env.run(env.path("main.wgsl"), "-i", env.shaders)
	if code != types.ExitSuccess {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr.String())
	}

	if diff := cmp.Diff("wgsl\n"+mainSource, env.stdout.String()); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"my::util", "my::math"}, env.engine.Added); diff != "" {
		t.Errorf("addition order mismatch (-want +got):\n%s", diff)
	}
	if len(env.engine.OutOfOrder) != 0 {
		t.Errorf("modules added before their imports: %v", env.engine.OutOfOrder)
	}
}

func TestBuild_PassesDefinitions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, defaultFiles())
	code := env.run(env.path("main.wgsl"), "-i", env.shaders, "-d", "LIGHTS=4;SHADOWS", "-a", "LIGHTS=8u")
	if code != types.ExitSuccess {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr.String())
	}

	if len(env.engine.Entries) != 1 {
		t.Fatalf("expected one Compose call, got %d", len(env.engine.Entries))
	}
	defs := env.engine.Entries[0].Defs
	if diff := cmp.Diff([]string{"LIGHTS", "SHADOWS"}, defs.Names()); diff != "" {
		t.Errorf("definition names mismatch (-want +got):\n%s", diff)
	}
	if v, _ := defs.Lookup("LIGHTS"); v.String() != "8u" {
		t.Errorf("LIGHTS = %s, want 8u", v)
	}
}

func TestBuild_OutputFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		args   []string
		prefix string
	}{
		{name: "extension selects spir-v", output: "out.spv", prefix: "spv\n"},
		{name: "bin is spir-v", output: "out.bin", prefix: "spv\n"},
		{name: "json is naga ir", output: "out.json", prefix: "naga\n"},
		{name: "frag is glsl", output: "out.frag", prefix: "glsl\n"},
		{name: "unknown extension is wgsl", output: "out.txt", prefix: "wgsl\n"},
		{name: "explicit format wins", output: "out.spv", args: []string{"-f", "GLSL"}, prefix: "glsl\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, defaultFiles())
			out := env.path(tt.output)
			args := append([]string{env.path("main.wgsl"), "-i", env.shaders, "-o", out}, tt.args...)
			if code := env.run(args...); code != types.ExitSuccess {
				t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr.String())
			}

			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("output not written: %v", err)
			}
			if !strings.HasPrefix(string(data), tt.prefix) {
				t.Errorf("output starts with %q, want %q", data[:min(len(data), 8)], tt.prefix)
			}
			if env.stdout.Len() != 0 {
				t.Errorf("stdout should be empty when writing a file, got %q", env.stdout.String())
			}
		})
	}
}

func TestBuild_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		files      map[string]string
		target     string
		args       []string
		setup      func(*composetest.Engine)
		wantCode   types.ExitCode
		wantStderr string
		noCompose  bool
	}{
		{
			name:       "unsupported target extension",
			target:     "main.glsl",
			files:      map[string]string{"main.glsl": "void main() {}"},
			wantCode:   types.ExitFailure,
			wantStderr: "unsupported shader type",
			noCompose:  true,
		},
		{
			name:       "missing target",
			target:     "absent.wgsl",
			wantCode:   types.ExitFailure,
			wantStderr: "failed to read shader",
			noCompose:  true,
		},
		{
			name:       "missing import",
			target:     "main.wgsl",
			files:      map[string]string{"main.wgsl": "#import my::nowhere\nfn main() {}\n"},
			wantCode:   types.ExitFailure,
			wantStderr: "required import my::nowhere not found",
			noCompose:  true,
		},
		{
			name:   "import cycle",
			target: "main.wgsl",
			files: map[string]string{
				"shaders/a.wgsl": "#define_import_path a\n#import b\n",
				"shaders/b.wgsl": "#define_import_path b\n#import a\n",
				"main.wgsl":      "#import a\nfn main() {}\n",
			},
			wantCode:   types.ExitFailure,
			wantStderr: "circular dependency between modules",
			noCompose:  true,
		},
		{
			name:       "invalid definition",
			target:     "main.wgsl",
			files:      defaultFiles(),
			args:       []string{"-d", "LIGHTS=four"},
			wantCode:   types.ExitFailure,
			wantStderr: "failed to parse shader definitions",
			noCompose:  true,
		},
		{
			name:       "invalid format",
			target:     "main.wgsl",
			files:      defaultFiles(),
			args:       []string{"-f", "hlsl"},
			wantCode:   types.ExitFailure,
			wantStderr: "Run 'nagaoil explain invalid-format'",
			noCompose:  true,
		},
		{
			name:   "composition diagnostic",
			target: "main.wgsl",
			files:  defaultFiles(),
			setup: func(e *composetest.Engine) {
				e.ComposeErr = &compose.CompositionError{File: "main.wgsl", Line: 3, Message: "unknown identifier `y`"}
			},
			wantCode:   types.ExitCompositionFailed,
			wantStderr: "unknown identifier `y`",
		},
		{
			name:   "validation failure",
			target: "main.wgsl",
			files:  defaultFiles(),
			setup: func(e *composetest.Engine) {
				e.ValidateErr = &compose.ValidationError{Message: "type mismatch"}
			},
			wantCode:   types.ExitFailure,
			wantStderr: "validation failed: type mismatch",
		},
		{
			name:   "add module failure",
			target: "main.wgsl",
			files:  defaultFiles(),
			setup: func(e *composetest.Engine) {
				e.AddErr = map[string]error{"my::util": errors.New("bad module")}
			},
			wantCode:   types.ExitFailure,
			wantStderr: "bad module",
			noCompose:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, tt.files)
			if tt.setup != nil {
				tt.setup(env.engine)
			}
			args := append([]string{env.path(tt.target), "-i", env.shaders}, tt.args...)

			if code := env.run(args...); code != tt.wantCode {
				t.Fatalf("exit = %d, want %d; stderr:\n%s", code, tt.wantCode, env.stderr.String())
			}
			if !strings.Contains(env.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr does not contain %q:\n%s", tt.wantStderr, env.stderr.String())
			}
			if env.stdout.Len() != 0 {
				t.Errorf("nothing should be written on failure, got %q", env.stdout.String())
			}
			if tt.noCompose && len(env.engine.Entries) != 0 {
				t.Error("Compose should not run")
			}
		})
	}
}

func TestBuild_MissingIncludeRoot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, defaultFiles())
	code := env.run(env.path("main.wgsl"), "-i", env.shaders+";"+env.path("nope"))
	if code != types.ExitFailure {
		t.Fatalf("exit = %d, want %d", code, types.ExitFailure)
	}
	if !strings.Contains(env.stderr.String(), "nope") {
		t.Errorf("stderr should name the missing root:\n%s", env.stderr.String())
	}
}

func TestBuild_DuplicateWarning(t *testing.T) {
	t.Parallel()

	files := defaultFiles()
	files["vendor/util.wgsl"] = utilSource
	env := newTestEnv(t, files)

	code := env.run(env.path("main.wgsl"), "-i", env.shaders, "-i", env.path("vendor"))
	if code != types.ExitSuccess {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr.String())
	}
	if got := strings.Count(env.stderr.String(), "warning: duplicate definition for `my::util`"); got != 1 {
		t.Errorf("expected one duplicate warning, got %d:\n%s", got, env.stderr.String())
	}
}

func TestBuild_VerboseLogsAdditions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, defaultFiles())
	if code := env.run(env.path("main.wgsl"), "-i", env.shaders, "-v"); code != types.ExitSuccess {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr.String())
	}
	for _, want := range []string{"adding module", "my::util", "my::math"} {
		if !strings.Contains(env.stderr.String(), want) {
			t.Errorf("verbose stderr missing %q:\n%s", want, env.stderr.String())
		}
	}
}

func TestBuild_UsageErrors(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{{}, {"a.wgsl", "b.wgsl"}, {"--bogus", "a.wgsl"}} {
		env := newTestEnv(t, nil)
		if code := env.run(args...); code != types.ExitFailure {
			t.Errorf("args %q: exit = %d, want %d", args, code, types.ExitFailure)
		}
	}
}

func TestModules(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, defaultFiles())
	if code := env.run("modules", "-i", env.shaders, "--check"); code != types.ExitSuccess {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr.String())
	}
	out := env.stdout.String()
	for _, want := range []string{"my::util", "my::math", "wgsl", "2 modules, all imports resolve"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
}

func TestModules_CheckFailures(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{
		"shaders/a.wgsl": "#define_import_path a\n#import b\n",
		"shaders/b.wgsl": "#define_import_path b\n#import a\n",
		"shaders/c.wgsl": "#define_import_path c\n#import gone\n",
	})
	if code := env.run("modules", "-i", env.shaders, "--check"); code != types.ExitFailure {
		t.Fatalf("exit = %d, want %d", code, types.ExitFailure)
	}
	for _, want := range []string{"c imports gone", "import cycle between modules: a, b"} {
		if !strings.Contains(env.stderr.String(), want) {
			t.Errorf("stderr missing %q:\n%s", want, env.stderr.String())
		}
	}
}

func TestModules_Empty(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	if code := env.run("modules", "-i", env.shaders); code != types.ExitSuccess {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr.String())
	}
	if !strings.Contains(env.stdout.String(), "no modules found") {
		t.Errorf("stdout = %q", env.stdout.String())
	}
}

func TestGraph(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, defaultFiles())
	if code := env.run("graph", env.path("main.wgsl"), "-i", env.shaders); code != types.ExitSuccess {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr.String())
	}
	out := env.stdout.String()
	util, math := strings.Index(out, "1. my::util"), strings.Index(out, "2. my::math")
	if util < 0 || math < 0 {
		t.Errorf("unexpected order listing:\n%s", out)
	}
	if len(env.engine.Added) != 0 {
		t.Error("graph must not touch the composition engine")
	}
}

func TestGraph_DOT(t *testing.T) {
	t.Parallel()

	files := defaultFiles()
	files["shaders/unused.wgsl"] = "#define_import_path unused\n"
	env := newTestEnv(t, files)

	if code := env.run("graph", env.path("main.wgsl"), "-i", env.shaders, "--dot"); code != types.ExitSuccess {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr.String())
	}
	out := env.stdout.String()
	if !strings.Contains(out, "digraph") || !strings.Contains(out, "my::math") {
		t.Errorf("unexpected DOT output:\n%s", out)
	}
	if strings.Contains(out, "unused") {
		t.Errorf("unreachable module in DOT output:\n%s", out)
	}
}

func TestExplain(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	if code := env.run("explain", "import-not-found", "--style", "notty"); code != types.ExitSuccess {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr.String())
	}
	if env.stdout.Len() == 0 {
		t.Error("expected a rendered guide")
	}

	env = newTestEnv(t, nil)
	if code := env.run("explain"); code != types.ExitSuccess {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(env.stdout.String(), "circular-dependency") {
		t.Errorf("guide list missing entries:\n%s", env.stdout.String())
	}

	env = newTestEnv(t, nil)
	if code := env.run("explain", "no-such-guide"); code != types.ExitFailure {
		t.Errorf("exit = %d, want %d", code, types.ExitFailure)
	}
	for _, want := range []string{
		`failed to explain issue: unknown issue: "no-such-guide"`,
		"Run 'nagaoil explain' to list the guides",
	} {
		if !strings.Contains(env.stderr.String(), want) {
			t.Errorf("stderr missing %q:\n%s", want, env.stderr.String())
		}
	}
}

func TestConfigCommands(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	cfgPath := env.path("build.cue")

	if code := env.run("config", "init", "--config", cfgPath); code != types.ExitSuccess {
		t.Fatalf("init exit = %d, stderr:\n%s", code, env.stderr.String())
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("config not created: %v", err)
	}
	if code := env.run("config", "init", "--config", cfgPath); code != types.ExitFailure {
		t.Errorf("second init exit = %d, want %d", code, types.ExitFailure)
	}

	env.stdout.Reset()
	if code := env.run("config", "show", "--config", cfgPath, "-i", "extra"); code != types.ExitSuccess {
		t.Fatalf("show exit = %d, stderr:\n%s", code, env.stderr.String())
	}
	for _, want := range []string{"// source: " + cfgPath, `"extra"`, "no_validation: false"} {
		if !strings.Contains(env.stdout.String(), want) {
			t.Errorf("show output missing %q:\n%s", want, env.stdout.String())
		}
	}

	env.stdout.Reset()
	if code := env.run("config", "path", "--config", cfgPath); code != types.ExitSuccess {
		t.Fatalf("path exit = %d", code)
	}
	if got := strings.TrimSpace(env.stdout.String()); got != cfgPath {
		t.Errorf("path = %q, want %q", got, cfgPath)
	}
}

func TestDiagnosticRenderer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	(&defaultDiagnosticRenderer{}).Render(context.Background(), []discovery.Diagnostic{
		discovery.NewDiagnosticWithPath(discovery.SeverityWarning, discovery.CodeDuplicateModule, "duplicate definition for `x`", "a.wgsl"),
		discovery.NewDiagnostic(discovery.SeverityError, discovery.CodeMissingImport, "nope"),
	}, &buf)

	want := "warning: duplicate definition for `x` (a.wgsl)\nerror: nope\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}
}
