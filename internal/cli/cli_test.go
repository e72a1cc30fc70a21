package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/temirov/abcdump/internal/abc"
	"github.com/temirov/abcdump/internal/config"
	"github.com/temirov/abcdump/internal/utils"
)

const (
	childSceneContent = "objects:\n  - name: child\n    xform:\n      samples:\n        - ops: [{type: translate, channels: [1, 2, 3]}]\n"
	notedSceneContent = "objects:\n  - name: child\n    metadata: {note: \"a;b=c\"}\n    xform:\n      samples:\n        - ops: [{type: translate, channels: [1, 2, 3]}]\n"
	movedSceneContent = "objects:\n  - name: child\n    xform:\n      samples:\n        - ops: [{type: translate, channels: [1, 2, 4]}]\n"
)

type recordingCopier struct {
	copied []string
}

func (copier *recordingCopier) Copy(text string) error {
	copier.copied = append(copier.copied, text)
	return nil
}

type testApplication struct {
	*application
	stdoutBuffer *bytes.Buffer
	stderrBuffer *bytes.Buffer
	copier       *recordingCopier
	directory    string
}

func newTestApplication(t *testing.T) *testApplication {
	t.Helper()
	directory := t.TempDir()
	stdoutBuffer := &bytes.Buffer{}
	stderrBuffer := &bytes.Buffer{}
	copier := &recordingCopier{}
	return &testApplication{
		application: &application{
			stdout:      stdoutBuffer,
			stderr:      stderrBuffer,
			copier:      copier,
			loadOptions: config.LoadOptions{WorkingDirectory: directory, SkipGlobal: true},
			newLogger: func(level string) (*zap.Logger, error) {
				if _, err := utils.ParseLogLevel(level); err != nil {
					return nil, err
				}
				return zap.NewNop(), nil
			},
		},
		stdoutBuffer: stdoutBuffer,
		stderrBuffer: stderrBuffer,
		copier:       copier,
		directory:    directory,
	}
}

func (app *testApplication) run(arguments ...string) error {
	rootCommand := app.createRootCommand()
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, arguments))
	return rootCommand.ExecuteContext(context.Background())
}

func (app *testApplication) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	filePath := filepath.Join(app.directory, name)
	if err := os.WriteFile(filePath, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", filePath, err)
	}
	return filePath
}

func TestRootCommandRequiresArchive(t *testing.T) {
	app := newTestApplication(t)
	if err := app.run(); err == nil {
		t.Fatalf("expected an error without an archive argument")
	}
	if err := app.run("a.yaml", "b.yaml"); err == nil {
		t.Fatalf("expected an error for two archive arguments")
	}
}

func TestRootCommandDumpsRaw(t *testing.T) {
	app := newTestApplication(t)
	scenePath := app.writeFile(t, "scene.yaml", childSceneContent)

	if err := app.run("--color", "never", "--summary", scenePath); err != nil {
		t.Fatalf("dump: %v", err)
	}
	rendered := app.stdoutBuffer.String()
	if !strings.HasPrefix(rendered, abc.TopObjectName+" ") && !strings.HasPrefix(rendered, abc.TopObjectName+"\n") {
		t.Fatalf("expected the top object first, got:\n%s", rendered)
	}
	for _, expected := range []string{"\n child ", "\n translate:1,2,3,\n", "Summary: 2 objects (1 xform, 0 meshes, 0 point clouds), 1 sample\n"} {
		if !strings.Contains(rendered, expected) {
			t.Fatalf("expected %q in output:\n%s", expected, rendered)
		}
	}
	if strings.Contains(rendered, "\x1b[") {
		t.Fatalf("expected no color escapes:\n%s", rendered)
	}
}

func TestRootCommandIndentAndTimes(t *testing.T) {
	app := newTestApplication(t)
	scenePath := app.writeFile(t, "scene.yaml", childSceneContent)

	if err := app.run("--indent", "4", "--times", "false", "--color=never", scenePath); err != nil {
		t.Fatalf("dump: %v", err)
	}
	rendered := app.stdoutBuffer.String()
	if !strings.Contains(rendered, "\n    child ") {
		t.Fatalf("expected four-space indentation:\n%s", rendered)
	}
	if strings.Contains(rendered, "time sampling:") {
		t.Fatalf("expected no time sampling tables:\n%s", rendered)
	}
}

func TestRootCommandStructuredFormats(t *testing.T) {
	testCases := []struct {
		name   string
		format string
		check  func(t *testing.T, rendered string)
	}{
		{
			name:   "json",
			format: "json",
			check: func(t *testing.T, rendered string) {
				if !json.Valid([]byte(rendered)) {
					t.Fatalf("expected valid JSON:\n%s", rendered)
				}
				if !strings.Contains(rendered, `"child"`) {
					t.Fatalf("expected the child object:\n%s", rendered)
				}
			},
		},
		{
			name:   "xml_upper_case",
			format: "XML",
			check: func(t *testing.T, rendered string) {
				if !strings.HasPrefix(rendered, "<?xml") || !strings.HasSuffix(rendered, "</events>\n") {
					t.Fatalf("expected an XML event document:\n%s", rendered)
				}
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			app := newTestApplication(t)
			scenePath := app.writeFile(t, "scene.yaml", childSceneContent)
			if err := app.run("--format", testCase.format, scenePath); err != nil {
				t.Fatalf("dump: %v", err)
			}
			testCase.check(t, app.stdoutBuffer.String())
		})
	}
}

func TestRootCommandRejectsInvalidInput(t *testing.T) {
	testCases := []struct {
		name      string
		arguments func(app *testApplication, t *testing.T) []string
		expected  error
	}{
		{
			name: "unknown_container",
			arguments: func(app *testApplication, t *testing.T) []string {
				return []string{app.writeFile(t, "scene.txt", "not an archive")}
			},
			expected: abc.ErrInvalidArchive,
		},
		{
			name: "malformed_scene",
			arguments: func(app *testApplication, t *testing.T) []string {
				return []string{app.writeFile(t, "scene.yaml", "objects: [\n")}
			},
			expected: abc.ErrInvalidArchive,
		},
		{
			name: "invalid_transformation",
			arguments: func(app *testApplication, t *testing.T) []string {
				content := "objects:\n  - name: a\n    xform:\n      samples:\n        - ops: [{type: scale, channels: [1, 1]}]\n"
				return []string{app.writeFile(t, "scene.yaml", content)}
			},
			expected: abc.ErrInvalidSchema,
		},
		{
			name: "missing_file",
			arguments: func(app *testApplication, t *testing.T) []string {
				return []string{filepath.Join(app.directory, "missing.yaml")}
			},
			expected: os.ErrNotExist,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			app := newTestApplication(t)
			err := app.run(testCase.arguments(app, t)...)
			if !errors.Is(err, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, err)
			}
		})
	}
}

func TestRootCommandRejectsInvalidSettings(t *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "format", arguments: []string{"--format", "yaml"}},
		{name: "color", arguments: []string{"--color", "sometimes"}},
		{name: "indent", arguments: []string{"--indent", "-1"}},
		{name: "log_level", arguments: []string{"--log-level", "loud"}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			app := newTestApplication(t)
			scenePath := app.writeFile(t, "scene.yaml", childSceneContent)
			if err := app.run(append(testCase.arguments, scenePath)...); err == nil {
				t.Fatalf("expected an error for %v", testCase.arguments)
			}
		})
	}
}

func TestRootCommandCopiesDump(t *testing.T) {
	app := newTestApplication(t)
	scenePath := app.writeFile(t, "scene.yaml", childSceneContent)

	if err := app.run("--copy", "--color", "always", scenePath); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if len(app.copier.copied) != 1 {
		t.Fatalf("expected one clipboard copy, got %d", len(app.copier.copied))
	}
	copied := app.copier.copied[0]
	if strings.Contains(copied, "\x1b[") {
		t.Fatalf("expected uncolored clipboard text:\n%s", copied)
	}
	if !strings.Contains(copied, "translate:1,2,3,") {
		t.Fatalf("unexpected clipboard text:\n%s", copied)
	}
}

func TestRootCommandAppliesConfiguration(t *testing.T) {
	app := newTestApplication(t)
	scenePath := app.writeFile(t, "scene.yaml", childSceneContent)
	app.writeFile(t, utils.LocalConfigFileName, "dump:\n  format: json\n  copy: true\n")

	if err := app.run(scenePath); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !json.Valid(app.stdoutBuffer.Bytes()) {
		t.Fatalf("expected JSON from configuration:\n%s", app.stdoutBuffer.String())
	}
	if len(app.copier.copied) != 1 {
		t.Fatalf("expected the configured copy, got %d", len(app.copier.copied))
	}

	app.stdoutBuffer.Reset()
	if err := app.run("--format", "raw", "--color", "never", "--copy=false", scenePath); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.HasPrefix(app.stdoutBuffer.String(), abc.TopObjectName) {
		t.Fatalf("expected flags to override configuration:\n%s", app.stdoutBuffer.String())
	}
	if len(app.copier.copied) != 1 {
		t.Fatalf("expected --copy=false to skip the clipboard, got %d copies", len(app.copier.copied))
	}
}

func TestRootCommandExplicitConfiguration(t *testing.T) {
	app := newTestApplication(t)
	scenePath := app.writeFile(t, "scene.yaml", childSceneContent)

	if err := app.run("--config", filepath.Join(app.directory, "absent.yaml"), scenePath); err == nil {
		t.Fatalf("expected an error for a missing configuration file")
	}

	configPath := app.writeFile(t, "custom.yaml", "dump:\n  format: xml\n")
	if err := app.run("--config", configPath, scenePath); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.HasPrefix(app.stdoutBuffer.String(), "<?xml") {
		t.Fatalf("expected XML from explicit configuration:\n%s", app.stdoutBuffer.String())
	}
}

func TestConvertThenDiff(t *testing.T) {
	app := newTestApplication(t)
	scenePath := app.writeFile(t, "scene.yaml", notedSceneContent)
	convertedPath := filepath.Join(app.directory, "scene.h5")

	if err := app.run("convert", scenePath, convertedPath); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(app.stdoutBuffer.String(), convertedPath) {
		t.Fatalf("expected a conversion report, got %q", app.stdoutBuffer.String())
	}

	app.stdoutBuffer.Reset()
	if err := app.run("diff", scenePath, convertedPath); err != nil {
		t.Fatalf("expected identical dumps, got %v:\n%s", err, app.stdoutBuffer.String())
	}
	if app.stdoutBuffer.Len() != 0 {
		t.Fatalf("expected no diff output, got:\n%s", app.stdoutBuffer.String())
	}

	app.stdoutBuffer.Reset()
	if err := app.run("--color", "never", convertedPath); err != nil {
		t.Fatalf("dump converted archive: %v", err)
	}
	if !strings.Contains(app.stdoutBuffer.String(), `note=a\;b\=c`) {
		t.Fatalf("expected escaped metadata in dump:\n%s", app.stdoutBuffer.String())
	}
}

func TestDiffReportsChangedLines(t *testing.T) {
	app := newTestApplication(t)
	leftPath := app.writeFile(t, "left.yaml", childSceneContent)
	rightPath := app.writeFile(t, "right.yaml", movedSceneContent)

	err := app.run("diff", leftPath, rightPath)
	if !errors.Is(err, ErrArchivesDiffer) {
		t.Fatalf("expected ErrArchivesDiffer, got %v", err)
	}
	rendered := app.stdoutBuffer.String()
	for _, expected := range []string{"--- " + leftPath + "\n", "- translate:1,2,3,\n", "+ translate:1,2,4,\n", " " + abc.TopObjectName} {
		if !strings.Contains(rendered, expected) {
			t.Fatalf("expected %q in diff:\n%s", expected, rendered)
		}
	}
}

func TestDiffLines(t *testing.T) {
	rendered, differ := diffLines("a\nb\nc\n", "a\nc\nd\n")
	if !differ {
		t.Fatalf("expected a difference")
	}
	expected := " a\n-b\n c\n+d\n"
	if rendered != expected {
		t.Fatalf("expected %q, got %q", expected, rendered)
	}
	if _, differ := diffLines("a\n", "a\n"); differ {
		t.Fatalf("expected no difference for equal text")
	}
}

func TestInitCommand(t *testing.T) {
	app := newTestApplication(t)
	if err := app.run("init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	written := filepath.Join(app.directory, utils.LocalConfigFileName)
	if _, err := os.Stat(written); err != nil {
		t.Fatalf("expected %s: %v", written, err)
	}
	if err := app.run("init"); err == nil {
		t.Fatalf("expected an error for an existing configuration")
	}
	if err := app.run("init", "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := app.run("init", "--global"); err != nil {
		t.Fatalf("init --global: %v", err)
	}
	globalPath := filepath.Join(home, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
	if _, err := os.Stat(globalPath); err != nil {
		t.Fatalf("expected %s: %v", globalPath, err)
	}
}

func TestVersionFlag(t *testing.T) {
	app := newTestApplication(t)
	if err := app.run("--version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(app.stdoutBuffer.String(), "abcdump version: ") {
		t.Fatalf("unexpected version output %q", app.stdoutBuffer.String())
	}
}
