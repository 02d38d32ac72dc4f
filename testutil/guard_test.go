package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEngineImportForbidden(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"occucalc/internal/adapters/sheets", true},
		{"occucalc/internal/infra/persistence/sqlite", true},
		{"occucalc/internal/blob", true},
		{"occucalc/internal/cli", true},
		{"occucalc/internal/config", true},
		{"net/http", true},
		{"net/http/httptest", true},
		{"occucalc/internal/core", false},
		{"occucalc/internal/platform/logger", false},
		{"occucalc/pkg/domain", false},
		{"occucalc/internal/blobby", false},
		{"net/url", false},
	}
	for _, c := range cases {
		if got := EngineImportForbidden(c.in); got != c.want {
			t.Fatalf("EngineImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestInternalImportForbidden(t *testing.T) {
	if !InternalImportForbidden("occucalc/internal/core") {
		t.Fatal("internal path not matched")
	}
	if InternalImportForbidden("occucalc/pkg/domain") {
		t.Fatal("pkg path matched")
	}
}

type recorder struct{ msg string }

func (r *recorder) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func writeFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package tmp\nimport (\n\t\"fmt\"\n\t\"net/http\"\n)\nvar _ = fmt.Sprint\nvar _ = http.MethodGet\n")
	writeFile(t, dir, "a_test.go", "package tmp\nimport \"occucalc/internal/cli\"\n")
	writeFile(t, dir, "notes.txt", "import \"net/http\"")

	viols, err := directImportViolations(dir, EngineImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.HasPrefix(viols[0], "net/http (in a.go)") {
		t.Fatalf("violations = %v", viols)
	}

	AssertNoDirectImports(t, dir, UnderPrefix("occucalc/internal/cli"), "tests are skipped")

	writeFile(t, dir, "broken.go", "package")
	if _, err := directImportViolations(dir, EngineImportForbidden); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := directImportViolations(filepath.Join(dir, "missing"), EngineImportForbidden); err == nil {
		t.Fatal("expected read error")
	}
}

func TestTransitiveDependencyViolations(t *testing.T) {
	orig := goListDeps
	t.Cleanup(func() { goListDeps = orig })

	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\noccucalc/internal/core\n\noccucalc/internal/adapters/sheets\n"), nil
	}
	AssertNoTransitiveDependency(t, "./...", UnderPrefix("occucalc/internal/cli"), "clean")
}

func TestFailIf(t *testing.T) {
	r := &recorder{}
	failIf(r, "forbidden", "layering", nil)
	if r.msg != "" {
		t.Fatalf("unexpected failure %q", r.msg)
	}
	failIf(r, "forbidden", "layering", []string{"a", "b"})
	if r.msg != "forbidden (layering):\na\nb" {
		t.Fatalf("message = %q", r.msg)
	}
}
