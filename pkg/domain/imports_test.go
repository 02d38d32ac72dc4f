package domain

import (
	"testing"

	"occucalc/testutil"
)

func TestDomainImportsNoInternalPackages(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "pkg/domain is importable by any module")
}
