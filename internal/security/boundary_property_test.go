package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestBoundaryConfinementProperties(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir() // sibling of root under the same parent

	boundary, err := NewWorkspaceBoundary(root)
	require.NoError(t, err)

	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234) // For reproducible results
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("relative identifiers resolve inside the workspace", prop.ForAll(
		func(name string) bool {
			rel := name + ".go"
			if err := os.WriteFile(filepath.Join(root, rel), []byte("package x"), 0o644); err != nil {
				return false
			}

			got, err := boundary.ValidateRelative(rel)
			if err != nil {
				return false
			}
			return got == boundary.Root() ||
				strings.HasPrefix(got, boundary.Root()+string(filepath.Separator))
		},
		gen.Identifier(),
	))

	properties.Property("dot-dot traversal out of the workspace is refused", prop.ForAll(
		func(name string) bool {
			if err := os.WriteFile(filepath.Join(outside, name), []byte("secret"), 0o644); err != nil {
				return false
			}

			rel := filepath.Join("..", filepath.Base(outside), name)
			_, err := boundary.ValidateRelative(rel)

			var boundaryErr *BoundaryError
			return errors.As(err, &boundaryErr) && boundaryErr.Kind == BoundaryEscapeAttempt
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
