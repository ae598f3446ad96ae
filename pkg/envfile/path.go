package envfile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/animalet/envboot/pkg/environ"
	"github.com/pkg/errors"
)

const (
	// DefaultFileName is the name of the env file looked up next to the install root.
	DefaultFileName = ".env"
	// DefaultPathVariable overrides the default env file location.
	DefaultPathVariable = "ENVBOOT_DEFAULT_ENV_FILE"
)

// ResolvePath expands a leading "~" to the user's home directory, makes the path
// absolute and resolves symlinks. A path whose symlinks cannot be resolved (for
// instance because it does not exist) is returned in its absolute form.
func ResolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("env file path is empty")
	}

	abs, err := filepath.Abs(expandHome(path))
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve env file path %q", path)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// DefaultPath returns the default env file location for the process environment.
// See Loader for the lookup rules.
func DefaultPath() (string, error) {
	return defaultPath(environ.Process)
}

// defaultPath honours DefaultPathVariable, then falls back to a .env file in the
// parent of the directory holding the running executable.
func defaultPath(env environ.Environment) (string, error) {
	if p, ok := env.Lookup(DefaultPathVariable); ok && strings.TrimSpace(p) != "" {
		return ResolvePath(p)
	}

	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate the running executable")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	installDir := filepath.Dir(exe)
	return filepath.Join(filepath.Dir(installDir), DefaultFileName), nil
}

func expandHome(path string) string {
	if path == "~" {
		return xdg.Home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return filepath.Join(xdg.Home, path[2:])
	}
	return path
}
