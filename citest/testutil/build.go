package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ProjectRoot walks up from the working directory to the directory holding
// go.mod.
func ProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above %s", dir)
		}
		dir = parent
	}
}

// BuildBinary compiles the package at relPkg into destDir and returns the
// binary path.
func BuildBinary(destDir, name, relPkg string) (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}

	binary := filepath.Join(destDir, name)
	cmd := exec.Command("go", "build", "-o", binary, relPkg)
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("building %s: %v\n%s", relPkg, err, out)
	}
	return binary, nil
}
