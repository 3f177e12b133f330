package test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// moduleFixture locates a fixture inside a dependency's module directory.
type moduleFixture struct {
	module string
	path   string
}

// Models and sample images that ship with the vision dependencies. Both
// modules are required by go.mod, so they are in the module cache whenever the
// tests compile.
var moduleFixtures = map[string]moduleFixture{
	"haarcascade_frontalface_default.xml": {"gocv.io/x/gocv", "data/haarcascade_frontalface_default.xml"},
	"face.jpg":                            {"gocv.io/x/gocv", "images/face.jpg"},
	"facefinder":                          {"github.com/esimov/pigo", "cascade/facefinder"},
}

var (
	moduleDirsMu sync.Mutex
	moduleDirs   = map[string]string{}
)

// Testdata returns the path of a fixture and whether it exists.
//
// The repository's testdata directory is searched first so a fixture can be
// overridden locally. Known cascades and sample images are then resolved from
// the module cache.
func Testdata(name string) (string, bool) {
	for _, dir := range []string{"testdata", "../testdata", "../../testdata"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}

	if f, ok := moduleFixtures[name]; ok {
		if dir := ModuleDir(f.module); dir != "" {
			p := filepath.Join(dir, filepath.FromSlash(f.path))
			if _, err := os.Stat(p); err == nil {
				return p, true
			}
		}
	}
	return filepath.Join("testdata", name), false
}

// ModuleDir returns the on-disk directory of a required module, or "" when
// the go command cannot resolve it.
func ModuleDir(module string) string {
	moduleDirsMu.Lock()
	defer moduleDirsMu.Unlock()

	if dir, ok := moduleDirs[module]; ok {
		return dir
	}
	out, err := exec.Command("go", "list", "-m", "-f", "{{.Dir}}", module).Output()
	dir := ""
	if err == nil {
		dir = strings.TrimSpace(string(out))
	}
	moduleDirs[module] = dir
	return dir
}
