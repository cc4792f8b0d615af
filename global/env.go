package global

import (
	"os"
	"path/filepath"
)

var (
	// ROOT is the directory the binary runs from.
	ROOT string
	Name string = "Penflow Sync Service"
)

func init() {
	exe, err := os.Executable()
	if err != nil {
		ROOT = "./"
		return
	}
	ROOT = filepath.Dir(exe) + "/"
}
