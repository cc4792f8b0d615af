package main

import (
	_ "embed"

	"github.com/penflow/penflow-sync-service/cmd"
)

//go:embed config/config.yaml
var c string

func main() {
	cmd.Execute(c)
}
