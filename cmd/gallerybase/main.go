// filepath: cmd/gallerybase/main.go
package main

import (
	"gallerybase/internal/cli"
)

func main() {
	// Delegate all execution to the CLI package
	cli.Execute()
}
