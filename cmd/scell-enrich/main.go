// cmd/scell-enrich/main.go
package main

import (
	"scell/internal/appshell"
	"scell/internal/enrichapp"
)

func main() {
	appshell.Main(enrichapp.RunContext)
}
