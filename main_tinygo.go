//go:build tinygo && baremetal

package main

import (
	"cbos/app"
	"cbos/hal"
	"cbos/internal/config"
)

func main() {
	app.RunForever(hal.New(), config.Default())
}
