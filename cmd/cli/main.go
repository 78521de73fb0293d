package main

import (
	"github.com/mchmarny/cargoscan/pkg/cli"
)

func main() {
	cli.Execute()
}
