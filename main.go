package main

import (
	"github.com/cchantep/orm/cmd"
)

func main() {
	cmd.Execute()
}
