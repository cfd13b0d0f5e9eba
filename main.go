package main

import (
	"github.com/sagan/promptmeta/cmd"
	_ "github.com/sagan/promptmeta/cmd/all"
)

func main() {
	cmd.Execute()
}
