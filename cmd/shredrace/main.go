/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/shredrace/cmd/shredrace/cmd"
)

func main() {
	cmd.Execute()
}
