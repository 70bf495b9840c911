/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/gmaffy/sprintseq/cmd"

func main() {
	cmd.Execute()
}
