/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/peancharoen/lcbp3-sub002/cmd"

func main() {
	cmd.Execute()
}
