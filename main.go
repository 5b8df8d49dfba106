package main

import "github.com/alexiusacademia/goeq/cmd"

func main() {
	cmd.Execute()
}
