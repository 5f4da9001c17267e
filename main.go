package main

import "github.com/comova/comova/cmd"

func main() {
	cmd.Execute()
}
