package main

import "github.com/andresmejia3/scaleref/cmd"

func main() {
	cmd.Execute()
}
