package main

import "github.com/OpenTraceLab/kicad2mcad/cmd/kicad2mcad/cmd"

func main() {
	cmd.Execute()
}
