package main

import "github.com/bryanchriswhite/ScaleShot/cmd/scaleshot/commands"

func main() {
	commands.Execute()
}
