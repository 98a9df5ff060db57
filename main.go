package main

import "github.com/naka-gawa/changelog-digest/cmd"

func main() {
	cmd.Execute()
}
