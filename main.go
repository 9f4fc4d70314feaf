package main

import "pack-grader/internal/cli"

func main() {
	cli.Execute()
}
