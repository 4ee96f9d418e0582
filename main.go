package main

import "snapcapsule/internal/cli"

func main() {
	cli.Execute()
}
