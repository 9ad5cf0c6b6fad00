package main

import "vehicle-catalog/internal/cli"

func main() {
	cli.Execute()
}
