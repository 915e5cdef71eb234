package main

import "github.com/catattack05/functionary/internal/cli"

func main() {
	cli.Execute()
}
