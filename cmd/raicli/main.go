package main

import "github.com/vithaluntold/rai-compliance-client/internal/cli"

func main() {
	cli.Execute()
}
