package main

import "github.com/suvo-labs/suvo/cmd"

func main() {
	cmd.Execute()
}
