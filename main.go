package main

import "github.com/rotaworks/workforce-auth/cmd"

func main() {
	cmd.Execute()
}
