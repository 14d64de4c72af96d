package main

import "github.com/KaramelBytes/redraft-cli/cmd"

func main() {
	cmd.Execute()
}
