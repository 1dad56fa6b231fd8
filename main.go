package main

import "skypeconnector/cmd"

func main() {
	cmd.Execute()
}
