package main

import "apiplay/cmd"

func main() {
	cmd.Execute()
}
