package main

import "romorganizer/cmd"

func main() {
	cmd.Execute()
}
