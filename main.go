package main

import "commscivet/cmd"

func main() {
	cmd.Execute()
}
