package main

import "dtp-backend/cmd"

func main() {
	cmd.Run()
}
