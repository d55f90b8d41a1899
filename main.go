package main

import "github.com/KaramelBytes/malstat/cmd"

func main() {
	cmd.Execute()
}
