package main

import "github.com/projectcamp/ms-go-projects/cmd"

func main() {
	cmd.Execute()
}
