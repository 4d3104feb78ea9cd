package main

import "github.com/gaurav-prasanna/vocabpipe/cmd"

func main() {
	cmd.Execute()
}
