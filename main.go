package main

import "github.com/Davincible/gemini-code-gateway/cmd"

func main() {
	cmd.Execute()
}
