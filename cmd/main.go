package main

import (
	api "WaifuBracket"
)

func main() {
	api.Run()
}
