package main

import (
	// Register plugins via side-effects
	_ "submix/internal/collectors/file"
	_ "submix/internal/collectors/http"
	_ "submix/internal/collectors/telegram"
	_ "submix/internal/publishers/file"
	_ "submix/internal/publishers/github"
	_ "submix/internal/publishers/stdout"
)

func main() {
	Execute()
}
