package main

import (
    "fmt"
    "os"

    "github.com/joho/godotenv"
)

func main() {
    // .env is optional; real environment variables take precedence
    _ = godotenv.Load()
    if err := newRootCmd().Execute(); err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(1)
    }
}
