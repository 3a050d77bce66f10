package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Aditya06pandey1368/LMS-Project/internal/config"
	"github.com/Aditya06pandey1368/LMS-Project/internal/service"
	"golang.org/x/term"
)

// issue-token signs a development token for a user id, for calling the API
// without the upstream identity service.
func main() {
	var (
		userID string
		ttl    time.Duration
	)
	flag.StringVar(&userID, "user", "", "User id to put in the token")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	cfg := config.Load()
	reader := bufio.NewReader(os.Stdin)

	if userID == "" {
		fmt.Fprint(os.Stderr, "Enter User ID: ")
		line, _ := reader.ReadString('\n')
		userID = strings.TrimSpace(line)
	}
	if userID == "" {
		fmt.Fprintln(os.Stderr, "Error: user id is required")
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		fmt.Fprint(os.Stderr, "Enter JWT Secret: ")
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error reading secret")
			os.Exit(1)
		}
		cfg.JWTSecret = strings.TrimSpace(string(secret))
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT secret is required")
		os.Exit(1)
	}

	token, err := service.NewAuthService(cfg).GenerateToken(userID, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
