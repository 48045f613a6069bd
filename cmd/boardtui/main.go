package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/nkallio/cardwall/internal/client"
	"github.com/nkallio/cardwall/internal/tui"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "API server base URL")
	username := flag.String("user", "", "username to log in with")
	register := flag.Bool("register", false, "register the account before logging in")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "usage: boardtui -user <name> [-register] [-server <url>]")
		os.Exit(1)
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read password: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if *register {
		if err := client.Register(ctx, *server, *username, string(password)); err != nil {
			fmt.Fprintf(os.Stderr, "Registration failed: %v\n", err)
			os.Exit(1)
		}
	}

	session, err := client.Login(ctx, *server, *username, string(password))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		session.Logout(ctx)
	}()

	store := client.NewStore(client.NewClient(session))
	board := tui.NewBoardModel(store)

	if _, err := tea.NewProgram(board, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Board exited with error: %v\n", err)
		os.Exit(1)
	}
}
