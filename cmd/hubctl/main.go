package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"
	"time"

	"toolshub/internal/auth"
	"toolshub/internal/config"
	"toolshub/internal/db"
	"toolshub/internal/users"

	"golang.org/x/term"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "user":
		userCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println(`hubctl - toolshub admin CLI

Usage:
  hubctl user create <username> [-display "<name>"] [-role user|admin] [-config config.yaml] [-db postgres://...]

Examples:
  hubctl user create alice
  hubctl user create bob -display "Bob Builder" -role admin -config ./config.yaml`)
}

func userCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	switch args[0] {
	case "create":
		userCreate(args[1:])
	default:
		usage()
		os.Exit(2)
	}
}

func userCreate(args []string) {
	fs := flag.NewFlagSet("user create", flag.ExitOnError)
	var (
		cfgPath     = fs.String("config", "config.yaml", "path to config file")
		dbOverride  = fs.String("db", "", "override database connection URL")
		displayName = fs.String("display", "", "display name (default: username)")
		role        = fs.String("role", users.RoleUser, "role: user|admin")
	)
	_ = fs.Parse(reorderArgs(args))

	rest := fs.Args()
	if len(rest) < 1 {
		fmt.Println("missing <username>")
		fmt.Println()
		usage()
		os.Exit(2)
	}
	username := strings.TrimSpace(rest[0])
	if username == "" {
		fmt.Println("username cannot be empty")
		os.Exit(2)
	}
	if *displayName == "" {
		*displayName = username
	}
	if !validRole(*role) {
		fmt.Println("invalid role; must be one of: user|admin")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil && (cfg == nil || *dbOverride == "") {
		log.Fatalf("config: %v", err)
	}

	appURL, err := resolveDBURL(cfg, *dbOverride)
	if err != nil {
		log.Fatalf("db url: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	pool, err := db.NewPool(ctx, appURL, 1)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	pw := promptPassword("Password: ")
	pw2 := promptPassword("Confirm password: ")
	if pw != pw2 {
		fmt.Println("passwords do not match")
		os.Exit(1)
	}
	if len(pw) < 8 {
		fmt.Println("password too short (min 8 chars)")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(pw)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	store := &users.PGStore{DB: pool}
	u, err := store.Create(ctx, username, *displayName, *role, hash)
	if errors.Is(err, users.ErrExists) {
		log.Fatalf("create user: username %q already exists", username)
	}
	if err != nil {
		log.Fatalf("create user: %v", err)
	}
	fmt.Printf("ok: user created\n  id: %s\n  username: %s\n  role: %s\n", u.ID, u.Username, u.Role)
}

func validRole(r string) bool {
	return r == users.RoleUser || r == users.RoleAdmin
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.Fatalf("read password: %v", err)
	}
	return strings.TrimSpace(string(b))
}

func resolveDBURL(cfg *config.Config, override string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return override, nil
	}
	return cfg.Database.AppURL()
}

// reorderArgs moves flags ahead of positionals so "create alice -role admin"
// parses the same as "create -role admin alice".
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg != "-" && arg != "--" && arg[0] == '-' {
			flags = append(flags, arg)
			if !strings.Contains(arg, "=") && i+1 < len(args) && (len(args[i+1]) == 0 || args[i+1][0] != '-') {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return append(flags, positional...)
}
