package cli

import (
	"flag"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/avolkau/inkshelf/internal/auth"
	"github.com/avolkau/inkshelf/internal/config"
	"github.com/avolkau/inkshelf/internal/database"
	"github.com/avolkau/inkshelf/internal/entities"
)

// CreateAdminCommand creates an administrator account in the user
// database. Needed once before enabling AUTH_MODE=local.
type CreateAdminCommand struct {
	Username     string
	Email        string
	Password     string
	DatabasePath string
}

// NewCreateAdminCommand creates a new CreateAdminCommand
func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{}
}

// ParseFlags parses command line flags
func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the administrator account (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address for the administrator account (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password (prompted interactively when omitted)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (defaults to DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an administrator account for AUTH_MODE=local.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-admin -username admin -email admin@example.com\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Email == "" {
		fs.Usage()
		return fmt.Errorf("both -username and -email are required")
	}

	return nil
}

// Run executes the create-admin command
func (cmd *CreateAdminCommand) Run() error {
	cfg := config.NewConfig()
	if cmd.DatabasePath != "" {
		cfg.Database.Path = cmd.DatabasePath
	}

	password := cmd.Password
	if password == "" {
		var err error
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := auth.NewService(db.DB, cfg.Auth)
	user, err := service.CreateUser(cmd.Username, cmd.Email, password, entities.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}

	fmt.Printf("Created administrator %q (id %d)\n", user.Username, user.ID)
	return nil
}

// promptPassword reads the password twice without echo.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}

	return string(first), nil
}
