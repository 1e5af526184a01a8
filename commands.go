package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/freelance-app/config"
	"github.com/yeremiapane/freelance-app/database"
	"github.com/yeremiapane/freelance-app/errs"
	"github.com/yeremiapane/freelance-app/repositories"
	"github.com/yeremiapane/freelance-app/utils"
)

const usage = `Usage: freelance [-d database-url] <command> [flags]

Commands:
  migrate                          create or update the schema
  seed                             migrate and insert example data
  users                            list users as JSON
  customers -email E [-projects]   list a user's customers as JSON
  delete-user -email E             delete a user and everything it owns
`

const seedEmail = "demo@freelance.test"

type command func(ctx context.Context, db *gorm.DB, args []string, stdout io.Writer) error

var commands = map[string]command{
	"migrate":     migrateCmd,
	"seed":        seedCmd,
	"users":       usersCmd,
	"customers":   customersCmd,
	"delete-user": deleteUserCmd,
}

// run parses the global flags, connects to the database and dispatches to
// the named command. Command output goes to stdout, logs go to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("freelance", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }

	var databaseURL string
	fs.StringVar(&databaseURL, "d", "", "Database URL (overrides DATABASE_URL)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return flag.ErrHelp
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fs.Usage()
		return fmt.Errorf("unknown command %q", name)
	}

	overrides := map[string]any{}
	if databaseURL != "" {
		overrides["database_url"] = databaseURL
	}
	cfg, err := config.LoadWith(overrides)
	if err != nil {
		return err
	}

	utils.InitLoggerTo(cfg.LogLevel, stderr, stderr)

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			utils.ErrorLogger.Errorf("Error closing database: %v", err)
		}
	}()

	return cmd(ctx, db, fs.Args()[1:], stdout)
}

func migrateCmd(ctx context.Context, db *gorm.DB, args []string, stdout io.Writer) error {
	return database.Migrate(db.WithContext(ctx))
}

// seedCmd inserts one user with a customer and a project. It does nothing
// when the seed user already exists.
func seedCmd(ctx context.Context, db *gorm.DB, args []string, stdout io.Writer) error {
	if err := database.Migrate(db.WithContext(ctx)); err != nil {
		return err
	}

	repos := repositories.NewRepositories(db)

	_, err := repos.Users.GetByEmail(ctx, seedEmail)
	if err == nil {
		utils.InfoLogger.Printf("Seed user %s already exists, skipping", seedEmail)
		return nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return err
	}

	user, err := repos.Users.Create(ctx, repositories.UserInput{Email: seedEmail, Name: "Demo Freelancer"})
	if err != nil {
		return err
	}

	phone, email := "+62 812 0000 0000", "hello@acme.test"
	customer, err := repos.Customers.Create(ctx, user.ID, repositories.CustomerInput{
		Name:  "Acme Studio",
		Phone: &phone,
		Email: &email,
	})
	if err != nil {
		return err
	}

	price := decimal.NewFromInt(1500)
	minutes := 90
	_, err = repos.Projects.Create(ctx, customer.ID, repositories.ProjectInput{
		Name:      "Company website",
		TodoList:  []string{"Wireframes", "Design", "Build", "Launch"},
		Price:     &price,
		TimeSpent: &minutes,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "seeded user %s (%s)\n", user.Email, user.ID)
	return nil
}

func usersCmd(ctx context.Context, db *gorm.DB, args []string, stdout io.Writer) error {
	users, err := repositories.NewUserRepository(db).List(ctx)
	if err != nil {
		return err
	}
	return writeJSON(stdout, users)
}

func customersCmd(ctx context.Context, db *gorm.DB, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("customers", flag.ContinueOnError)
	email := fs.String("email", "", "Owner email")
	withProjects := fs.Bool("projects", false, "Include each customer's projects")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("customers: -email is required")
	}

	repos := repositories.NewRepositories(db)

	owner, err := repos.Users.GetByEmail(ctx, *email)
	if err != nil {
		return err
	}

	customers, err := repos.Customers.ListForUser(ctx, owner.ID, *withProjects)
	if err != nil {
		return err
	}
	return writeJSON(stdout, customers)
}

func deleteUserCmd(ctx context.Context, db *gorm.DB, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("delete-user", flag.ContinueOnError)
	email := fs.String("email", "", "Email of the user to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("delete-user: -email is required")
	}

	users := repositories.NewUserRepository(db)

	user, err := users.GetByEmail(ctx, *email)
	if err != nil {
		return err
	}
	if err := users.Delete(ctx, user.ID); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "deleted user %s\n", user.Email)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
