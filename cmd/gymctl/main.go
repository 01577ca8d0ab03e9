// Command gymctl runs maintenance tasks against the GymFlow database.
//
//	gymctl promote -email someone@example.com -role admin
//	gymctl list-users -search ana -page 2
//	gymctl reset-password -email root@example.com -password 'new secret'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/gymflow/backend/internal/config"
	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/logger"
	"github.com/gymflow/backend/internal/repository"
	"github.com/gymflow/backend/internal/service"
)

const usage = `usage: gymctl <command> [flags]

commands:
  promote         set the role of an account
  list-users      print members with their membership state
  reset-password  set a new password for an account
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Config error: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Environment, "warn")

	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "❌ DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Database error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	auth := service.NewAuthService(repository.NewPgStore(db), cfg.JWTSecret, cfg.UserTokenTTL, cfg.AdminTokenTTL, time.Now)

	switch os.Args[1] {
	case "promote":
		err = promote(ctx, auth, os.Stdout, os.Args[2:])
	case "list-users":
		err = listUsers(ctx, auth, os.Stdout, os.Args[2:])
	case "reset-password":
		err = resetPassword(ctx, auth, os.Stdout, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func promote(ctx context.Context, auth *service.AuthService, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("promote", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	role := fs.String("role", domain.RoleAdmin, "new role: user, admin or root")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}

	user, err := auth.Promote(ctx, *email, *role)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ %s is now %s\n", user.Email, user.Role)
	return nil
}

func listUsers(ctx context.Context, auth *service.AuthService, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	search := fs.String("search", "", "filter by name or email")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 50, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	maintenance := domain.Actor{ID: "gymctl", Email: "gymctl", Role: domain.RoleRoot}
	result, err := auth.ListUsers(ctx, maintenance, domain.UserFilter{Search: *search, Page: *page, Limit: *limit})
	if err != nil {
		return err
	}

	now := time.Now()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tNAME\tROLE\tPLAN\tEXPIRES\tORDERS")
	for _, u := range result.Data {
		plan, expires := "-", "-"
		if u.Subscription != nil {
			plan = u.Subscription.Plan
			expires = u.Subscription.EndDate.Format("2006-01-02")
			if !u.Subscription.IsActiveAt(now) {
				expires += " (expired)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", u.Email, u.Name, u.Role, plan, expires, u.TotalOrders)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "page %d/%d, %d users\n", result.Page, result.TotalPages, result.Total)
	return nil
}

func resetPassword(ctx context.Context, auth *service.AuthService, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("-email and -password are required")
	}

	user, err := auth.ResetPassword(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ password updated for %s\n", user.Email)
	return nil
}
