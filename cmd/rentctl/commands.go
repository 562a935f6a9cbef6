package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/rentdesk/internal/app"
	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/featureflags"
	"github.com/aryan0dhankhar/rentdesk/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/rentdesk/internal/platform/migrations"
	"github.com/aryan0dhankhar/rentdesk/internal/service"
	"github.com/aryan0dhankhar/rentdesk/internal/worker"
	"github.com/aryan0dhankhar/rentdesk/pkg/config"
)

// env is what every command needs once configuration is loaded
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	backend *app.Backend
	svc     *app.Services
}

func (e *env) close() {
	if e.backend != nil {
		e.backend.Close()
	}
}

// setup loads configuration and opens storage. Migrations only run from
// the migrate command.
func setup(ctx context.Context, migrate bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.NewLogger(cfg.LogLevel)
	backend, err := app.Open(ctx, cfg, log, migrate)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:     cfg,
		log:     log,
		backend: backend,
		svc:     app.NewServices(backend.Store, cfg, featureflags.NewEnv(), log),
	}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rentctl",
		Short:         "Operator tool for the rentdesk back office",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd(), remindersCmd(), paymentsCmd(), usersCmd())
	return root
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.close()
			if e.cfg.StorageDriver == config.StorageDriverMemory {
				fmt.Fprintln(cmd.OutOrStdout(), "memory storage has no migrations")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%d migrations)\n", migrations.Count())
			return nil
		},
	}
}

func remindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Rent reminder maintenance",
	}

	dispatch := &cobra.Command{
		Use:   "dispatch",
		Short: "Deliver every reminder whose date has arrived",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			e, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()

			res, err := worker.NewReminderDispatcher(e.svc.Reminders, limit, e.log).RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent=%d skipped=%d failed=%d\n", res.Sent, res.Skipped, res.Failed)
			return nil
		},
	}
	dispatch.Flags().Int("limit", worker.DefaultDispatchBatch, "maximum reminders to dispatch")

	cmd.AddCommand(dispatch)
	return cmd
}

func paymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Rent payment maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep-overdue",
		Short: "Mark pending payments past their due date as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()

			n, err := worker.NewOverdueSweeper(e.svc.Payments, e.log).RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "marked %d payments overdue\n", n)
			return nil
		},
	})
	return cmd
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Account administration",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account of any role, including admin",
		Long:  "Create an account. The password is read from --password or, when omitted, RENTDESK_PASSWORD.",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			role, _ := cmd.Flags().GetString("role")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("RENTDESK_PASSWORD")
			}

			e, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			user, err := e.svc.Auth.CreateUser(ctx, service.RegisterInput{
				Email:    email,
				Name:     name,
				Password: password,
				Role:     domain.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	create.Flags().String("email", "", "account email")
	create.Flags().String("name", "", "display name")
	create.Flags().String("role", string(domain.RoleAdmin), "tenant, landlord or admin")
	create.Flags().String("password", "", "account password")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}
