// Command provision creates a tenant and its owner account.
//
//	provision -name "Blue Door" -subdomain bluedoor -owner-email chef@bluedoor.com -owner-password ...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/growplate/internal/auth"
	"github.com/gosuda/growplate/internal/config"
	"github.com/gosuda/growplate/internal/domain"
	"github.com/gosuda/growplate/internal/store/postgres"
	"github.com/gosuda/growplate/internal/tenancy"
)

type options struct {
	name          string
	subdomain     string
	domain        string
	ownerEmail    string
	ownerPassword string
	ownerName     string
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("invalid arguments")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		log.Fatal().Err(err).Msg("provisioning failed")
	}
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("provision", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.name, "name", "", "restaurant name (required)")
	fs.StringVar(&opts.subdomain, "subdomain", "", "tenant subdomain under the base domain (required)")
	fs.StringVar(&opts.domain, "domain", "", "custom domain, optional")
	fs.StringVar(&opts.ownerEmail, "owner-email", "", "owner login email (required)")
	fs.StringVar(&opts.ownerPassword, "owner-password", "", "owner password (required)")
	fs.StringVar(&opts.ownerName, "owner-name", "Owner", "owner display name")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var missing []string
	for flagName, v := range map[string]string{
		"-name":           opts.name,
		"-subdomain":      opts.subdomain,
		"-owner-email":    opts.ownerEmail,
		"-owner-password": opts.ownerPassword,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, flagName)
		}
	}
	if len(missing) > 0 {
		fs.Usage()
		slices.Sort(missing)
		return nil, fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	return opts, nil
}

func run(ctx context.Context, opts *options) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	tenant, err := newTenant(opts, cfg.Tenancy.BaseDomain)
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	if err := store.Tenants().Create(ctx, tenant); err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	// Token settings are irrelevant here; only CreateUser is used.
	svc := auth.NewService(store.Users(), "", 0, 0)
	owner, err := svc.CreateUser(ctx, tenant.ID, opts.ownerEmail, opts.ownerPassword, opts.ownerName, domain.RoleOwner)
	if err != nil {
		log.Warn().Str("tenant_id", tenant.ID.String()).Msg("tenant created without an owner; rerun with a new subdomain or add the owner manually")
		return fmt.Errorf("create owner: %w", describe(err))
	}

	hosts := tenant.Hostnames(cfg.Tenancy.BaseDomain)
	log.Info().
		Str("tenant_id", tenant.ID.String()).
		Str("owner_id", owner.ID.String()).
		Strs("hosts", hosts).
		Msg("tenant provisioned")
	return nil
}

// newTenant validates the naming flags and builds the tenant record.
func newTenant(opts *options, baseDomain string) (*domain.Tenant, error) {
	name := strings.TrimSpace(opts.name)
	if name == "" || utf8.RuneCountInString(name) > domain.MaxNameLength {
		return nil, fmt.Errorf("name must be 1 to %d characters", domain.MaxNameLength)
	}

	sub, err := tenancy.NormalizeSubdomain(opts.subdomain)
	if err != nil {
		return nil, fmt.Errorf("subdomain %q: %w", opts.subdomain, err)
	}

	var customDomain string
	if opts.domain != "" {
		customDomain, err = tenancy.NormalizeDomain(opts.domain, baseDomain)
		if err != nil {
			return nil, fmt.Errorf("domain %q: %w", opts.domain, err)
		}
	}

	return &domain.Tenant{
		ID:        uuid.New(),
		Name:      name,
		Subdomain: sub,
		Domain:    customDomain,
	}, nil
}

// describe surfaces the user-facing detail of a domain error.
func describe(err error) error {
	if d := domain.Detail(err); d != "" {
		return fmt.Errorf("%s: %w", d, err)
	}
	return err
}
