// Command vintra-apikey creates, lists and revokes API keys for the server.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	mw "github.com/kiranshivaraju/vintra/internal/api/middleware"
	"github.com/kiranshivaraju/vintra/internal/config"
	"github.com/kiranshivaraju/vintra/internal/store"
	"github.com/kiranshivaraju/vintra/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	keyPrefix     = "vt_"
	keyRandomSize = 24
	defaultScopes = "transcribe,process,read"
)

// keyManager is the subset of the store the command needs.
type keyManager interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}
	dbCfg := config.LoadDatabase()
	if dbCfg.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := store.Connect(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return execute(ctx, args, store.NewPostgresStore(pool), os.Stdout)
}

func execute(ctx context.Context, args []string, keys keyManager, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: vintra-apikey <create|list|revoke> [flags]")
	}

	switch args[0] {
	case "create":
		fset := flag.NewFlagSet("create", flag.ContinueOnError)
		fset.SetOutput(out)
		name := fset.String("name", "", "human-readable key name (required)")
		scopes := fset.String("scopes", defaultScopes, "comma-separated scopes")
		if err := fset.Parse(args[1:]); err != nil {
			return err
		}
		if strings.TrimSpace(*name) == "" {
			return errors.New("create: -name is required")
		}
		return createKey(ctx, keys, out, *name, splitScopes(*scopes))

	case "list":
		return listKeys(ctx, keys, out)

	case "revoke":
		fset := flag.NewFlagSet("revoke", flag.ContinueOnError)
		fset.SetOutput(out)
		id := fset.String("id", "", "key id to revoke (required)")
		if err := fset.Parse(args[1:]); err != nil {
			return err
		}
		keyID, err := uuid.Parse(*id)
		if err != nil {
			return fmt.Errorf("revoke: -id must be a UUID: %w", err)
		}
		if err := keys.RevokeAPIKey(ctx, keyID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("revoke: key %s not found", keyID)
			}
			return fmt.Errorf("revoke: %w", err)
		}
		fmt.Fprintf(out, "revoked %s\n", keyID)
		return nil

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func createKey(ctx context.Context, keys keyManager, out io.Writer, name string, scopes []string) error {
	raw, err := generateRawKey()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash key: %w", err)
	}

	now := time.Now().UTC()
	key := &models.APIKey{
		ID:        uuid.New(),
		Name:      name,
		KeyHash:   string(hash),
		KeyPrefix: raw[:mw.KeyPrefixLen],
		Scopes:    scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := keys.CreateAPIKey(ctx, key); err != nil {
		return fmt.Errorf("create: %w", err)
	}

	fmt.Fprintf(out, "id:     %s\nname:   %s\nscopes: %s\nkey:    %s\n",
		key.ID, key.Name, strings.Join(key.Scopes, ","), raw)
	fmt.Fprintln(out, "Store this key now; it cannot be shown again.")
	return nil
}

func listKeys(ctx context.Context, keys keyManager, out io.Writer) error {
	list, err := keys.ListAPIKeys(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tSCOPES\tLAST USED")
	for _, k := range list {
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", k.ID, k.Name, k.KeyPrefix, strings.Join(k.Scopes, ","), lastUsed)
	}
	return tw.Flush()
}

// generateRawKey returns "vt_" followed by hex-encoded random bytes.
func generateRawKey() (string, error) {
	b := make([]byte, keyRandomSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return keyPrefix + hex.EncodeToString(b), nil
}

func splitScopes(s string) []string {
	var scopes []string
	for _, scope := range strings.Split(s, ",") {
		if scope = strings.TrimSpace(scope); scope != "" {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}
