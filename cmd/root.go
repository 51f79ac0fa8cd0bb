package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/scaleref/internal/bilinear"
	"github.com/andresmejia3/scaleref/internal/raster"
	"github.com/andresmejia3/scaleref/internal/store"
	"github.com/andresmejia3/scaleref/internal/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Options holds the geometry and output flags shared by golden, vectors,
// coords and verify.
type Options struct {
	InputPath string
	Width     int
	Height    int
	ScaleText string
	OutRaw    string
	OutPGM    string
	Units     int
	Record    bool
}

var (
	// DB is the ledger connection, opened only by commands that need it
	DB *store.Store
	// dbURL is the connection string
	dbURL string
)

// Version is the application version.
const Version = "0.1.0"

// errMismatch makes a command exit non-zero after its report is printed.
var errMismatch = errors.New("outputs differ")

// shownError marks an error already printed in the error box.
type shownError struct{ error }

func (e shownError) Unwrap() error { return e.error }

var rootCmd = &cobra.Command{
	Use:           "scaleref",
	Short:         "Bit-exact golden model for the fixed-point bilinear downscaler",
	Version:       Version,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// The main context may already be cancelled by Ctrl+C.
			DB.Close(context.Background())
			DB = nil
		}
	},
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var shown shownError
		if !errors.As(err, &shown) && !errors.Is(err, errMismatch) {
			// Flag and argument errors raised by cobra itself
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string (default: built from POSTGRES_* or postgres://localhost:5432/scaleref)")
}

// resolveDBURL applies the --db flag, then the POSTGRES_* environment, then
// the local default.
func resolveDBURL() string {
	if dbURL != "" {
		return dbURL
	}
	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		name := os.Getenv("POSTGRES_DB")
		port := os.Getenv("POSTGRES_PORT")
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
	}
	return "postgres://localhost:5432/scaleref"
}

// openStore connects to the ledger on first use.
func openStore(ctx context.Context) (*store.Store, error) {
	if DB != nil {
		return DB, nil
	}
	s, err := store.New(ctx, resolveDBURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	DB = s
	return DB, nil
}

// fail reports err in the error box and hands it back to cobra.
func fail(context string, err error) error {
	utils.ShowError(context, err, nil)
	return shownError{err}
}

// parseGeometry validates the input size and scale flags.
func parseGeometry(w, h int, scaleText string) (bilinear.Scale, error) {
	if w < 1 || h < 1 {
		return 0, fmt.Errorf("%w: %dx%d", raster.ErrInvalidDims, w, h)
	}
	s, err := bilinear.ParseScale(scaleText)
	if err != nil {
		return 0, err
	}
	if _, _, err := bilinear.OutputDims(w, h, s); err != nil {
		return 0, err
	}
	return s, nil
}

// newProgressBar draws on stderr when it is a terminal and stays silent
// otherwise so piped output is not polluted.
func newProgressBar(total int, desc string) *progressbar.ProgressBar {
	if !utils.IsTerminal(os.Stderr) {
		return progressbar.DefaultSilent(int64(total), desc)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
}
