package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/knygynas/internal/config"
	"github.com/conneroisu/knygynas/internal/store"
	"github.com/conneroisu/knygynas/internal/types"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Inspect the stored book catalog",
}

var booksListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l", "ls"},
	Short:   "List the stored books",
	Long: `List every book in the configured storage backend in insertion order.

Examples:
  knygynas books list                 # Table output
  knygynas books list --format json   # JSON array as stored`,
	RunE: runBooksList,
}

var booksFormat string

func init() {
	rootCmd.AddCommand(booksCmd)
	booksCmd.AddCommand(booksListCmd)

	booksListCmd.Flags().StringVarP(&booksFormat, "format", "f", formatTable, "Output format (table, json)")
	AddFlagValidation(booksListCmd.Flags(), "format", formatValidator(formatTable, formatJSON))
}

func runBooksList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	books, err := loadCatalog(cmd.Context(), cfg.Storage)
	if err != nil {
		return err
	}

	switch booksFormat {
	case formatJSON:
		return outputBooksJSON(cmd.OutOrStdout(), books)
	default:
		return outputBooksTable(cmd.OutOrStdout(), books)
	}
}

func loadCatalog(ctx context.Context, cfg config.StorageConfig) ([]types.Book, error) {
	st, err := store.OpenExisting(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Backend, err)
	}
	defer st.Close()

	return st.LoadBooks(ctx)
}

func outputBooksTable(w io.Writer, books []types.Book) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tYEAR\tGENRE\tISBN\tPAGES")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Title, b.Author, b.Year, b.Genre, b.ISBN, b.Pages)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTotal: %d books\n", len(books))
	return nil
}

func outputBooksJSON(w io.Writer, books []types.Book) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(books)
}
