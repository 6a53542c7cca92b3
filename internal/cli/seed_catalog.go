package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/avolkau/inkshelf/internal/assets"
	"github.com/avolkau/inkshelf/internal/config"
	"github.com/avolkau/inkshelf/internal/database"
	"github.com/avolkau/inkshelf/internal/database/books"
	"github.com/avolkau/inkshelf/internal/entities"
)

// SeedCatalogCommand loads a small demo catalog so a fresh install has
// something to browse and purchase against.
type SeedCatalogCommand struct {
	DatabasePath string
	Force        bool
}

// NewSeedCatalogCommand creates a new SeedCatalogCommand
func NewSeedCatalogCommand() *SeedCatalogCommand {
	return &SeedCatalogCommand{}
}

// ParseFlags parses command line flags
func (cmd *SeedCatalogCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed-catalog", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (defaults to DATABASE_PATH)")
	fs.BoolVar(&cmd.Force, "force", false, "Seed even when the catalog already has books")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed-catalog [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Insert a small demo catalog of free and paid books.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

type seedBook struct {
	Title       string
	Author      string
	Description string
	PriceCents  int64
	Type        entities.BookType
	AssetRef    string
}

var demoCatalog = []seedBook{
	{
		Title:       "The Time Machine",
		Author:      "H. G. Wells",
		Description: "A Victorian scientist travels hundreds of thousands of years into the future.",
		PriceCents:  0,
		Type:        entities.BookTypeEbook,
		AssetRef:    "1TimeMachineDemoFileRef0000000000",
	},
	{
		Title:       "Frankenstein",
		Author:      "Mary Shelley",
		Description: "The modern Prometheus.",
		PriceCents:  0,
		Type:        entities.BookTypeEbook,
		AssetRef:    "1FrankensteinDemoFileRef000000000",
	},
	{
		Title:       "Deep Work in Distributed Systems",
		Author:      "N. Petrova",
		Description: "Field notes on building storage systems that survive operators.",
		PriceCents:  2499,
		Type:        entities.BookTypeEbook,
		AssetRef:    "1DeepWorkDemoFileRef0000000000000",
	},
	{
		Title:       "The Sound of Paper",
		Author:      "J. Okafor",
		Description: "An audiobook essay collection on reading in the digital age.",
		PriceCents:  1499,
		Type:        entities.BookTypeAudiobook,
		AssetRef:    "1SoundOfPaperDemoFileRef000000000",
	},
}

// Run executes the seed-catalog command
func (cmd *SeedCatalogCommand) Run() error {
	cfg := config.NewConfig()
	if cmd.DatabasePath != "" {
		cfg.Database.Path = cmd.DatabasePath
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)

	if !cmd.Force {
		_, total, err := repo.List(books.ListFilter{Limit: 1})
		if err != nil {
			return fmt.Errorf("failed to inspect catalog: %w", err)
		}
		if total > 0 {
			return fmt.Errorf("catalog already has %d book(s); use -force to seed anyway", total)
		}
	}

	for _, seed := range demoCatalog {
		fileID, ok := assets.ExtractFileID(seed.AssetRef)
		if !ok {
			return fmt.Errorf("invalid asset ref for %q", seed.Title)
		}

		book := &entities.Book{
			Title:       seed.Title,
			Author:      seed.Author,
			Description: seed.Description,
			PriceCents:  seed.PriceCents,
			Type:        seed.Type,
			AssetRef:    fileID,
			DownloadURL: assets.DownloadURL(fileID),
			PreviewURL:  assets.PreviewURL(fileID),
			Active:      true,
		}
		if err := repo.Create(book); err != nil {
			return fmt.Errorf("failed to create %q: %w", seed.Title, err)
		}
		fmt.Printf("Seeded %q (id %d)\n", book.Title, book.ID)
	}

	fmt.Printf("Seeded %d books\n", len(demoCatalog))
	return nil
}
