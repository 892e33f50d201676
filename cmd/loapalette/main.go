// Package main provides the loapalette command line companion: deck and
// match management backed by the local document store, and card search
// against the Lorcana catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/loapalette/companion/internal/config"
	"github.com/loapalette/companion/internal/deck"
	"github.com/loapalette/companion/internal/events"
	"github.com/loapalette/companion/internal/identity"
	"github.com/loapalette/companion/internal/lorcana/cards"
	"github.com/loapalette/companion/internal/lorcana/catalog"
	"github.com/loapalette/companion/internal/lorcana/query"
	"github.com/loapalette/companion/internal/remoteconfig"
	"github.com/loapalette/companion/internal/repository"
	"github.com/loapalette/companion/internal/search"
	"github.com/loapalette/companion/internal/storage"
	"github.com/loapalette/companion/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "version":
		fmt.Println(version.GetVersion())
		return
	case "help", "-h", "--help":
		usage()
		return
	}

	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	var cmdErr error
	switch os.Args[1] {
	case "search":
		cmdErr = app.cmdSearch(os.Args[2:])
	case "decks":
		cmdErr = app.cmdDecks(os.Args[2:])
	case "deck-add":
		cmdErr = app.cmdDeckAdd(os.Args[2:])
	case "deck-del":
		cmdErr = app.cmdDeckDelete(os.Args[2:])
	case "card-add":
		cmdErr = app.cmdCardAdd(os.Args[2:])
	case "record":
		cmdErr = app.cmdRecord(os.Args[2:])
	case "migrate":
		cmdErr = app.cmdMigrate(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("loapalette - Lorcana deck and match companion")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  loapalette search [query]      Search the card catalog")
	fmt.Println("  loapalette decks               List decks with win rates")
	fmt.Println("  loapalette deck-add            Create a deck")
	fmt.Println("  loapalette deck-del <id>       Delete a deck")
	fmt.Println("  loapalette card-add            Add a card to a deck")
	fmt.Println("  loapalette record              Record a match result")
	fmt.Println("  loapalette migrate             Apply pending schema migrations")
	fmt.Println("  loapalette version             Print the application version")
}

type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	db     *storage.DB
	remote *remoteconfig.Provider
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := zerolog.WarnLevel
	if cfg.App.DebugMode {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	dbPath := cfg.Storage.DatabasePath
	if dbPath == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(dir, "decks.db")
	}

	dbCfg := storage.DefaultConfig(dbPath)
	dbCfg.AutoMigrate = true
	db, err := storage.Open(dbCfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: logger, db: db}

	if cfg.RemoteConfig.FilePath != "" {
		remote, err := remoteconfig.New(cfg.RemoteConfig.FilePath, cfg.RemoteConfig.LiveReload, logger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.remote = remote
		if banner := remote.GetString("banner", ""); banner != "" {
			fmt.Println(banner)
			fmt.Println()
		}
	}

	return a, nil
}

func (a *app) close() {
	if a.remote != nil {
		_ = a.remote.Close()
	}
	_ = a.db.Close()
}

// pageSize prefers the operator-tuned value over the local config.
func (a *app) pageSize() int {
	size := a.cfg.Search.PageSize
	if a.remote != nil {
		size = int(a.remote.GetInt("search.page_size", int64(size)))
	}
	return size
}

// openRepository builds the synchronized deck repository and waits for its
// initial load.
func (a *app) openRepository() (*repository.Repository, error) {
	dispatcher := events.NewDispatcher(a.log)
	dispatcher.Register(events.NewLoggingObserver(a.log, a.cfg.App.VerboseEvents))

	identityPath := a.cfg.Storage.IdentityPath
	if identityPath == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		identityPath = filepath.Join(dir, "identity")
	}
	ident := identity.NewFileProvider(identityPath, a.log)

	legacyPath := a.cfg.Storage.LegacyDecksPath
	if legacyPath == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		legacyPath = filepath.Join(dir, "decks.json")
	}
	legacy := func() ([]deck.Deck, error) { return storage.ReadLegacyDecks(legacyPath) }

	store := storage.NewDeckStore(a.db, a.log)
	settings := storage.NewSettingsStore(a.db)

	repo := repository.New(store, settings, ident, legacy, dispatcher, a.log)
	repo.Start()

	deadline := time.Now().Add(10 * time.Second)
	for repo.IsLoading() {
		if time.Now().After(deadline) {
			repo.Close()
			return nil, fmt.Errorf("timed out waiting for deck repository")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return repo, nil
}

// waitForSaves blocks until the repository's background writes settle.
func waitForSaves(repo *repository.Repository) {
	deadline := time.Now().Add(10 * time.Second)
	for repo.IsSaving() {
		if time.Now().After(deadline) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (a *app) cmdSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	pages := fs.Int("pages", 1, "Number of result pages to fetch")
	costMin := fs.Int("cost-min", -1, "Minimum ink cost")
	costMax := fs.Int("cost-max", -1, "Maximum ink cost")
	colors := fs.String("color", "", "Comma-separated ink colors")
	types := fs.String("type", "", "Comma-separated card types")
	rarities := fs.String("rarity", "", "Comma-separated rarities")
	setName := fs.String("set", "", "Set name (partial match)")
	inkable := fs.String("inkable", "", "Filter on inkwell flag: true or false")
	if err := fs.Parse(args); err != nil {
		return err
	}

	expr, err := buildSearchExpression(fs, *costMin, *costMax, *colors, *types, *rarities, *setName, *inkable)
	if err != nil {
		return err
	}

	client := catalog.NewClient(a.cfg.Catalog.BaseURL, a.log)

	done := make(chan search.Snapshot, 1)
	ctrl := search.NewController(client, a.log,
		search.WithPageSize(a.pageSize()),
		search.WithDebounceInterval(time.Millisecond),
		search.WithOnChange(func(s search.Snapshot) {
			if s.Status == search.StatusSuccess || s.Status == search.StatusError {
				select {
				case done <- s:
				default:
				}
			}
		}))
	defer ctrl.Cleanup()

	fetch := func() (search.Snapshot, error) {
		select {
		case s := <-done:
			return s, nil
		case <-time.After(30 * time.Second):
			return search.Snapshot{}, fmt.Errorf("catalog request timed out")
		}
	}

	ctrl.Search(expr)
	snap, err := fetch()
	if err != nil {
		return err
	}
	for p := 1; p < *pages && snap.HasMore && snap.Status == search.StatusSuccess; p++ {
		ctrl.LoadMore()
		if snap, err = fetch(); err != nil {
			return err
		}
	}

	if snap.Status == search.StatusError {
		return fmt.Errorf("search failed: %s", snap.ErrorMessage)
	}

	printCards(snap.Cards)
	if snap.HasMore {
		fmt.Println("... more results available, use -pages")
	}
	return nil
}

// buildSearchExpression turns the search flags and positional name words
// into a catalog filter expression. With no flags set, the positional
// arguments pass through verbatim so raw grammar is still available.
func buildSearchExpression(fs *flag.FlagSet, costMin, costMax int, colors, types, rarities, setName, inkable string) (string, error) {
	name := strings.Join(fs.Args(), " ")

	crit := query.Criteria{
		SetName:  setName,
		Colors:   splitList(colors),
		Types:    splitList(types),
		Rarities: splitList(rarities),
	}
	if costMin >= 0 {
		crit.CostMin = &costMin
	}
	if costMax >= 0 {
		crit.CostMax = &costMax
	}
	switch inkable {
	case "":
	case "true", "false":
		v := inkable == "true"
		crit.Inkable = &v
	default:
		return "", fmt.Errorf("-inkable must be true or false, got %q", inkable)
	}

	if crit.Expression() == "" {
		return name, nil
	}
	crit.Name = name
	return crit.Expression(), nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printCards(list []cards.Card) {
	if len(list) == 0 {
		fmt.Println("No cards found.")
		return
	}
	for _, c := range list {
		cost := "-"
		if c.Cost != nil {
			cost = fmt.Sprintf("%d", *c.Cost)
		}
		fmt.Printf("%-12s %-3s %-10s %s\n", c.ID, cost, c.Color, c.Name)
	}
}

func (a *app) cmdDecks(args []string) error {
	fs := flag.NewFlagSet("decks", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	repo, err := a.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	decks := repo.Decks()
	if len(decks) == 0 {
		fmt.Println("No decks yet. Create one with deck-add.")
		return nil
	}

	for _, d := range decks {
		record := ""
		if wins, losses := d.Wins(), d.Losses(); wins+losses > 0 {
			record = fmt.Sprintf("  %d-%d (%.0f%%)", wins, losses, d.WinRate())
		}
		fmt.Printf("%s  %-24s %2d cards%s\n", d.ID, d.Name, d.TotalCardCount(), record)
		if d.Memo != "" {
			fmt.Printf("    memo: %s\n", d.Memo)
		}
	}
	return nil
}

func parseInks(s string) ([]deck.Ink, error) {
	if s == "" {
		return nil, nil
	}
	var inks []deck.Ink
	for _, part := range strings.Split(s, ",") {
		ink, ok := deck.ParseInk(strings.TrimSpace(part))
		if !ok {
			return nil, fmt.Errorf("unknown ink color %q", part)
		}
		inks = append(inks, ink)
	}
	return inks, nil
}

func (a *app) cmdDeckAdd(args []string) error {
	fs := flag.NewFlagSet("deck-add", flag.ExitOnError)
	name := fs.String("name", "", "Deck name (default: derived from ink colors)")
	inksFlag := fs.String("inks", "", "Comma-separated ink colors, e.g. amber,steel")
	memo := fs.String("memo", "", "Deck memo")
	if err := fs.Parse(args); err != nil {
		return err
	}

	inks, err := parseInks(*inksFlag)
	if err != nil {
		return err
	}
	if *name == "" && len(inks) == 0 {
		return fmt.Errorf("either -name or -inks is required")
	}

	repo, err := a.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	d, err := repo.AddDeck(*name, inks)
	if err != nil {
		return err
	}
	if *memo != "" {
		if err := repo.UpdateMemo(d.ID, *memo); err != nil {
			return err
		}
	}
	waitForSaves(repo)

	fmt.Printf("Created deck %s (%s)\n", d.Name, d.ID)
	return nil
}

func (a *app) cmdDeckDelete(args []string) error {
	fs := flag.NewFlagSet("deck-del", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: loapalette deck-del <deck-id>")
	}

	repo, err := a.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.DeleteDeck(fs.Arg(0)); err != nil {
		return err
	}
	waitForSaves(repo)

	fmt.Println("Deck deleted.")
	return nil
}

func (a *app) cmdCardAdd(args []string) error {
	fs := flag.NewFlagSet("card-add", flag.ExitOnError)
	deckID := fs.String("deck", "", "Deck id")
	searchExpr := fs.String("query", "", "Catalog search; the first match is added")
	count := fs.Int("count", 1, "Number of copies")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *deckID == "" || *searchExpr == "" {
		return fmt.Errorf("both -deck and -query are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := catalog.NewClient(a.cfg.Catalog.BaseURL, a.log)
	page, err := client.Search(ctx, *searchExpr, 1, a.pageSize())
	if err != nil {
		return err
	}
	if len(page.Cards) == 0 {
		return fmt.Errorf("no card matches %q", *searchExpr)
	}
	card := page.Cards[0]

	repo, err := a.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.AddCard(*deckID, card, *count); err != nil {
		return err
	}
	waitForSaves(repo)

	fmt.Printf("Added %dx %s\n", *count, card.Name)
	return nil
}

func (a *app) cmdRecord(args []string) error {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	deckID := fs.String("deck", "", "Deck id")
	win := fs.Bool("win", false, "Record a win (default: loss)")
	oppInks := fs.String("opp-inks", "", "Opponent ink colors, e.g. ruby,emerald")
	oppName := fs.String("opp-name", "", "Opponent deck name (default: derived from inks)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *deckID == "" {
		return fmt.Errorf("-deck is required")
	}

	inks, err := parseInks(*oppInks)
	if err != nil {
		return err
	}

	repo, err := a.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	rec := deck.NewMatchRecord(inks, *oppName, *win, time.Time{})
	if err := repo.AddMatchRecord(*deckID, rec); err != nil {
		return err
	}
	waitForSaves(repo)

	d, err := repo.Deck(*deckID)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded. %s is now %d-%d (%.0f%%)\n", d.Name, d.Wins(), d.Losses(), d.WinRate())
	return nil
}

func (a *app) cmdMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	mgr, err := storage.NewMigrationManager(a.db.Conn())
	if err != nil {
		return err
	}
	if err := mgr.Up(); err != nil {
		return err
	}

	schemaVersion, dirty, err := mgr.Version()
	if err != nil {
		return err
	}
	fmt.Printf("Schema at version %d (dirty=%v)\n", schemaVersion, dirty)
	return nil
}
