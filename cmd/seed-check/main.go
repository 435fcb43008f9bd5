// Command seed-check loads a seed alert file the way the server does and
// reports anything the board would drop or that a submission would reject.
//
// Usage:
//
//	go run ./cmd/seed-check -file alerts.yaml
//
// Without -file the built-in mock alerts are checked.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-community-alerts/internal/board"
	"github.com/mr1hm/go-community-alerts/internal/config"
	"github.com/mr1hm/go-community-alerts/internal/models"
	"github.com/mr1hm/go-community-alerts/internal/seed"
)

func main() {
	_ = godotenv.Load()

	path := flag.String("file", "", "seed YAML file (defaults to SEED_FILE, then the built-in alerts)")
	flag.Parse()

	if *path == "" {
		if cfg, err := config.Load(); err == nil {
			*path = cfg.Board.SeedFile
		}
	}

	os.Exit(run(os.Stdout, *path, clockwork.NewRealClock()))
}

func run(out io.Writer, path string, clock clockwork.Clock) int {
	now := clock.Now()

	var (
		alerts []models.Alert
		err    error
	)
	if path == "" {
		fmt.Fprintln(out, "checking built-in seed alerts")
		alerts, err = seed.Default(now)
	} else {
		fmt.Fprintf(out, "checking %s\n", path)
		alerts, err = seed.LoadFile(path, now)
	}
	if err != nil {
		fmt.Fprintf(out, "FAIL: %v\n", err)
		return 1
	}

	problems := 0
	for _, a := range alerts {
		draft := models.Draft{
			Title:       a.Title,
			Description: a.Description,
			Category:    a.Category,
			Location:    a.Location,
			Severity:    a.Severity,
		}
		if _, err := board.Validate(draft); err != nil {
			fmt.Fprintf(out, "  alert %s: %v\n", a.ID, err)
			problems++
		}
		if a.Timestamp.After(now) {
			fmt.Fprintf(out, "  alert %s: timestamp is in the future\n", a.ID)
			problems++
		}
	}

	store := board.New(board.WithSeed(alerts), board.WithClock(clock))
	if dropped := len(alerts) - store.Len(); dropped > 0 {
		fmt.Fprintf(out, "  %d alert(s) dropped for duplicate ids\n", dropped)
		problems += dropped
	}

	fmt.Fprintf(out, "%d alert(s) loaded\n", store.Len())
	for _, cat := range models.Categories {
		n := len(board.Filter(store.Alerts(), models.Criteria{Category: string(cat)}))
		if n > 0 {
			fmt.Fprintf(out, "  %s %-10s %d\n", cat.Icon(), cat, n)
		}
	}

	mapped := 0
	for _, a := range store.Alerts() {
		if a.Coordinates != nil {
			mapped++
		}
	}
	fmt.Fprintf(out, "  %d of %d with coordinates (oldest %s ago)\n", mapped, store.Len(), oldest(store.Alerts(), now))

	if problems > 0 {
		fmt.Fprintf(out, "FAIL: %d problem(s)\n", problems)
		return 1
	}
	fmt.Fprintln(out, "OK")
	return 0
}

func oldest(alerts []models.Alert, now time.Time) time.Duration {
	var age time.Duration
	for _, a := range alerts {
		if d := now.Sub(a.Timestamp); d > age {
			age = d
		}
	}
	return age.Round(time.Minute)
}
