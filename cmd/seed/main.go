// Command seed fills a database with generated shopping lists.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jaswdr/faker"

	"listsnap/internal/platform/config"
	"listsnap/internal/platform/database"
	"listsnap/internal/platform/logger"
	"listsnap/internal/shopping/live"
	"listsnap/internal/shopping/models"
	"listsnap/internal/shopping/orchestrator"
	"listsnap/internal/shopping/repository"
	"listsnap/internal/shopping/store"
)

func main() {
	lists := flag.Int("lists", 10, "number of lists to create")
	maxItems := flag.Int("max-items", 12, "maximum items per list")
	withPhotos := flag.Bool("photos", true, "attach a generated photo to every other list")
	flag.Parse()

	if err := run(*lists, *maxItems, *withPhotos); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run(lists, maxItems int, withPhotos bool) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)
	ctx := context.Background()

	sqlDB, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	dialect, _ := store.DialectByName(cfg.Database.Driver)
	db := store.New(sqlDB, dialect, store.WithLogger(log), store.WithTxTimeout(cfg.Database.TxTimeout))
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	hub := live.NewHub(live.WithLogger(log))
	photos := repository.NewPhotoRepository(db, hub, nil, repository.WithLogger(log))
	fake := faker.New()
	start := time.Now().Add(-time.Duration(lists) * 24 * time.Hour)

	for i := range lists {
		created := start.Add(time.Duration(i) * 24 * time.Hour)
		orch := orchestrator.New(db,
			orchestrator.WithLogger(log),
			orchestrator.WithClock(func() time.Time { return created }),
		)

		var photoRef *models.Photo
		if withPhotos && i%2 == 0 {
			photoRef = &models.Photo{
				FilePath:  fmt.Sprintf("/photos/%s.jpg", fake.UUID().V4()),
				Timestamp: created,
				OCRStatus: models.OCRCompleted,
			}
			if _, err := photos.Insert(ctx, photoRef); err != nil {
				return err
			}
		}

		text := listText(fake, 2+fake.IntBetween(0, maxItems-2))
		var err error
		if photoRef != nil {
			_, err = orch.CreateListFromText(ctx, &photoRef.ID, text)
		} else {
			_, err = orch.CreateListFromText(ctx, nil, text)
		}
		if err != nil {
			return err
		}
	}
	log.Info("seeded database", "lists", lists, "driver", dialect.Name)
	return nil
}

// listText renders n items with a mix of the bullet styles handwritten lists use.
func listText(fake faker.Faker, n int) string {
	lines := make([]string, n)
	for i := range lines {
		var item string
		switch fake.IntBetween(0, 2) {
		case 0:
			item = fake.Food().Fruit()
		case 1:
			item = fake.Food().Vegetable()
		default:
			item = fake.Lorem().Word() + " " + fake.Food().Vegetable()
		}
		switch i % 4 {
		case 0:
			lines[i] = "- " + item
		case 1:
			lines[i] = fmt.Sprintf("%d. %s", i+1, item)
		case 2:
			lines[i] = "• " + item
		default:
			lines[i] = item
		}
	}
	return strings.Join(lines, "\n")
}
