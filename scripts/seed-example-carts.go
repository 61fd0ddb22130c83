package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/dom/pixelcart/internal/config"
	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/logging"
	"github.com/dom/pixelcart/internal/repository/postgres"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type exampleCart struct {
	Name       string
	MaxPlayers int
	Code       string
	Manifest   string
}

var examples = []exampleCart{
	{
		Name:       "Pong",
		MaxPlayers: 2,
		Code:       "-- pong\nfunction _init() p1,p2=56,56 end\nfunction _update() end\nfunction _draw() cls() rect(0,p1,2,p1+16) rect(125,p2,127,p2+16) end\n",
		Manifest:   `{"version":1,"genre":"sports","input":"paddle"}`,
	},
	{
		Name:       "Tank Arena",
		MaxPlayers: 4,
		Code:       "-- tank arena\nfunction _update() end\nfunction _draw() cls(1) end\n",
		Manifest:   `{"version":1,"genre":"action","input":"twin-stick"}`,
	},
	{
		Name:       "Snake Party",
		MaxPlayers: 6,
		Code:       "-- snake party\nfunction _update() end\nfunction _draw() cls(3) end\n",
		Manifest:   `{"version":1,"genre":"arcade","input":"dpad"}`,
	},
	{
		Name:       "Solitaire",
		MaxPlayers: 1,
		Code:       "-- solitaire\nfunction _update() end\nfunction _draw() cls(11) end\n",
		Manifest:   `{"version":1,"genre":"cards","input":"pointer"}`,
	},
}

func main() {
	dryRun := flag.Bool("dry-run", false, "List what would be inserted without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := postgres.NewConnection(cfg.DatabaseURL, cfg.GormLogLevel())
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}

	ctx := context.Background()
	inserted := 0
	for _, ex := range examples {
		created, err := seed(ctx, db, ex, *dryRun)
		if err != nil {
			logger.WithError(err).WithField("cart", ex.Name).Error("failed to seed example cart")
			os.Exit(1)
		}
		if created {
			inserted++
		}
		logger.WithFields(logrus.Fields{
			"cart":       ex.Name,
			"maxPlayers": ex.MaxPlayers,
			"created":    created,
		}).Info("Example cart")
	}

	logger.WithFields(logrus.Fields{"inserted": inserted, "dryRun": *dryRun}).Info("Seeding complete")
}

// seed inserts an owner-less example cart unless one with the same name
// already exists.
func seed(ctx context.Context, db *gorm.DB, ex exampleCart, dryRun bool) (bool, error) {
	var existing domain.Cart
	err := db.WithContext(ctx).Where("is_example = ? AND name = ?", true, ex.Name).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if dryRun {
		return true, nil
	}

	cart := &domain.Cart{
		Name:       ex.Name,
		IsPublic:   true,
		IsExample:  true,
		MaxPlayers: ex.MaxPlayers,
		Code:       ex.Code,
		Manifest:   datatypes.JSON(ex.Manifest),
	}
	return true, db.WithContext(ctx).Create(cart).Error
}
