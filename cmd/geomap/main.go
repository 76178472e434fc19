package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"fieldmap/internal/config"
	"fieldmap/internal/logger"
	"fieldmap/internal/store"
	"fieldmap/internal/tui"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"   env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Worksite   string `short:"w" long:"worksite" env:"WORKSITE"    description:"Worksite to open, overrides the configuration"`
	Store      string `short:"s" long:"store"    env:"STORE"       description:"Geofence store driver, overrides the configuration" choice:"file" choice:"postgres"`

	Args struct {
		Overlay string `positional-arg-name:"overlay" description:"GeoJSON file shown on top of the worksite"`
	} `positional-args:"yes"`
}

func main() {
	_ = godotenv.Load(".env.local")

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// the terminal belongs to the map once it starts
	if opts.Logger.File == "" {
		opts.Logger.File = "fieldmap.log"
	}
	opts.Logger.Setup()
	defer opts.Logger.Close()

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	backend, err := openBackend(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open geofence store")
	}
	ws := store.Worksite{Backend: backend, ID: cfg.Worksite}

	sources, err := cfg.LoadSources()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load sources")
	}

	tuiOpts := tui.Options{
		Worksite:      cfg.Worksite,
		Sources:       sources,
		Stored:        ws,
		Persister:     ws,
		Styles:        cfg.StyleTable(),
		Highlight:     cfg.Drawing.Highlight,
		DefaultRadius: cfg.Drawing.DefaultRadius,
	}
	var m tea.Model
	if opts.Args.Overlay != "" {
		m = tui.NewWithPath(tuiOpts, opts.Args.Overlay)
	} else {
		m = tui.New(tuiOpts)
	}

	log.Info().Str("worksite", cfg.Worksite).Str("driver", cfg.Store.Driver).Int("sources", len(sources)).Msg("Starting fieldmap")
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run(); err != nil {
		log.Fatal().Err(err).Msg("Map terminated")
	}
}

// loadConfig reads the configuration file, or starts from the defaults when
// there is none, then applies command line overrides.
func loadConfig(opts Options) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(opts.ConfigFile); err == nil {
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			return nil, err
		}
	} else {
		log.Warn().Str("path", opts.ConfigFile).Msg("No configuration file, using defaults")
	}
	if opts.Worksite != "" {
		cfg.Worksite = opts.Worksite
	}
	if opts.Store != "" {
		cfg.Store.Driver = opts.Store
		if cfg.Store.DSN == "" {
			cfg.Store.DSN = os.Getenv("DATABASE_URL")
		}
	}
	return cfg, cfg.Validate()
}

func openBackend(cfg config.Store) (store.Backend, error) {
	if cfg.Driver != "postgres" {
		return store.NewFileStore(cfg.Path), nil
	}
	db, err := store.OpenPostgres(cfg.DSN)
	if err != nil {
		return nil, err
	}
	pg := store.NewPostgresStore(db)
	if err := pg.Migrate(); err != nil {
		return nil, err
	}
	return pg, nil
}
