package host

import (
	"context"
	"path/filepath"
	"time"

	"github.com/earljohn004/centralized-pisonet-app/internal/config"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// StationWatcher reloads the station file when it changes on disk.
// It watches the parent directory so atomic rename-on-save is seen.
type StationWatcher struct {
	path     string
	onReload func(*config.Station)
	debounce time.Duration
	log      zerolog.Logger
}

func NewStationWatcher(path string, onReload func(*config.Station), log zerolog.Logger) *StationWatcher {
	return &StationWatcher{
		path:     filepath.Clean(path),
		onReload: onReload,
		debounce: 200 * time.Millisecond,
		log:      log.With().Str("component", "station-watcher").Str("path", path).Logger(),
	}
}

// Run watches until ctx is cancelled.
func (w *StationWatcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	var debounceTimer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			w.reload()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *StationWatcher) reload() {
	st, err := config.LoadStation(w.path)
	if err != nil {
		w.log.Warn().Err(err).Msg("station reload failed, keeping previous")
		return
	}
	w.log.Info().Msg("station reloaded")
	w.onReload(st)
}
