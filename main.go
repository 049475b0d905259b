// rdns.toys - a DNS server that answers toy queries synthesized from the
// question name itself: mumbai.geo.example looks up a city, 5.uuid.example
// generates UUIDs, 1-100.random.example rolls a number.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/devharshthakur/rdns.toys/geo"
	"github.com/devharshthakur/rdns.toys/toys"
)

func main() {
	configPath := flag.String("config", "config.toml", "Path to the TOML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	registry, index := buildRegistry(cfg)

	handler := newDNSHandler(registry)
	dnsServers := startDNSServers(cfg.Listen, handler)

	admin := newAdminServer(cfg.AdminListen, registry, index)
	go func() {
		logrus.WithField("addr", cfg.AdminListen).Info("Admin server listening")
		if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Admin server failed")
		}
	}()

	go watchConfig(*configPath)

	logrus.WithFields(logrus.Fields{
		"domain":   cfg.Domain,
		"listen":   cfg.Listen,
		"services": registry.Suffixes(),
	}).Info("rdns.toys is up")

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan

	logrus.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, srv := range dnsServers {
		if err := srv.ShutdownContext(ctx); err != nil {
			logrus.WithError(err).Warn("DNS server shutdown error")
		}
	}
	if err := admin.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("Admin server shutdown error")
	}
}

// buildRegistry loads the gazetteer, builds the geo index and registers
// every service. All of this happens before the server accepts traffic;
// afterwards the registry and index are read-only. Data or registration
// problems are fatal: running with a silently empty geo index would turn
// every query into a confusing miss.
func buildRegistry(cfg Config) (*toys.Registry, *geo.Index) {
	locations, err := geo.Load(cfg.GeoData)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load geo data")
	}
	index := geo.NewIndex(locations)
	logrus.WithFields(logrus.Fields{
		"path":      cfg.GeoData,
		"locations": index.Count(),
	}).Info("Geo index built")

	registry := toys.NewRegistry(cfg.Domain, nil)

	register := func(suffix string, svc toys.Service) {
		if err := registry.Register(suffix, svc); err != nil {
			logrus.WithError(err).Fatal("Failed to register service")
		}
	}
	register("geo", toys.NewGeoService(index))
	register("pi", toys.NewPiService())
	register("uuid", toys.NewUUIDService(cfg.UUIDMax))
	register("random", toys.NewRandomService())

	return registry, index
}

// watchConfig watches the config file and logs when it changes. The
// registry and geo index are fixed at startup, so a change only takes
// effect on restart; the notice keeps operators from waiting on a reload
// that will never happen.
func watchConfig(path string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logrus.WithError(err).Warn("Failed to create config watcher")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logrus.WithError(err).Warn("Failed to watch config directory")
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name == path && (event.Op&fsnotify.Write != 0 || event.Op&fsnotify.Create != 0) {
				logrus.Warn("Config file changed; restart to apply")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Warn("Config watcher error")
		}
	}
}
