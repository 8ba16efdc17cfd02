package main

import (
	"fmt"
	"time"

	"epk-api-go/catalog"
	"epk-api-go/config"
	"epk-api-go/contact"
	"epk-api-go/logcolors"
	"epk-api-go/notifier"
	"epk-api-go/stats"
	"epk-api-go/timing"

	log "github.com/sirupsen/logrus"
)

// audioLinger is how long a decoded track stays shared after its decode
// finishes, so a page loading timed lyrics and the visualizer decodes once
const audioLinger = 2 * time.Second

// server holds the dependencies shared by every handler
type server struct {
	catalog    *catalog.Catalog
	loader     *catalog.Loader
	audio      *trackAudio
	contacts   *contact.Store
	dispatcher *notifier.Dispatcher

	mapOptions  timing.MapOptions
	audioTiming bool
}

func setupNotifiers(c config.Config) []notifier.Notifier {
	var notifiers []notifier.Notifier
	n := c.Notifiers

	if n.SMTPHost != "" {
		notifiers = append(notifiers, &notifier.EmailNotifier{
			SMTPHost:     n.SMTPHost,
			SMTPPort:     n.SMTPPort,
			SMTPUsername: n.SMTPUsername,
			SMTPPassword: n.SMTPPassword,
			FromEmail:    n.FromEmail,
			ToEmail:      n.ToEmail,
		})
		log.Infof("%s Email notifier enabled", logcolors.LogNotifier)
	}

	if n.TelegramBotToken != "" {
		notifiers = append(notifiers, &notifier.TelegramNotifier{
			BotToken: n.TelegramBotToken,
			ChatID:   n.TelegramChatID,
		})
		log.Infof("%s Telegram notifier enabled", logcolors.LogNotifier)
	}

	if n.NtfyTopic != "" {
		notifiers = append(notifiers, &notifier.NtfyNotifier{
			Topic:  n.NtfyTopic,
			Server: n.NtfyServer,
		})
		log.Infof("%s Ntfy.sh notifier enabled", logcolors.LogNotifier)
	}

	if len(notifiers) == 0 {
		log.Infof("%s No notifiers configured, contact messages are only stored", logcolors.LogNotifier)
	}
	return notifiers
}

// newServer wires the catalog, asset loader, contact store and notifiers
// from configuration. A contact store that fails to open leaves the rest of
// the API serving.
func newServer(c config.Config) (*server, error) {
	cat, err := catalog.Load(c.Configuration.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Infof("%s Loaded %d tracks", logcolors.LogCatalog, len(cat.Tracks()))

	loader := catalog.NewLoader(c.Configuration.AssetsDir, int64(c.Configuration.MaxAudioMB)<<20)
	log.Infof("%s Serving assets from %s", logcolors.LogAssets, c.Configuration.AssetsDir)

	s := &server{
		catalog:     cat,
		loader:      loader,
		audio:       newTrackAudio(loader, c.Thresholds(), audioLinger),
		mapOptions:  c.MapOptions(),
		audioTiming: c.FeatureFlags.AudioTiming,
	}

	store, err := contact.NewStore(c.Configuration.ContactDBPath, c.Configuration.ContactBackupPath, c.FeatureFlags.ContactCompression)
	if err != nil {
		log.Errorf("%s Contact store unavailable: %v", logcolors.LogContactStore, err)
	} else {
		s.contacts = store
	}

	s.dispatcher = notifier.NewDispatcher(notifier.DispatcherConfig{
		Notifiers:        setupNotifiers(c),
		BreakerThreshold: c.Configuration.CircuitBreakerThreshold,
		BreakerCooldown:  time.Duration(c.Configuration.CircuitBreakerCooldownSecs) * time.Second,
		OnResult: func(r notifier.Result) {
			stats.Get().RecordNotification(r.Notifier, r.Err == nil)
		},
	})

	return s, nil
}

// Close waits for pending notifications and closes the contact store
func (s *server) Close() error {
	if s.dispatcher != nil {
		s.dispatcher.Wait()
	}
	if s.contacts != nil {
		return s.contacts.Close()
	}
	return nil
}
