package datastore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/aleister1102/downtime/internal/common/errorwrapper"
	"github.com/aleister1102/downtime/internal/config"
	"github.com/aleister1102/downtime/internal/models"
	"github.com/aleister1102/downtime/internal/urlhandler"
	"github.com/rs/zerolog"
)

// SiteStore keeps the monitored websites in memory, in insertion order, and
// mirrors them to a single JSON document on disk.
type SiteStore struct {
	path   string
	logger zerolog.Logger

	mu    sync.RWMutex
	sites []models.MonitoredSite
	index map[string]int

	// writeMu serializes file writes so snapshots land on disk in order.
	writeMu sync.Mutex
}

// NewSiteStore creates an empty store bound to path. Nothing is read until Load.
func NewSiteStore(path string, logger zerolog.Logger) *SiteStore {
	return &SiteStore{
		path:   path,
		logger: logger.With().Str("component", "SiteStore").Logger(),
		sites:  []models.MonitoredSite{},
		index:  make(map[string]int),
	}
}

// OpenSiteStore creates a store from the storage section and loads it.
// A missing file is an error unless CreateIfMissing is set, in which case an empty list is written.
func OpenSiteStore(cfg config.StorageConfig, logger zerolog.Logger) (*SiteStore, error) {
	store := NewSiteStore(cfg.WebsitesFile, logger)

	err := store.Load()
	if err == nil {
		return store, nil
	}
	if !errors.Is(err, fs.ErrNotExist) || !cfg.CreateIfMissing {
		return nil, err
	}

	store.logger.Warn().Str("path", cfg.WebsitesFile).Msg("Websites file not found, creating an empty one")
	if err := store.Persist(); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create websites file")
	}
	return store, nil
}

// Path returns the backing file.
func (s *SiteStore) Path() string {
	return s.path
}

// Load replaces the in-memory list with the file contents.
// Every URL is rewritten to its normalized form so lookups by normalized key find
// entries written by hand or by older versions. Entries that collapse onto the same
// key keep the first occurrence; a URL that cannot be normalized is kept verbatim.
func (s *SiteStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return errorwrapper.WrapErrorf(err, "failed to read websites file '%s'", s.path)
	}

	var loaded []models.MonitoredSite
	if err := json.Unmarshal(data, &loaded); err != nil {
		return errorwrapper.WrapErrorf(err, "malformed websites file '%s'", s.path)
	}

	sites := make([]models.MonitoredSite, 0, len(loaded))
	index := make(map[string]int, len(loaded))
	for _, site := range loaded {
		if site.URL == "" {
			return errorwrapper.NewValidationError("url", site.URL, "websites file contains an entry without url")
		}
		site.URL = s.canonicalKey(site.URL)
		if _, dup := index[site.URL]; dup {
			s.logger.Warn().Str("url", site.URL).Msg("Duplicate website in file, keeping the first entry")
			continue
		}
		index[site.URL] = len(sites)
		sites = append(sites, site)
	}

	s.mu.Lock()
	s.sites = sites
	s.index = index
	s.mu.Unlock()

	s.logger.Info().Int("count", len(sites)).Str("path", s.path).Msg("Websites loaded")
	return nil
}

func (s *SiteStore) canonicalKey(raw string) string {
	normalized, err := urlhandler.NormalizeURL(raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", raw).Msg("Website in file is not a valid URL, keeping it as written")
		return raw
	}
	if normalized != raw {
		s.logger.Debug().Str("url", raw).Str("normalized", normalized).Msg("Normalized website from file")
	}
	return normalized
}

// List returns copies of all sites in insertion order.
func (s *SiteStore) List() []models.MonitoredSite {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MonitoredSite, len(s.sites))
	for i, site := range s.sites {
		out[i] = site.Clone()
	}
	return out
}

// Len returns the number of monitored sites.
func (s *SiteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sites)
}

// Get returns a copy of the site stored under url.
func (s *SiteStore) Get(url string) (models.MonitoredSite, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[url]
	if !ok {
		return models.MonitoredSite{}, false
	}
	return s.sites[i].Clone(), true
}

// Add appends url with an unchecked status. It reports false if url was already present.
func (s *SiteStore) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[url]; ok {
		return false
	}
	s.index[url] = len(s.sites)
	s.sites = append(s.sites, models.NewMonitoredSite(url))
	return true
}

// Remove deletes url. It reports false if url was not present.
func (s *SiteStore) Remove(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[url]
	if !ok {
		return false
	}
	s.sites = append(s.sites[:i], s.sites[i+1:]...)
	delete(s.index, url)
	for j := i; j < len(s.sites); j++ {
		s.index[s.sites[j].URL] = j
	}
	return true
}

// ApplyStatus overwrites the status of url and returns the status it replaced.
// ok is false when url is no longer monitored; nothing is written in that case.
func (s *SiteStore) ApplyStatus(url string, status models.SiteStatus) (prev models.SiteStatus, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, found := s.index[url]
	if !found {
		return models.SiteStatus{}, false
	}
	prev = s.sites[i].Status
	s.sites[i].Status = status.Clone()
	return prev, true
}

// Persist writes a snapshot of the store to disk atomically: the JSON goes to a
// temporary file in the same directory, which is synced and renamed over the target.
func (s *SiteStore) Persist() error {
	snapshot := s.List()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return errorwrapper.WrapError(err, "failed to encode websites")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := writeFileAtomic(s.path, data); err != nil {
		return errorwrapper.WrapErrorf(err, "failed to write websites file '%s'", s.path)
	}
	s.logger.Debug().Int("count", len(snapshot)).Msg("Websites persisted")
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
