package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"farmstore/internal/logging"
	"farmstore/internal/models"
	"farmstore/internal/validation"
)

// WeatherCacheTTL is the fixed absolute expiry for cached weather
// snapshots. Not configurable per call.
const WeatherCacheTTL = time.Hour

// PutCachedWeather stores (or replaces) the weather snapshot for a
// location with cached_at = now and expires_at = now + TTL.
func (s *Store) PutCachedWeather(location, weatherData string) error {
	timer := logging.StartTimer(logging.CategoryCache, "PutCachedWeather")
	defer timer.Stop()

	if location == "" {
		return &validation.ValidationError{Field: "location", Reason: "must not be empty"}
	}

	now := time.Now()
	cachedAt := models.Timestamp(now)
	expiresAt := models.Timestamp(now.Add(WeatherCacheTTL))

	err := s.execute("PutCachedWeather", func(db *sql.DB) error {
		_, execErr := db.Exec(
			`INSERT INTO weather_cache (location, weather_data, cached_at, expires_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(location) DO UPDATE SET
			 weather_data = excluded.weather_data,
			 cached_at = excluded.cached_at,
			 expires_at = excluded.expires_at`,
			location, weatherData, cachedAt, expiresAt,
		)
		return execErr
	})
	if err != nil {
		return err
	}
	logging.CacheDebug("Cached weather for %s until %s", location, expiresAt)
	return nil
}

// GetCachedWeather reads the cached snapshot for a location. A row that
// is absent, expired or corrupt is a miss; expired and corrupt rows are
// purged on the way out. Expiry is lazy: no background sweep is needed
// for correctness.
func (s *Store) GetCachedWeather(location string) (string, bool, error) {
	timer := logging.StartTimer(logging.CategoryCache, "GetCachedWeather")
	defer timer.Stop()

	if location == "" {
		return "", false, &validation.ValidationError{Field: "location", Reason: "must not be empty"}
	}

	var entry models.WeatherCacheEntry
	found := false
	err := s.execute("GetCachedWeather", func(db *sql.DB) error {
		row := db.QueryRow(
			"SELECT location, weather_data, cached_at, expires_at FROM weather_cache WHERE location = ?",
			location,
		)
		scanErr := row.Scan(&entry.Location, &entry.WeatherData, &entry.CachedAt, &entry.ExpiresAt)
		if errors.Is(scanErr, sql.ErrNoRows) {
			found = false
			return nil
		}
		if scanErr != nil {
			return scanErr
		}
		found = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if !found {
		logging.CacheDebug("Cache miss for %s", location)
		return "", false, nil
	}

	// Timestamps are fixed-width ISO-8601, so string comparison is
	// chronological comparison.
	if models.Now() >= entry.ExpiresAt {
		logging.CacheDebug("Cache entry for %s expired at %s, purging", location, entry.ExpiresAt)
		s.purgeCacheEntry(location)
		return "", false, nil
	}

	if !json.Valid([]byte(entry.WeatherData)) {
		logging.Get(logging.CategoryCache).Warn("Purging cache entry for %s: %v", location, errCorruptCacheEntry)
		s.purgeCacheEntry(location)
		return "", false, nil
	}

	return entry.WeatherData, true, nil
}

// SweepExpired opportunistically purges every expired cache row and
// returns the number removed.
func (s *Store) SweepExpired() (int64, error) {
	var purged int64
	err := s.execute("SweepExpired", func(db *sql.DB) error {
		res, execErr := db.Exec("DELETE FROM weather_cache WHERE expires_at <= ?", models.Now())
		if execErr != nil {
			return execErr
		}
		purged, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

// purgeCacheEntry removes one cache row. Best effort; a failed purge
// only delays the lazy expiry until the next read.
func (s *Store) purgeCacheEntry(location string) {
	err := s.execute("purgeCacheEntry", func(db *sql.DB) error {
		_, execErr := db.Exec("DELETE FROM weather_cache WHERE location = ?", location)
		return execErr
	})
	if err != nil {
		logging.CacheDebug("Failed to purge cache entry for %s: %v", location, err)
	}
}
