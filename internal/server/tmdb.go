package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"oscars-party/internal/db"

	"github.com/google/uuid"
)

const (
	tmdbSearchURL = "https://api.themoviedb.org/3/search/movie"
	tmdbImageBase = "https://image.tmdb.org/t/p/w500"
)

type tmdbSearchResponse struct {
	Results []struct {
		ID          int    `json:"id"`
		Title       string `json:"title"`
		PosterPath  string `json:"poster_path"`
		ReleaseDate string `json:"release_date"`
		Overview    string `json:"overview"`
	} `json:"results"`
}

// lookupMovie finds poster art for a title, checking the local cache before
// TMDb. Returns nil without error when nothing matches or no API key is
// configured.
func (s *Server) lookupMovie(ctx context.Context, title string) (*db.Movie, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	if s.db != nil {
		var cached db.Movie
		if err := s.db.Where("LOWER(title) = LOWER(?)", title).First(&cached).Error; err == nil {
			return &cached, nil
		}
	}
	if strings.TrimSpace(s.cfg.TMDbAPIKey) == "" {
		return nil, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := url.Values{}
	query.Set("api_key", strings.TrimSpace(s.cfg.TMDbAPIKey))
	query.Set("query", title)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, tmdbSearchURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("TMDb request failed (%d)", resp.StatusCode)
	}

	var parsed tmdbSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Results) == 0 {
		return nil, nil
	}

	first := parsed.Results[0]
	movie := &db.Movie{
		ID:          uuid.NewString(),
		TMDbID:      first.ID,
		Title:       first.Title,
		PosterPath:  first.PosterPath,
		ReleaseDate: first.ReleaseDate,
		Overview:    first.Overview,
		CreatedAt:   timeNowUTC(),
	}
	if s.db != nil {
		if err := s.db.Create(movie).Error; err != nil && !isUniqueViolation(err) {
			log.Printf("cache movie failed title=%s err=%v", title, err)
		}
	}
	return movie, nil
}

// attachPosters decorates questions with poster art. Lookups are best
// effort; a missing poster never delays the trivia set.
func (s *Server) attachPosters(ctx context.Context, questions []Question) {
	for i := range questions {
		if questions[i].MovieTitle == "" || questions[i].ImageURL != "" {
			continue
		}
		movie, err := s.lookupMovie(ctx, questions[i].MovieTitle)
		if err != nil {
			log.Printf("movie lookup failed title=%s err=%v", questions[i].MovieTitle, err)
			continue
		}
		if movie == nil || movie.PosterPath == "" {
			continue
		}
		questions[i].ImageURL = tmdbImageBase + movie.PosterPath
	}
}
