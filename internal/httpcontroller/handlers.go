package httpcontroller

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/ecosante/ecosante-go/internal/errors"
	"github.com/ecosante/ecosante-go/internal/newsletter"
	"github.com/ecosante/ecosante-go/internal/reco"
	"github.com/labstack/echo/v4"
)

// profileRequest is the signup and update payload.
type profileRequest struct {
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	CityInsee  string   `json:"city_insee"`
	CityName   string   `json:"city_name"`
	Channel    string   `json:"channel"`
	Frequency  string   `json:"frequency"`
	Transport  []string `json:"transport"`
	Activities []string `json:"activities"`
	Heating    []string `json:"heating"`
	Population []string `json:"population"`
	Children   string   `json:"children"`
	Pets       bool     `json:"pets"`
}

func (req *profileRequest) validate() error {
	if req.CityInsee == "" {
		return fmt.Errorf("city_insee is required")
	}
	switch req.Channel {
	case datastore.ChannelMail:
		if req.Email == "" {
			return fmt.Errorf("email is required for the mail channel")
		}
	case datastore.ChannelSMS:
		if req.Phone == "" {
			return fmt.Errorf("phone is required for the sms channel")
		}
	default:
		return fmt.Errorf("channel must be %q or %q", datastore.ChannelMail, datastore.ChannelSMS)
	}
	if req.Frequency != "" && req.Frequency != datastore.FrequencyDaily && req.Frequency != datastore.FrequencyPollution {
		return fmt.Errorf("frequency must be %q or %q", datastore.FrequencyDaily, datastore.FrequencyPollution)
	}
	return nil
}

func (req *profileRequest) apply(p *datastore.Profile) {
	p.Email = req.Email
	p.Phone = req.Phone
	p.CityInsee = req.CityInsee
	p.CityName = req.CityName
	p.Channel = req.Channel
	p.Frequency = req.Frequency
	if p.Frequency == "" {
		p.Frequency = datastore.FrequencyDaily
	}
	p.Transport = datastore.StringSet(req.Transport)
	p.Activities = datastore.StringSet(req.Activities)
	p.Heating = datastore.StringSet(req.Heating)
	p.Population = datastore.StringSet(req.Population)
	p.Children = req.Children
	p.Pets = req.Pets
}

// createProfile handles POST /api/v1/profiles.
func (s *Server) createProfile(c echo.Context) error {
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Email != "" {
		if existing, err := s.DS.GetProfileByEmail(req.Email); err == nil && existing != nil {
			return echo.NewHTTPError(http.StatusConflict, "a profile with this email already exists")
		}
	}

	var profile datastore.Profile
	req.apply(&profile)
	if err := s.DS.InsertProfile(&profile); err != nil {
		s.logger.Error("Profile insert failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create profile")
	}

	return c.JSON(http.StatusCreated, profile)
}

// getProfile handles GET /api/v1/profiles/:id.
func (s *Server) getProfile(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid profile id")
	}

	profile, err := s.DS.GetProfile(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load profile")
	}
	return c.JSON(http.StatusOK, profile)
}

// updateProfile handles PUT /api/v1/profiles/:id.
func (s *Server) updateProfile(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid profile id")
	}

	profile, err := s.DS.GetProfile(id)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load profile")
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	req.apply(profile)
	if err := s.DS.UpdateProfile(profile); err != nil {
		s.logger.Error("Profile update failed", "profile_id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not update profile")
	}
	return c.JSON(http.StatusOK, profile)
}

// unsubscribeProfile handles POST /api/v1/profiles/:id/unsubscribe.
func (s *Server) unsubscribeProfile(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid profile id")
	}

	if err := s.DS.Unsubscribe(id, time.Now()); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "profile not found")
		}
		s.logger.Error("Unsubscribe failed", "profile_id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not unsubscribe")
	}
	return c.NoContent(http.StatusNoContent)
}

// listRecommendations handles GET /api/v1/recommendations.
func (s *Server) listRecommendations(c echo.Context) error {
	recs, err := s.DS.PublishedRecommendations()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load recommendations")
	}
	return c.JSON(http.StatusOK, recs)
}

// saveRecommendation handles POST and PUT on /api/v1/recommendations.
func (s *Server) saveRecommendation(c echo.Context) error {
	var rec datastore.Recommendation
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if param := c.Param("id"); param != "" {
		id, err := parseID(param)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid recommendation id")
		}
		rec.ID = id
	}
	if rec.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}
	if rec.Status == "" {
		rec.Status = datastore.StatusDraft
	}

	if err := s.DS.SaveRecommendation(&rec); err != nil {
		s.logger.Error("Recommendation save failed", "recommendation_id", rec.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not save recommendation")
	}
	return c.JSON(http.StatusOK, rec)
}

// deleteRecommendation handles DELETE /api/v1/recommendations/:id. The
// recommendation is retired, not removed, so past send records keep their
// reference.
func (s *Server) deleteRecommendation(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid recommendation id")
	}

	if err := s.DS.DeleteRecommendation(id); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "recommendation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "could not delete recommendation")
	}
	return c.NoContent(http.StatusNoContent)
}

// widgetRecommendation handles GET /api/v1/widget?insee=...&date=...
// It serves the anonymous embedded widget: no profile, widget-flagged
// recommendations only.
func (s *Server) widgetRecommendation(c echo.Context) error {
	insee := c.QueryParam("insee")
	if insee == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "insee query parameter is required")
	}

	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	env, err := s.fetcher.Fetch(c.Request().Context(), insee, date)
	if err != nil {
		s.logger.Warn("Widget forecast fetch failed", "insee", insee, "error", err)
	}

	// The widget rotates daily per city, so the seed is derived from both.
	pool, err := s.pool.Build(insee+date.Format("2006-01-02"), 0, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not build candidate pool")
	}

	selected, err := s.selector.Select(pool, nil, env, date)
	if err != nil {
		if errors.Is(err, reco.ErrNoMatch) {
			return echo.NewHTTPError(http.StatusNotFound, "no recommendation available")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "selection failed")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"recommendation": selected.Content,
		"precisions":     selected.Precisions,
		"sources":        selected.Sources,
		"label":          env.Label,
		"color":          env.Color,
		"pollutants":     env.Pollutants,
	})
}

// exportNewsletters handles GET /api/v1/newsletters/export?date=...
// It streams the campaign CSV for a day that already ran.
func (s *Server) exportNewsletters(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	records, err := s.DS.SendRecordsForDate(date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load send records")
	}

	newsletters := newsletter.FromRecords(records, date)

	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=newsletters-%s.csv", date.Format("2006-01-02")))
	c.Response().WriteHeader(http.StatusOK)
	return newsletter.WriteCSV(c.Response(), newsletters)
}

// feedbackRequest is the payload for POST /api/v1/newsletters/:shortID/feedback.
type feedbackRequest struct {
	Applied *bool  `json:"applied"`
	Opinion string `json:"opinion"`
}

// newsletterFeedback records whether the subscriber applied the
// recommendation they received.
func (s *Server) newsletterFeedback(c echo.Context) error {
	shortID := c.Param("shortID")

	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := s.DS.UpdateFeedback(shortID, req.Applied, req.Opinion); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "unknown newsletter")
		}
		s.logger.Error("Feedback update failed", "short_id", shortID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not record feedback")
	}
	return c.NoContent(http.StatusNoContent)
}

func parseID(param string) (uint, error) {
	id, err := strconv.ParseUint(param, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", param)
	}
	return uint(id), nil
}

// parseDate parses an optional YYYY-MM-DD query value, defaulting to today.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", value)
}
