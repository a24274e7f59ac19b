// Package persons serves missing-person records to the board and accepts
// user-submitted reports.
package persons

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/findme-platform/internal/geocode"
	"github.com/example/findme-platform/internal/platform/apperr"
	"github.com/example/findme-platform/internal/platform/auth"
	"github.com/example/findme-platform/internal/platform/events"
	"github.com/example/findme-platform/internal/records"
	"github.com/example/findme-platform/services/board/internal/ratelimit"
)

const (
	MaxNameRunes        = 50
	MaxDescriptionRunes = 2000
	MaxAge              = 150
	idPrefix            = "user_"
)

type Service struct {
	Store    records.Store
	Limiter  ratelimit.Limiter
	Geocoder geocode.Geocoder
	Events   *events.Publisher
	Log      *zap.Logger
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) geocode(addr string) geocode.Result {
	if s.Geocoder == nil {
		return geocode.Lookup(addr)
	}
	return s.Geocoder(addr)
}

var errPersonNotFound = apperr.NotFound("MISSING_PERSON_NOT_FOUND", "missing person not found")

type ListQuery struct {
	Category string
	Status   string
	Source   string
	Limit    int
}

func (s *Service) List(ctx context.Context, caller auth.Identity, q ListQuery) ([]records.MissingPerson, error) {
	f := records.Filter{
		Category: records.Category(q.Category),
		Status:   records.Status(q.Status),
		Source:   records.Source(q.Source),
		Limit:    q.Limit,
	}
	if f.Category != "" && !f.Category.Valid() {
		return nil, apperr.Validation("INVALID_CATEGORY", "unknown category")
	}
	if f.Status != "" && f.Status != records.StatusActive && f.Status != records.StatusResolved {
		return nil, apperr.Validation("INVALID_STATUS", "status must be active or resolved")
	}
	if f.Source != "" && f.Source != records.SourceAPI && f.Source != records.SourceUserReport {
		return nil, apperr.Validation("INVALID_SOURCE", "source must be api or user_report")
	}
	if q.Limit < 0 || q.Limit > records.MaxListLimit {
		return nil, apperr.Validation("INVALID_LIMIT", "limit must be between 1 and 100")
	}

	out, err := s.Store.List(ctx, f)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "INTERNAL", "internal error")
	}
	for i := range out {
		out[i] = redact(out[i], caller)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, caller auth.Identity, id string) (records.MissingPerson, error) {
	p, err := s.Store.Get(ctx, id)
	if errors.Is(err, records.ErrNotFound) {
		return records.MissingPerson{}, errPersonNotFound
	}
	if err != nil {
		return records.MissingPerson{}, apperr.Wrap(err, apperr.KindInternal, "INTERNAL", "internal error")
	}
	return redact(p, caller), nil
}

// redact strips reporter contact details for anyone but the reporter or an admin.
func redact(p records.MissingPerson, caller auth.Identity) records.MissingPerson {
	if p.Reporter == nil || caller.Admin || (caller.UID != "" && caller.UID == p.Reporter.UID) {
		return p
	}
	r := *p.Reporter
	r.Phone, r.Email = "", ""
	p.Reporter = &r
	return p
}

type SubmitInput struct {
	Name          string
	Age           int
	Gender        string
	Address       string
	Description   string
	MissingDate   string
	Category      string
	PhotoURL      string
	Physical      records.Physical
	ReporterName  string
	ReporterPhone string
	ReporterEmail string
}

func (in SubmitInput) validate(now time.Time) (records.MissingPerson, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameRunes {
		return records.MissingPerson{}, apperr.Validation("INVALID_NAME", "name is required and must be at most 50 characters")
	}
	if in.Age < 0 || in.Age > MaxAge {
		return records.MissingPerson{}, apperr.Validation("INVALID_AGE", "age must be between 0 and 150")
	}
	gender := records.Gender(strings.ToUpper(strings.TrimSpace(in.Gender)))
	switch gender {
	case "":
		gender = records.GenderUnknown
	case records.GenderMale, records.GenderFemale, records.GenderUnknown:
	default:
		return records.MissingPerson{}, apperr.Validation("INVALID_GENDER", "gender must be M, F or U")
	}
	addr := strings.TrimSpace(in.Address)
	if addr == "" {
		return records.MissingPerson{}, apperr.Validation("INVALID_ADDRESS", "address is required")
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionRunes {
		return records.MissingPerson{}, apperr.Validation("DESCRIPTION_TOO_LONG", "description must be at most 2000 characters")
	}
	cat := records.Category(strings.TrimSpace(in.Category))
	if cat == "" {
		cat = records.CategoryUnknown
	}
	if !cat.Valid() {
		return records.MissingPerson{}, apperr.Validation("INVALID_CATEGORY", "unknown category")
	}
	date, err := parseDate(in.MissingDate)
	if err != nil || date.After(now) {
		return records.MissingPerson{}, apperr.Validation("INVALID_MISSING_DATE", "missing_date must be a past date (YYYY-MM-DD)")
	}
	if strings.TrimSpace(in.ReporterName) == "" {
		return records.MissingPerson{}, apperr.Validation("INVALID_REPORTER", "reporter name is required")
	}
	phone, email := strings.TrimSpace(in.ReporterPhone), strings.TrimSpace(in.ReporterEmail)
	if phone == "" && email == "" {
		return records.MissingPerson{}, apperr.Validation("INVALID_REPORTER", "reporter phone or email is required")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return records.MissingPerson{}, apperr.Validation("INVALID_REPORTER", "reporter email is invalid")
		}
	}

	p := records.MissingPerson{
		Name:        name,
		Age:         in.Age,
		Gender:      gender,
		Description: strings.TrimSpace(in.Description),
		MissingDate: date,
		Category:    cat,
		Status:      records.StatusActive,
		Source:      records.SourceUserReport,
		Physical:    in.Physical,
		Reporter: &records.Reporter{
			Name:  strings.TrimSpace(in.ReporterName),
			Phone: phone,
			Email: email,
		},
		Location: records.Location{Address: addr},
	}
	if u := strings.TrimSpace(in.PhotoURL); u != "" {
		if !validPhotoURL(u) {
			return records.MissingPerson{}, apperr.Validation("INVALID_PHOTO_URL", "photo_url must be an http or https URL")
		}
		p.PhotoURL = &u
	}
	return p, nil
}

func validPhotoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// Submit stores a user-reported missing person owned by the caller.
func (s *Service) Submit(ctx context.Context, caller auth.Identity, in SubmitInput) (records.MissingPerson, error) {
	if caller.UID == "" {
		return records.MissingPerson{}, apperr.Unauthenticated("authentication required")
	}
	now := s.now()
	p, err := in.validate(now)
	if err != nil {
		return records.MissingPerson{}, err
	}
	if err := ratelimit.Enforce(ctx, s.Limiter, s.log(), caller.UID); err != nil {
		return records.MissingPerson{}, err
	}

	geo := s.geocode(p.Location.Address)
	p.Location = records.Location{Lat: geo.Lat, Lng: geo.Lng, Address: geo.Address}
	p.ID = idPrefix + uuid.NewString()
	p.Reporter.UID = caller.UID
	p.Reporter.SubmittedAt = now
	p.CreatedAt = now

	created, err := s.Store.Create(ctx, p)
	if err != nil {
		return records.MissingPerson{}, apperr.Wrap(err, apperr.KindInternal, "INTERNAL", "internal error")
	}
	s.Events.Publish(events.SubjectPersonCreated, caller.UID, map[string]any{
		"id":       created.ID,
		"source":   string(created.Source),
		"category": string(created.Category),
	})
	s.log().Info("missing person submitted", zap.String("id", created.ID), zap.String("by", caller.UID))
	return created, nil
}

// Delete removes a user submission. Only its reporter or an admin may delete
// it; upstream records are not deletable because ingestion would restore them.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if caller.UID == "" {
		return apperr.Unauthenticated("authentication required")
	}
	p, err := s.Store.Get(ctx, id)
	if errors.Is(err, records.ErrNotFound) {
		return errPersonNotFound
	}
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "INTERNAL", "internal error")
	}
	if p.Source != records.SourceUserReport {
		return apperr.Forbidden("records imported from the upstream registry cannot be deleted")
	}
	if !caller.Admin && (p.Reporter == nil || p.Reporter.UID != caller.UID) {
		return apperr.Forbidden("only the reporter or an admin can delete this record")
	}

	if err := s.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return errPersonNotFound
		}
		return apperr.Wrap(err, apperr.KindInternal, "INTERNAL", "internal error")
	}
	s.Events.Publish(events.SubjectPersonDeleted, caller.UID, map[string]any{"id": id})
	s.log().Info("missing person deleted", zap.String("id", id), zap.String("by", caller.UID))
	return nil
}
