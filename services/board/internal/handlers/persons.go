package handlers

import (
	"net/http"

	"github.com/example/findme-platform/internal/platform/api"
	"github.com/example/findme-platform/internal/records"
	"github.com/example/findme-platform/services/board/internal/persons"
)

type submitPersonRequest struct {
	Name        string           `json:"name"`
	Age         int              `json:"age"`
	Gender      string           `json:"gender"`
	Address     string           `json:"address"`
	Description string           `json:"description"`
	MissingDate string           `json:"missing_date"`
	Category    string           `json:"category"`
	PhotoURL    string           `json:"photo_url"`
	Physical    records.Physical `json:"physical"`
	Reporter    struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email"`
	} `json:"reporter"`
}

type personsResponse struct {
	MissingPersons []records.MissingPerson `json:"missing_persons"`
}

// ListPersons handles GET /v1/missing-persons
func ListPersons(svc *persons.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryLimit(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		q := r.URL.Query()
		list, err := svc.List(r.Context(), caller(r), persons.ListQuery{
			Category: q.Get("category"),
			Status:   q.Get("status"),
			Source:   q.Get("source"),
			Limit:    limit,
		})
		if err != nil {
			fail(w, r, err)
			return
		}
		api.OK(w, personsResponse{MissingPersons: list})
	}
}

// GetPerson handles GET /v1/missing-persons/{id}
func GetPerson(svc *persons.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		p, err := svc.Get(r.Context(), caller(r), id)
		if err != nil {
			fail(w, r, err)
			return
		}
		api.OK(w, p)
	}
}

// SubmitPerson handles POST /v1/missing-persons
func SubmitPerson(svc *persons.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitPersonRequest
		if !decode(w, r, &req) {
			return
		}
		p, err := svc.Submit(r.Context(), caller(r), persons.SubmitInput{
			Name:          req.Name,
			Age:           req.Age,
			Gender:        req.Gender,
			Address:       req.Address,
			Description:   req.Description,
			MissingDate:   req.MissingDate,
			Category:      req.Category,
			PhotoURL:      req.PhotoURL,
			Physical:      req.Physical,
			ReporterName:  req.Reporter.Name,
			ReporterPhone: req.Reporter.Phone,
			ReporterEmail: req.Reporter.Email,
		})
		if err != nil {
			fail(w, r, err)
			return
		}
		api.Created(w, p)
	}
}

// DeletePerson handles DELETE /v1/missing-persons/{id}
func DeletePerson(svc *persons.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), caller(r), id); err != nil {
			fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
