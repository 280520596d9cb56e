package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/liaowuw/webweek8mvc/database"
	"github.com/liaowuw/webweek8mvc/models"
	"github.com/liaowuw/webweek8mvc/repository"
	"github.com/liaowuw/webweek8mvc/workers"
)

const homePath = "/list"

type PersonHandler struct {
	People   repository.PersonStore
	Sexes    repository.SexOptionProvider
	Executor *workers.DatabaseExecutor
	Views    *Renderer
	Flash    *FlashStore
	Log      *zap.SugaredLogger
	PageSize int
}

func parsePersonID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func (ph *PersonHandler) goHome(w http.ResponseWriter, r *http.Request, kind, message string) {
	if err := ph.Flash.Add(w, r, kind, message); err != nil {
		ph.Log.Warnw("failed to store flash message", "error", err)
	}
	http.Redirect(w, r, homePath, http.StatusSeeOther)
}

func (ph *PersonHandler) sexOptions(ctx context.Context) *workers.Future[[]repository.SexOption] {
	return workers.Submit(ctx, ph.Executor, ph.Sexes.Options)
}

// Index redirects to the first page of the list.
func (ph *PersonHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, homePath, http.StatusSeeOther)
}

// NotFound answers unknown routes with the not-found page.
func (ph *PersonHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	ph.writeNotFound(w, "The page you requested does not exist.")
}

// List displays one page of people. Query parameters: page (from 0), sortBy,
// order (asc or desc) and filter (substring of the name).
func (ph *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageNo, err := strconv.Atoi(q.Get("page"))
	if err != nil || pageNo < 0 {
		pageNo = 0
	}
	sortBy, order := database.NormalizeSort(q.Get("sortBy"), q.Get("order"))
	filter := q.Get("filter")

	req := repository.PageRequest{Page: pageNo, Size: ph.PageSize, SortBy: sortBy, Order: order, Filter: filter}
	page, err := workers.Submit(r.Context(), ph.Executor, func(ctx context.Context) (repository.Page, error) {
		return ph.People.Page(ctx, req)
	}).Await(r.Context())
	if err != nil {
		ph.writeServerError(w, r, "list", err)
		return
	}

	flashes, err := ph.Flash.Pop(w, r)
	if err != nil {
		ph.Log.Warnw("failed to clear flash messages", "error", err)
	}

	ph.Views.Render(w, http.StatusOK, pageList, listPage{
		Page:   page,
		SortBy: sortBy,
		Order:  order,
		Filter: filter,
		Flash:  flashes,
	})
}

// Edit displays the edit form of an existing person.
func (ph *PersonHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePersonID(r)
	if !ok {
		ph.writeNotFound(w, "No such person.")
		return
	}
	ctx := r.Context()

	personFuture := workers.Submit(ctx, ph.Executor, func(ctx context.Context) (*models.Person, error) {
		return ph.People.Lookup(ctx, id)
	})
	person, sexes, err := workers.Combine(ctx, personFuture, ph.sexOptions(ctx))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ph.writeNotFound(w, fmt.Sprintf("Person %d does not exist.", id))
			return
		}
		ph.writeServerError(w, r, "edit", err)
		return
	}

	ph.Views.Render(w, http.StatusOK, pageEdit, formPage{ID: id, Form: personFormView(person), Sexes: sexes})
}

// bindPerson validates the submitted form, including that the chosen sex exists.
func (ph *PersonHandler) bindPerson(ctx context.Context, r *http.Request) (models.Person, FormView, error) {
	person, view := bindPersonForm(r)
	if view.HasErrors() {
		return person, view, nil
	}

	exists, err := workers.Submit(ctx, ph.Executor, func(ctx context.Context) (bool, error) {
		return ph.Sexes.Exists(ctx, *person.SexID)
	}).Await(ctx)
	if err != nil {
		return person, view, err
	}
	if !exists {
		view.Errors["sex_id"] = "Invalid value"
	}
	return person, view, nil
}

// rejectForm re-renders a form with its validation errors and a 400 status.
func (ph *PersonHandler) rejectForm(w http.ResponseWriter, r *http.Request, page string, id uint, view FormView) {
	sexes, err := ph.sexOptions(r.Context()).Await(r.Context())
	if err != nil {
		ph.writeServerError(w, r, page, err)
		return
	}
	ph.Views.Render(w, http.StatusBadRequest, page, formPage{ID: id, Form: view, Sexes: sexes})
}

// Update handles the edit form submission.
func (ph *PersonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePersonID(r)
	if !ok {
		ph.writeNotFound(w, "No such person.")
		return
	}
	ctx := r.Context()

	person, view, err := ph.bindPerson(ctx, r)
	if err != nil {
		ph.writeServerError(w, r, "update", err)
		return
	}
	if view.HasErrors() {
		ph.rejectForm(w, r, pageEdit, id, view)
		return
	}

	_, err = workers.Submit(ctx, ph.Executor, func(ctx context.Context) (uint, error) {
		return ph.People.Update(ctx, id, person)
	}).Await(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		ph.Log.Infow("update of missing person", "person_id", id)
		ph.goHome(w, r, FlashWarning, fmt.Sprintf("Person %d no longer exists, nothing was updated", id))
	case err != nil:
		ph.writeServerError(w, r, "update", err)
	default:
		ph.goHome(w, r, FlashSuccess, "Person "+person.Name+" has been updated")
	}
}

// Create displays the blank creation form.
func (ph *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	sexes, err := ph.sexOptions(r.Context()).Await(r.Context())
	if err != nil {
		ph.writeServerError(w, r, "create", err)
		return
	}
	ph.Views.Render(w, http.StatusOK, pageCreate, formPage{Form: newFormView(), Sexes: sexes})
}

// Save handles the creation form submission.
func (ph *PersonHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	person, view, err := ph.bindPerson(ctx, r)
	if err != nil {
		ph.writeServerError(w, r, "save", err)
		return
	}
	if view.HasErrors() {
		ph.rejectForm(w, r, pageCreate, 0, view)
		return
	}

	id, err := workers.Submit(ctx, ph.Executor, func(ctx context.Context) (uint, error) {
		return ph.People.Insert(ctx, &person)
	}).Await(ctx)
	if err != nil {
		ph.writeServerError(w, r, "save", err)
		return
	}

	ph.Log.Infow("person created", "person_id", id)
	ph.goHome(w, r, FlashSuccess, "Person "+person.Name+" has been created")
}

// Delete removes a person. The user always sees success: deleting a missing
// person is a no-op, and failures are only logged.
func (ph *PersonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePersonID(r)
	if !ok {
		ph.writeNotFound(w, "No such person.")
		return
	}
	ctx := r.Context()

	res, err := workers.Submit(ctx, ph.Executor, func(ctx context.Context) (repository.DeleteResult, error) {
		return ph.People.Delete(ctx, id), nil
	}).Await(ctx)
	if err != nil {
		res = repository.DeleteResult{Outcome: repository.DeleteFailed, ID: id, Err: err}
	}

	switch res.Outcome {
	case repository.DeleteFailed:
		ph.Log.Errorw("failed to delete person", "person_id", id, "error", res.Err)
	case repository.DeleteNotFound:
		ph.Log.Infow("delete of missing person", "person_id", id)
	}

	ph.goHome(w, r, FlashSuccess, "Person has been deleted")
}
