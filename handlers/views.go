package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/liaowuw/webweek8mvc/database"
	"github.com/liaowuw/webweek8mvc/repository"
)

type listPage struct {
	Page   repository.Page
	SortBy string
	Order  string
	Filter string
	Flash  Flashes
}

func (p listPage) link(page int, sortBy, order string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("sortBy", sortBy)
	q.Set("order", order)
	q.Set("filter", p.Filter)
	return "/list?" + q.Encode()
}

// SortLink points at the first page sorted by column, flipping the order
// when the list is already sorted by it.
func (p listPage) SortLink(column string) string {
	order := database.OrderAsc
	if column == p.SortBy && p.Order == database.OrderAsc {
		order = database.OrderDesc
	}
	return p.link(0, column, order)
}

func (p listPage) SortClass(column string) string {
	if column != p.SortBy {
		return ""
	}
	return "sorted " + p.Order
}

func (p listPage) PageLink(page int) string {
	return p.link(page, p.SortBy, p.Order)
}

func (p listPage) PrevPage() int {
	return p.Page.Index - 1
}

func (p listPage) NextPage() int {
	return p.Page.Index + 1
}

type formPage struct {
	ID    uint
	Form  FormView
	Sexes []repository.SexOption
}

type notFoundPage struct {
	Message string
}

type errorPage struct {
	Status  int
	Message string
}

func (p errorPage) StatusText() string {
	return http.StatusText(p.Status)
}
