package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"

	"github.com/liaowuw/webweek8mvc/models"
)

// PersonForm is the form-encoded body of the create and edit pages.
type PersonForm struct {
	Name  string `form:"name" validate:"required"`
	Age   *int   `form:"age" validate:"required,gte=0"`
	Email string `form:"email" validate:"required"`
	SexID *uint  `form:"sex_id" validate:"required"`
}

var (
	formDecoder = form.NewDecoder()
	validate    = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FormView carries submitted values and per-field error messages back to a template.
type FormView struct {
	Values map[string]string
	Errors map[string]string
}

func newFormView() FormView {
	return FormView{Values: map[string]string{}, Errors: map[string]string{}}
}

func (f FormView) Value(name string) string {
	return f.Values[name]
}

func (f FormView) Error(name string) string {
	return f.Errors[name]
}

func (f FormView) HasErrors() bool {
	return len(f.Errors) > 0
}

// personFormView pre-fills a form from a stored person.
func personFormView(p *models.Person) FormView {
	view := newFormView()
	view.Values["name"] = p.Name
	view.Values["age"] = strconv.Itoa(p.Age)
	view.Values["email"] = p.Email
	if p.SexID != nil {
		view.Values["sex_id"] = strconv.FormatUint(uint64(*p.SexID), 10)
	}
	return view
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "gte":
		return "Must be greater or equal to " + fe.Param()
	default:
		return "Invalid value"
	}
}

// bindPersonForm decodes and validates the request body. The returned person
// is only meaningful when the view carries no errors.
func bindPersonForm(r *http.Request) (models.Person, FormView) {
	view := newFormView()
	if err := r.ParseForm(); err != nil {
		view.Errors["_form"] = "Invalid form submission"
		return models.Person{}, view
	}
	for _, field := range []string{"name", "age", "email", "sex_id"} {
		view.Values[field] = r.PostForm.Get(field)
	}

	var pf PersonForm
	if err := formDecoder.Decode(&pf, r.PostForm); err != nil {
		var decodeErrs form.DecodeErrors
		if errors.As(err, &decodeErrs) {
			for field := range decodeErrs {
				view.Errors[field] = "Invalid value"
			}
		} else {
			view.Errors["_form"] = "Invalid form submission"
		}
	}
	pf.Name = strings.TrimSpace(pf.Name)
	pf.Email = strings.TrimSpace(pf.Email)

	if err := validate.Struct(pf); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, fe := range validationErrs {
				if _, seen := view.Errors[fe.Field()]; !seen {
					view.Errors[fe.Field()] = validationMessage(fe)
				}
			}
		} else {
			view.Errors["_form"] = "Invalid form submission"
		}
	}
	if view.HasErrors() {
		return models.Person{}, view
	}

	return models.Person{
		Name:  pf.Name,
		Age:   *pf.Age,
		Email: pf.Email,
		SexID: pf.SexID,
	}, view
}
