package accounts

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/geocoder89/dogwalker/internal/security"
	"github.com/go-playground/validator/v10"
)

// Request is the fixed register/login schema. The JSON shape matches the
// browser client: {"user": {...}, "dogs": [...]}. Tags use gin's "binding"
// name so the transport and the service validate against the same rules.
type Request struct {
	User Credentials `json:"user"`
	Pets []PetInput  `json:"dogs" binding:"omitempty,max=50,dive"`
}

type Credentials struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required"`
	IsWalker bool   `json:"dog_walker"`
}

// PetInput carries an optional Owner only for wire compatibility; when set it
// must equal the request email.
type PetInput struct {
	Owner string `json:"owner,omitempty"`
	Name  string `json:"name" binding:"required,max=100"`
	Breed string `json:"breed" binding:"required,max=100"`
	Age   string `json:"age" binding:"required,max=16"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Service) validate(req Request) error {
	var issues []FieldIssue

	err := s.validator.Struct(req)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ValidationError{Issues: []FieldIssue{{Field: "body", Rule: "invalid"}}}
		}
		for _, fe := range verrs {
			issues = append(issues, FieldIssue{
				Field: trimRoot(fe.Namespace()),
				Rule:  fe.Tag(),
				Param: fe.Param(),
			})
		}
	}

	if len(req.User.Password) > security.MaxPasswordBytes {
		issues = append(issues, FieldIssue{Field: "user.password", Rule: "max_bytes", Param: fmt.Sprint(security.MaxPasswordBytes)})
	}

	for i, p := range req.Pets {
		if p.Owner != "" && p.Owner != req.User.Email {
			issues = append(issues, FieldIssue{
				Field: fmt.Sprintf("dogs[%d].owner", i),
				Rule:  "eq_user_email",
			})
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// "Request.user.email" -> "user.email"
func trimRoot(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}
