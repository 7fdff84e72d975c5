package handlers

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/casebridge/internal/form"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidations installs the submission rules on gin's validator.
// Field errors are reported under their JSON names. Safe to call repeatedly.
func RegisterValidations() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}

		v.RegisterTagNameFunc(jsonFieldName)
		v.RegisterStructValidation(validatePlaintiff, form.Plaintiff{})
		v.RegisterStructValidation(validateSubmission, form.Submission{})
	})
	return registerErr
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	default:
		return name
	}
}

// validatePlaintiff requires some form of name on every plaintiff.
func validatePlaintiff(sl validator.StructLevel) {
	p, ok := sl.Current().Interface().(form.Plaintiff)
	if !ok {
		return
	}
	if p.Name.IsEmpty() {
		sl.ReportError(p.Name, "Name", "Name", "plaintiff_name", "")
	}
}

// validateSubmission rejects repeated item numbers within a party list.
func validateSubmission(sl validator.StructLevel) {
	sub, ok := sl.Current().Interface().(form.Submission)
	if !ok {
		return
	}

	seen := make(map[int]bool, len(sub.Plaintiffs))
	for _, p := range sub.Plaintiffs {
		if seen[p.ItemNumber] {
			sl.ReportError(sub.Plaintiffs, "PlaintiffDetails", "Plaintiffs", "unique", "ItemNumber")
			break
		}
		seen[p.ItemNumber] = true
	}

	seen = make(map[int]bool, len(sub.Defendants))
	for _, d := range sub.Defendants {
		if seen[d.ItemNumber] {
			sl.ReportError(sub.Defendants, "DefendantDetails", "Defendants", "unique", "ItemNumber")
			break
		}
		seen[d.ItemNumber] = true
	}
}
