package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Input types that make it into the field template. Everything else
// (checkbox, submit, file, ...) is left out of submissions.
var templateInputTypes = map[string]bool{
	"":         true,
	"text":     true,
	"email":    true,
	"tel":      true,
	"search":   true,
	"url":      true,
	"password": true,
	"hidden":   true,
}

// ExtractForm selects the first form on the page whose input names look like
// credential fields and turns it into a submission contract.
func ExtractForm(doc *goquery.Document, pageURL *url.URL, h Heuristics) (*Form, error) {
	forms := doc.Find("form")
	if forms.Length() == 0 {
		return nil, ErrNoFormFound
	}

	var form *Form
	forms.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if !isSuitable(sel, h) {
			return true
		}
		form = parseForm(sel, i, pageURL, h)
		return false
	})

	if form == nil {
		return nil, fmt.Errorf("%w (%d form(s) inspected)", ErrNoSuitableForm, forms.Length())
	}

	return form, nil
}

// ListForms parses every form on the page without the suitability filter.
// Used by analyze mode to show the operator what was skipped.
func ListForms(doc *goquery.Document, pageURL *url.URL, h Heuristics) []*Form {
	var forms []*Form
	doc.Find("form").Each(func(i int, sel *goquery.Selection) {
		forms = append(forms, parseForm(sel, i, pageURL, h))
	})
	return forms
}

func isSuitable(sel *goquery.Selection, h Heuristics) bool {
	suitable := false
	sel.Find("input").EachWithBreak(func(_ int, input *goquery.Selection) bool {
		name, _ := input.Attr("name")
		if containsAny(strings.ToLower(name), h.SuitableHints) != "" {
			suitable = true
			return false
		}
		return true
	})
	return suitable
}

func parseForm(sel *goquery.Selection, index int, pageURL *url.URL, h Heuristics) *Form {
	action, _ := sel.Attr("action")
	method, _ := sel.Attr("method")

	form := &Form{
		Index:   index,
		PageURL: pageURL.String(),
		Action:  resolveAction(pageURL, strings.TrimSpace(action)),
		Method:  normalizeMethod(method),
	}

	positions := make(map[string]int)

	sel.Find("input").Each(func(_ int, input *goquery.Selection) {
		name, exists := input.Attr("name")
		if !exists || name == "" {
			return
		}

		inputType, _ := input.Attr("type")
		inputType = strings.ToLower(strings.TrimSpace(inputType))
		if !templateInputTypes[inputType] {
			return
		}

		// Roles come from the name alone; hidden inputs also keep their value
		// so a two-step login's hidden username slot is still filled.
		field := Field{Name: name, Type: inputType, Role: inferRole(name, h)}
		if inputType == "hidden" {
			field.Value, _ = input.Attr("value")
		}

		// Last same-named input wins but keeps the first position.
		if pos, ok := positions[name]; ok {
			form.Fields[pos] = field
			return
		}
		positions[name] = len(form.Fields)
		form.Fields = append(form.Fields, field)
	})

	if h.CSRFHint != "" {
		hint := strings.ToLower(h.CSRFHint)
		for i := range form.Fields {
			field := form.Fields[i]
			if field.Type == "hidden" && strings.Contains(strings.ToLower(field.Name), hint) {
				form.Fields[i].Role = RoleOther
				field.Role = RoleOther
				form.CSRF = &field
				break
			}
		}
	}

	return form
}

func inferRole(name string, h Heuristics) Role {
	lower := strings.ToLower(name)
	if containsAny(lower, h.UsernameHints) != "" {
		return RoleUsername
	}
	if containsAny(lower, h.PasswordHints) != "" {
		return RolePassword
	}
	return RoleOther
}

func resolveAction(pageURL *url.URL, action string) string {
	if action == "" {
		return pageURL.String()
	}

	actionURL, err := url.Parse(action)
	if err != nil {
		return pageURL.String()
	}

	return pageURL.ResolveReference(actionURL).String()
}

func normalizeMethod(method string) string {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case "":
		return "GET"
	case "GET":
		return "GET"
	default:
		return "POST"
	}
}

// containsAny returns the first needle found in s, or "" when none is.
// s is expected to be lower-cased already.
func containsAny(s string, needles []string) string {
	for _, needle := range needles {
		if needle == "" {
			continue
		}
		if strings.Contains(s, strings.ToLower(needle)) {
			return needle
		}
	}
	return ""
}
