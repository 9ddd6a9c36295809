package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Robson16/daily-diet-api/internal/apperror"
	"github.com/Robson16/daily-diet-api/internal/model"
)

// Validation limits, counted in characters (Unicode code points), not bytes.
// "Pão de queijo" is 13 characters but 14 bytes in UTF-8.
const (
	// MaxMealNameLength caps a meal name after trimming.
	MaxMealNameLength = 100
	// MaxDescriptionLength caps a meal description after trimming.
	MaxDescriptionLength = 1000
)

// CreateMealInput is the caller-supplied part of a new meal. OnDiet is a
// pointer so that a missing flag can be told apart from false.
type CreateMealInput struct {
	Name        string
	Description string
	DateTime    string
	OnDiet      *bool
}

// UpdateMealInput holds a partial replacement. Nil fields keep their
// current value.
//
// POINTER FIELDS FOR PARTIAL UPDATES:
// A plain string cannot tell "not sent" from "sent as empty". With pointers:
//
//	Name == nil          → keep the stored name
//	*Name == ""          → rejected, a meal always has a name
//	Description == nil   → keep the stored description
//	*Description == ""   → clear the description
//
// The handler decodes JSON straight into pointers, so a key that is absent
// from the request body arrives here as nil.
type UpdateMealInput struct {
	Name        *string
	Description *string
	DateTime    *string
	OnDiet      *bool
}

// validMeal is the checked and normalized form of CreateMealInput.
type validMeal struct {
	name        string
	description string
	dateTime    string
	onDiet      bool
}

// validate checks every field of a new meal and returns the normalized form.
// The first invalid field wins.
func (in CreateMealInput) validate() (validMeal, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return validMeal{}, err
	}
	description, err := validateDescription(in.Description)
	if err != nil {
		return validMeal{}, err
	}
	if strings.TrimSpace(in.DateTime) == "" {
		return validMeal{}, apperror.ValidationFailed("dateTime", "dateTime is required")
	}
	dateTime, err := validateDateTime(in.DateTime)
	if err != nil {
		return validMeal{}, err
	}
	if in.OnDiet == nil {
		return validMeal{}, apperror.ValidationFailed("onDiet", "onDiet is required")
	}

	return validMeal{
		name:        name,
		description: description,
		dateTime:    dateTime,
		onDiet:      *in.OnDiet,
	}, nil
}

// apply validates each present field and writes it into meal. meal is left
// untouched if any field is invalid.
//
// The fields are applied to a copy (next) and the copy is written back only
// after every check passes, so a request that changes the name and carries a
// bad dateTime does not half-apply.
func (in UpdateMealInput) apply(meal *model.Meal) error {
	next := *meal

	if in.Name != nil {
		name, err := validateName(*in.Name)
		if err != nil {
			return err
		}
		next.Name = name
	}
	if in.Description != nil {
		description, err := validateDescription(*in.Description)
		if err != nil {
			return err
		}
		next.Description = description
	}
	if in.DateTime != nil {
		dateTime, err := validateDateTime(*in.DateTime)
		if err != nil {
			return err
		}
		next.DateTime = dateTime
	}
	if in.OnDiet != nil {
		next.OnDiet = *in.OnDiet
	}

	*meal = next
	return nil
}

// validateName trims name and enforces presence and MaxMealNameLength.
func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "meal name is required")
	}
	if !utf8.ValidString(name) {
		return "", apperror.ValidationFailed("name", "meal name must be valid UTF-8")
	}
	if utf8.RuneCountInString(name) > MaxMealNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("meal name must be %d characters or less", MaxMealNameLength))
	}
	return name, nil
}

// validateDescription trims description; empty is allowed.
func validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if !utf8.ValidString(description) {
		return "", apperror.ValidationFailed("description", "description must be valid UTF-8")
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return "", apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	return description, nil
}

// validateDateTime returns s in the fixed-width UTC layout used for storage.
func validateDateTime(s string) (string, error) {
	normalized, err := model.NormalizeDateTime(s)
	if err != nil {
		return "", apperror.ValidationFailed("dateTime", "dateTime must be a valid date-time")
	}
	return normalized, nil
}
