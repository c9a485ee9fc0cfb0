package database

import (
	"encoding/json"
	"fmt"
	"strings"
)

// userField tags the user columns that may be updated dynamically
type userField int

const (
	userFieldUsername userField = iota + 1
	userFieldPinHash
	userFieldPreferences
)

var userColumns = map[userField]string{
	userFieldUsername:    "username",
	userFieldPinHash:     "pin_hash",
	userFieldPreferences: "preferences",
}

// UserUpdate describes a single column change on a user.
// Values are built only through the Set* constructors.
type UserUpdate struct {
	field userField
	value interface{}
}

// SetUsername changes the display name
func SetUsername(name string) UserUpdate {
	return UserUpdate{field: userFieldUsername, value: name}
}

// SetPinHash changes the PIN credential hash; an empty hash clears it
func SetPinHash(hash string) UserUpdate {
	return UserUpdate{field: userFieldPinHash, value: hash}
}

// SetPreferences replaces the preference map
func SetPreferences(prefs map[string]any) UserUpdate {
	return UserUpdate{field: userFieldPreferences, value: prefs}
}

type curriculumField int

const (
	curriculumFieldTitle curriculumField = iota + 1
	curriculumFieldSubject
	curriculumFieldGrade
	curriculumFieldFilePath
	curriculumFieldUnitTitles
)

var curriculumColumns = map[curriculumField]string{
	curriculumFieldTitle:      "title",
	curriculumFieldSubject:    "subject",
	curriculumFieldGrade:      "grade",
	curriculumFieldFilePath:   "file_path",
	curriculumFieldUnitTitles: "unit_titles",
}

// CurriculumUpdate describes a single column change on curriculum metadata
type CurriculumUpdate struct {
	field curriculumField
	value interface{}
}

func SetCurriculumTitle(title string) CurriculumUpdate {
	return CurriculumUpdate{field: curriculumFieldTitle, value: title}
}

func SetCurriculumSubject(subject string) CurriculumUpdate {
	return CurriculumUpdate{field: curriculumFieldSubject, value: subject}
}

func SetCurriculumGrade(grade string) CurriculumUpdate {
	return CurriculumUpdate{field: curriculumFieldGrade, value: grade}
}

func SetCurriculumFilePath(path string) CurriculumUpdate {
	return CurriculumUpdate{field: curriculumFieldFilePath, value: path}
}

func SetCurriculumUnitTitles(titles []string) CurriculumUpdate {
	return CurriculumUpdate{field: curriculumFieldUnitTitles, value: titles}
}

// buildSet turns resolved columns and values into a SET clause.
// Columns always come from the fixed tables above.
func buildSet(columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c + " = ?"
	}
	return strings.Join(parts, ", ")
}

// encodeValue stores maps and slices as JSON text
func encodeValue(v interface{}) (interface{}, error) {
	switch v.(type) {
	case map[string]any, []string:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return v, nil
}

func resolveUserUpdates(updates []UserUpdate) ([]string, []interface{}, error) {
	columns := make([]string, 0, len(updates))
	args := make([]interface{}, 0, len(updates))
	for _, u := range updates {
		col, ok := userColumns[u.field]
		if !ok {
			return nil, nil, fmt.Errorf("%w: user field %d", ErrUnknownField, u.field)
		}
		v, err := encodeValue(u.value)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode %s: %w", col, err)
		}
		columns = append(columns, col)
		args = append(args, v)
	}
	return columns, args, nil
}

func resolveCurriculumUpdates(updates []CurriculumUpdate) ([]string, []interface{}, error) {
	columns := make([]string, 0, len(updates))
	args := make([]interface{}, 0, len(updates))
	for _, u := range updates {
		col, ok := curriculumColumns[u.field]
		if !ok {
			return nil, nil, fmt.Errorf("%w: curriculum field %d", ErrUnknownField, u.field)
		}
		v, err := encodeValue(u.value)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode %s: %w", col, err)
		}
		columns = append(columns, col)
		args = append(args, v)
	}
	return columns, args, nil
}
