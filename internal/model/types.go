package model

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Document field keys of the students collection.
const (
	FieldName          = "name"
	FieldClass         = "class"
	FieldSection       = "section"
	FieldRollNumber    = "rollNumber"
	FieldAddress       = "address"
	FieldPhone         = "phone"
	FieldEmail         = "email"
	FieldParentName    = "parentName"
	FieldParentPhone   = "parentPhone"
	FieldDateOfBirth   = "dateOfBirth"
	FieldBloodGroup    = "bloodGroup"
	FieldAdmissionDate = "admissionDate"
	FieldCreatedAt     = "createdAt"
)

// DraftFields lists the editable fields in form order.
var DraftFields = []string{
	FieldName,
	FieldClass,
	FieldSection,
	FieldRollNumber,
	FieldAddress,
	FieldPhone,
	FieldEmail,
	FieldParentName,
	FieldParentPhone,
	FieldDateOfBirth,
	FieldBloodGroup,
	FieldAdmissionDate,
}

type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

type Session struct {
	Identity  *Identity `json:"identity"`
	Resolving bool      `json:"resolving"`
}

type StudentRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Class         string `json:"class"`
	Section       string `json:"section"`
	RollNumber    string `json:"rollNumber"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	ParentName    string `json:"parentName"`
	ParentPhone   string `json:"parentPhone"`
	DateOfBirth   string `json:"dateOfBirth"`
	BloodGroup    string `json:"bloodGroup"`
	AdmissionDate string `json:"admissionDate"`
	CreatedAt     string `json:"createdAt"`
}

type Draft struct {
	Name          string `json:"name" form:"name" yaml:"name"`
	Class         string `json:"class" form:"class" yaml:"class"`
	Section       string `json:"section" form:"section" yaml:"section"`
	RollNumber    string `json:"rollNumber" form:"rollNumber" yaml:"rollNumber"`
	Address       string `json:"address" form:"address" yaml:"address"`
	Phone         string `json:"phone" form:"phone" yaml:"phone"`
	Email         string `json:"email" form:"email" yaml:"email"`
	ParentName    string `json:"parentName" form:"parentName" yaml:"parentName"`
	ParentPhone   string `json:"parentPhone" form:"parentPhone" yaml:"parentPhone"`
	DateOfBirth   string `json:"dateOfBirth" form:"dateOfBirth" yaml:"dateOfBirth"`
	BloodGroup    string `json:"bloodGroup" form:"bloodGroup" yaml:"bloodGroup"`
	AdmissionDate string `json:"admissionDate" form:"admissionDate" yaml:"admissionDate"`
}

// Fields returns the document written to the store for this draft.
// createdAt is omitted when empty.
func (d Draft) Fields(createdAt string) map[string]any {
	fields := map[string]any{
		FieldName:          d.Name,
		FieldClass:         d.Class,
		FieldSection:       d.Section,
		FieldRollNumber:    d.RollNumber,
		FieldAddress:       d.Address,
		FieldPhone:         d.Phone,
		FieldEmail:         d.Email,
		FieldParentName:    d.ParentName,
		FieldParentPhone:   d.ParentPhone,
		FieldDateOfBirth:   d.DateOfBirth,
		FieldBloodGroup:    d.BloodGroup,
		FieldAdmissionDate: d.AdmissionDate,
	}
	if createdAt != "" {
		fields[FieldCreatedAt] = createdAt
	}
	return fields
}

// Draft copies the editable fields of a record.
func (r StudentRecord) Draft() Draft {
	return Draft{
		Name:          r.Name,
		Class:         r.Class,
		Section:       r.Section,
		RollNumber:    r.RollNumber,
		Address:       r.Address,
		Phone:         r.Phone,
		Email:         r.Email,
		ParentName:    r.ParentName,
		ParentPhone:   r.ParentPhone,
		DateOfBirth:   r.DateOfBirth,
		BloodGroup:    r.BloodGroup,
		AdmissionDate: r.AdmissionDate,
	}
}

// RecordFromFields builds a record from a schemaless document. Missing or
// falsy values become "".
func RecordFromFields(id string, fields map[string]any) StudentRecord {
	get := func(key string) string { return CoerceString(fields[key]) }
	return StudentRecord{
		ID:            id,
		Name:          get(FieldName),
		Class:         get(FieldClass),
		Section:       get(FieldSection),
		RollNumber:    get(FieldRollNumber),
		Address:       get(FieldAddress),
		Phone:         get(FieldPhone),
		Email:         get(FieldEmail),
		ParentName:    get(FieldParentName),
		ParentPhone:   get(FieldParentPhone),
		DateOfBirth:   get(FieldDateOfBirth),
		BloodGroup:    get(FieldBloodGroup),
		AdmissionDate: get(FieldAdmissionDate),
		CreatedAt:     get(FieldCreatedAt),
	}
}

func CoerceString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		if !value {
			return ""
		}
		return "true"
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			parts = append(parts, CoerceString(item))
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	default:
		return coerceNumber(reflect.ValueOf(v))
	}
}

// coerceNumber renders any numeric kind; zero and NaN are falsy.
func coerceNumber(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() == 0 {
			return ""
		}
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if rv.Uint() == 0 {
			return ""
		}
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == 0 || math.IsNaN(f) {
			return ""
		}
		bits := 64
		if rv.Kind() == reflect.Float32 {
			bits = 32
		}
		return strconv.FormatFloat(f, 'f', -1, bits)
	default:
		return ""
	}
}
