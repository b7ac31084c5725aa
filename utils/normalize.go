package utils

import (
	"reflect"
	"strings"
)

// NormalizeDTO trims string fields and upper-cases those tagged
// `normalize:"upper"` (currency codes) on a pointer-to-struct DTO.
// Non-nil *string fields are followed; nils stay nil.
func NormalizeDTO(dto any) {
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Ptr {
		return
	}
	s := v.Elem()
	if s.Kind() != reflect.Struct {
		return
	}
	t := s.Type()
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if !f.CanSet() {
			continue
		}
		if f.Kind() == reflect.Ptr {
			if f.IsNil() {
				continue
			}
			f = f.Elem()
		}
		if f.Kind() != reflect.String {
			continue
		}
		val := strings.TrimSpace(f.String())
		if t.Field(i).Tag.Get("normalize") == "upper" {
			val = strings.ToUpper(val)
		}
		f.SetString(val)
	}
}
