package restblog

import (
	"reflect"
	"strings"
	"unicode"
)

// getDocumentID returns the ID value of a document using reflection.
// It looks for a field tagged with `restblog:"id"` and falls back to a field named "ID".
func getDocumentID(doc interface{}) interface{} {
	val := reflect.ValueOf(doc)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).Tag.Get("restblog") == "id" {
			return val.Field(i).Interface()
		}
	}

	if idField := val.FieldByName("ID"); idField.IsValid() {
		return idField.Interface()
	}
	return nil
}

// getCollectionName asks the document for its collection and falls back to
// the type name in snake_case, e.g. CacheEntry -> cache_entry.
func getCollectionName[T Document]() string {
	var doc T
	if name := doc.GetCollectionName(); name != "" {
		return name
	}

	typ := reflect.TypeOf(doc)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	var result strings.Builder
	for i, r := range typ.Name() {
		if i > 0 && unicode.IsUpper(r) {
			result.WriteRune('_')
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}
