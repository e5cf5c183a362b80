package restblog

import (
	"net/http"
	"strings"
)

const MethodOverrideParam = "_method"

var overridableMethods = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// MethodOverride lets HTML forms, which can only POST, reach PUT, PATCH and
// DELETE routes by sending _method in the query string or the form body.
// It has to wrap the engine because gin picks the route before running
// middleware.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if method := overrideMethod(r); overridableMethods[method] {
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

func overrideMethod(r *http.Request) string {
	if method := r.URL.Query().Get(MethodOverrideParam); method != "" {
		return strings.ToUpper(method)
	}
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		return strings.ToUpper(r.PostFormValue(MethodOverrideParam))
	}
	return ""
}
