package middleware

import (
	"net/http"
	"strings"
)

// MethodOverride lets HTML forms send PUT and DELETE. The override is read
// from the _method query parameter or form field of a POST request.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Failed to parse form", http.StatusBadRequest)
				return
			}
			method := strings.ToUpper(r.Form.Get("_method"))
			if method == http.MethodPut || method == http.MethodDelete {
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}
